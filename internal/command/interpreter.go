// Package command turns one line of user input into a change to the task list
// and a text reply. Every failure, whether from parsing, the list, or saving,
// comes back as reply text.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirbrooks/tasker-lines/internal/store"
	"github.com/amirbrooks/tasker-lines/internal/task"
)

const (
	msgUnknown      = "Unrecognised command!"
	msgDuplicate    = "Duplicate task detected! Task already exists."
	msgNoTasks      = "No tasks added.\n"
	msgNoMatches    = "No matching tasks found.\n"
	msgListHeader   = "Here are the tasks in your list:\n"
	msgFindHeader   = "Here are the matching tasks in your list:\n"
	msgAdded        = "Got it. I've added this task: "
	msgBadTime      = "Error: Invalid time or time format. Use: yyyy-MM-dd HH:mm"
	msgBye          = "Bye. Hope to see you again soon!"
	msgUnexpected   = "Error: An unexpected error occurred."
	deadlineFormat  = "Correct format: deadline [Task description] /by [yyyy-MM-dd HH:mm]"
	eventFormat     = "Correct format: event [Task description] /from [Start time] /to [End time]"
	findFormat      = "Please provide a keyword to search. Correct format: find [keyword]"
	deadlineErrHead = "Error adding deadline task: "
	eventErrHead    = "Error adding event task: "
)

const helpText = " Available Commands:\n" +
	" - todo [Task description]: Adds a task without a deadline.\n" +
	" - deadline [Task description] /by [yyyy-MM-dd HH:mm]: Adds a task with a deadline.\n" +
	" - event [Task description] /from [yyyy-MM-dd HH:mm] /to [yyyy-MM-dd HH:mm]: Adds an event task.\n" +
	" - list: Displays all tasks in the list.\n" +
	" - mark [Task number]: Marks a task as done.\n" +
	" - unmark [Task number]: Unmarks a task as not done.\n" +
	" - find [Keyword]: Finds a task by its keyword.\n" +
	" - delete [Task number]: Deletes a task from the list.\n" +
	" - bye: Exits the program.\n"

// ErrUnknownCommand is reported for lines that match no command word.
var ErrUnknownCommand = errors.New("unknown command")

// Saver persists the full task list.
type Saver interface {
	Save(tasks []task.Task) error
}

// Response is the reply to one input line. Err carries the kind of failure
// behind Text, if any; a failed save after a successful change also sets it.
// Exit is set after bye and the front end ends its read loop.
type Response struct {
	Text string
	Err  error
	Exit bool
}

// Interpreter handles one line at a time against a single task list.
type Interpreter struct {
	tasks *store.TaskList
	saver Saver

	// Now is the clock used to reject past deadlines and events.
	Now func() time.Time
}

func New(tasks *store.TaskList, saver Saver) *Interpreter {
	return &Interpreter{tasks: tasks, saver: saver, Now: time.Now}
}

// Handle classifies and runs one input line.
func (in *Interpreter) Handle(line string) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			resp = Response{Text: msgUnexpected, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	_, args := splitCommand(line)
	var (
		text string
		err  error
	)
	switch Classify(line) {
	case Help:
		text = helpText
	case List:
		text = in.listText()
	case ToDo:
		text, err = in.addToDo(args)
	case Deadline:
		text, err = in.addDeadline(args)
	case Event:
		text, err = in.addEvent(args)
	case Mark:
		text, err = in.mark(args, true)
	case Unmark:
		text, err = in.mark(args, false)
	case Find:
		text, err = in.find(args)
	case Delete:
		text, err = in.delete(args)
	case Bye:
		saved, serr := in.persist()
		return Response{Text: msgBye + saved, Err: serr, Exit: true}
	default:
		text, err = msgUnknown, ErrUnknownCommand
	}
	return Response{Text: text, Err: err}
}

// Save writes the current list without going through a command.
func (in *Interpreter) Save() error {
	return in.saver.Save(in.tasks.All())
}

// persist saves after a change. The change stays in memory when saving fails;
// the returned suffix tells the user.
func (in *Interpreter) persist() (string, error) {
	if err := in.Save(); err != nil {
		return "\nWarning: tasks could not be saved: " + err.Error(), err
	}
	return "", nil
}

func (in *Interpreter) now() time.Time {
	if in.Now == nil {
		return time.Now()
	}
	return in.Now()
}

func numbered(b *strings.Builder, tasks []task.Task) {
	for i, t := range tasks {
		fmt.Fprintf(b, "%d.%s\n", i+1, t.Display())
	}
}

func (in *Interpreter) listText() string {
	tasks := in.tasks.All()
	if len(tasks) == 0 {
		return msgNoTasks
	}
	var b strings.Builder
	b.WriteString(msgListHeader)
	numbered(&b, tasks)
	return b.String()
}

func (in *Interpreter) addToDo(description string) (string, error) {
	if description == "" {
		return "Error: Task description cannot be empty!", task.ErrEmptyDescription
	}
	if err := task.ValidateDescription(description); err != nil {
		return "Error: " + err.Error(), err
	}
	if in.tasks.Exists(description) {
		return msgDuplicate, task.ErrDuplicate
	}
	t, err := in.tasks.AddToDo(description)
	if err != nil {
		return "Error: " + err.Error(), err
	}
	saved, err := in.persist()
	return msgAdded + t.Description() + saved, err
}

func (in *Interpreter) addDeadline(args string) (string, error) {
	description, by, ok := strings.Cut(args, "/by")
	if !ok {
		return deadlineErrHead + deadlineFormat, task.ErrMissingField
	}
	description = strings.TrimSpace(description)
	by = strings.TrimSpace(by)
	if by == "" {
		return deadlineErrHead + "Missing deadline date. Use: /by [yyyy-MM-dd HH:mm]", task.ErrMissingField
	}
	if description == "" {
		return deadlineErrHead + "Task description cannot be empty!", task.ErrEmptyDescription
	}
	if err := task.ValidateDescription(description); err != nil {
		return deadlineErrHead + err.Error(), err
	}
	when, err := task.ParseDateTime(by)
	if err != nil {
		return msgBadTime, err
	}
	if !when.After(in.now()) {
		return "Error: Deadline cannot be in the past!", fmt.Errorf("%w: deadline %s is not in the future", task.ErrInvalidDate, by)
	}
	if in.tasks.Exists(description) {
		return msgDuplicate, task.ErrDuplicate
	}
	t, err := in.tasks.AddDeadline(description, by)
	if err != nil {
		return deadlineErrHead + err.Error(), err
	}
	saved, err := in.persist()
	return msgAdded + t.Description() + saved, err
}

func (in *Interpreter) addEvent(args string) (string, error) {
	description, rest, ok := strings.Cut(args, "/from")
	if !ok {
		return eventErrHead + eventFormat, task.ErrMissingField
	}
	fromText, toText, ok := strings.Cut(rest, "/to")
	if !ok {
		return eventErrHead + eventFormat, task.ErrMissingField
	}
	description = strings.TrimSpace(description)
	fromText = strings.TrimSpace(fromText)
	toText = strings.TrimSpace(toText)
	if description == "" {
		return eventErrHead + "Task description cannot be empty!", task.ErrEmptyDescription
	}
	if err := task.ValidateDescription(description); err != nil {
		return eventErrHead + err.Error(), err
	}
	if fromText == "" || toText == "" {
		return eventErrHead + "Both start time (/from) and end time (/to) must be provided.", task.ErrMissingField
	}
	from, err := task.ParseDateTime(fromText)
	if err != nil {
		return msgBadTime, fmt.Errorf("%w: %v", task.ErrInvalidTime, err)
	}
	to, err := task.ParseDateTime(toText)
	if err != nil {
		return msgBadTime, fmt.Errorf("%w: %v", task.ErrInvalidTime, err)
	}
	now := in.now()
	if !from.After(now) || !to.After(now) {
		return "Error: Event times cannot be in the past!", fmt.Errorf("%w: event times must be in the future", task.ErrInvalidTime)
	}
	if from.After(to) {
		return "Error: Start time cannot be after end time!", fmt.Errorf("%w: start time after end time", task.ErrInvalidTime)
	}
	if in.tasks.Exists(description) {
		return msgDuplicate, task.ErrDuplicate
	}

	warning := in.tasks.CheckEventClash(from, to)
	t, err := in.tasks.AddEvent(description, fromText, toText)
	if err != nil {
		return eventErrHead + err.Error(), err
	}
	saved, err := in.persist()

	var b strings.Builder
	if warning != "" {
		b.WriteString("Event added with a warning:\n")
		b.WriteString(warning)
	}
	b.WriteString(msgAdded)
	b.WriteString(t.Description())
	fmt.Fprintf(&b, "\nNow you have %d tasks in the list.", in.tasks.Len())
	b.WriteString(saved)
	return b.String(), err
}

// taskNumber reads the 1-based task number from the first argument.
func taskNumber(args string) (int, string, error) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, "", fmt.Errorf("%w: please specify a task number", task.ErrMissingField)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fields[0], fmt.Errorf("%w: task number must be a valid integer, got %q", task.ErrNumberFormat, fields[0])
	}
	return n, fields[0], nil
}

func (in *Interpreter) mark(args string, done bool) (string, error) {
	n, _, err := taskNumber(args)
	if err != nil {
		return "Error: " + err.Error(), err
	}
	var (
		t    task.Task
		head string
	)
	if done {
		t, err = in.tasks.MarkDone(n)
		head = "Nice! I've marked this task as done:\n"
	} else {
		t, err = in.tasks.MarkNotDone(n)
		head = "OK, I've marked this task as not done yet:\n"
	}
	if err != nil {
		return "Error: " + err.Error(), err
	}
	saved, err := in.persist()
	return head + "  " + t.Display() + "\n" + in.listText() + saved, err
}

func (in *Interpreter) find(keyword string) (string, error) {
	if keyword == "" {
		return "Error: " + findFormat, task.ErrMissingField
	}
	matches := in.tasks.Find(keyword)
	if len(matches) == 0 {
		return msgNoMatches, nil
	}
	var b strings.Builder
	b.WriteString(msgFindHeader)
	numbered(&b, matches)
	return b.String(), nil
}

func (in *Interpreter) delete(args string) (string, error) {
	n, token, err := taskNumber(args)
	switch {
	case errors.Is(err, task.ErrMissingField):
		return "Error: Please specify a task number to delete.", err
	case errors.Is(err, task.ErrNumberFormat):
		return "Error: Task number must be a valid integer.", err
	case err != nil:
		return "Error: " + err.Error(), err
	}
	removed, err := in.tasks.Delete(n)
	if err != nil {
		if errors.Is(err, task.ErrIndexOutOfRange) {
			return "Error: Invalid task index: " + token, err
		}
		return "Error: " + err.Error(), err
	}
	saved, err := in.persist()
	return "Noted. I've removed this task:\n  " + removed.Display() + "\n" + in.listText() + saved, err
}
