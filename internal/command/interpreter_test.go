package command

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amirbrooks/tasker-lines/internal/store"
	"github.com/amirbrooks/tasker-lines/internal/task"
)

type recordingSaver struct {
	saves int
	last  []task.Task
	err   error
}

func (s *recordingSaver) Save(tasks []task.Task) error {
	s.saves++
	s.last = tasks
	return s.err
}

func newTestInterpreter(t *testing.T) (*Interpreter, *store.TaskList, *recordingSaver) {
	t.Helper()
	list := store.NewTaskList(nil)
	saver := &recordingSaver{}
	in := New(list, saver)
	in.Now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local) }
	return in, list, saver
}

func handle(t *testing.T, in *Interpreter, line string) string {
	t.Helper()
	resp := in.Handle(line)
	if resp.Exit {
		t.Fatalf("unexpected exit for %q", line)
	}
	return resp.Text
}

func TestClassify(t *testing.T) {
	cases := map[string]Kind{
		"help":               Help,
		"  LIST  ":           List,
		"todo read":          ToDo,
		"Deadline x /by y":   Deadline,
		"event x":            Event,
		"mark 1":             Mark,
		"unmark 1":           Unmark,
		"find book":          Find,
		"delete 2":           Delete,
		"bye":                Bye,
		"todos":              Unknown,
		"":                   Unknown,
		"blah":               Unknown,
		"markdown something": Unknown,
	}
	for line, want := range cases {
		if got := Classify(line); got != want {
			t.Fatalf("Classify(%q): expected %v, got %v", line, want, got)
		}
	}
}

func TestScenario(t *testing.T) {
	dir := t.TempDir()
	storage := store.NewFileStorage(filepath.Join(dir, "tasks.txt"), nil)
	list := store.NewTaskList(nil)
	in := New(list, storage)
	in.Now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local) }

	if got := handle(t, in, "todo Buy milk"); got != "Got it. I've added this task: Buy milk" {
		t.Fatalf("unexpected todo response %q", got)
	}
	if list.Len() != 1 {
		t.Fatalf("expected 1 task, got %d", list.Len())
	}
	handle(t, in, "deadline Pay rent /by 2099-01-01 09:00")
	if list.Len() != 2 {
		t.Fatalf("expected 2 tasks, got %d", list.Len())
	}

	want := "Here are the tasks in your list:\n" +
		"1.T [ ] Buy milk\n" +
		"2.D [ ] Pay rent (by: Jan 01 2099, 9:00 am)\n"
	if got := handle(t, in, "list"); got != want {
		t.Fatalf("expected list:\n%s\ngot:\n%s", want, got)
	}

	if got := handle(t, in, "mark 1"); !strings.Contains(got, "1.T [X] Buy milk") {
		t.Fatalf("expected task 1 marked, got %q", got)
	}

	got := handle(t, in, "delete 1")
	if !strings.HasPrefix(got, "Noted. I've removed this task:\n  T [X] Buy milk\n") {
		t.Fatalf("unexpected delete response %q", got)
	}
	if !strings.Contains(got, "1.D [ ] Pay rent") || list.Len() != 1 {
		t.Fatalf("expected remaining task renumbered to 1, got %q", got)
	}

	resp := in.Handle("bye")
	if !resp.Exit || resp.Text != "Bye. Hope to see you again soon!" {
		t.Fatalf("unexpected bye response %#v", resp)
	}
	b, err := os.ReadFile(storage.Path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(b) != "DEADLINE | 0 | Pay rent | 2099-01-01 09:00\n" {
		t.Fatalf("unexpected file contents %q", string(b))
	}
}

func TestListEmptyAndHelp(t *testing.T) {
	in, _, _ := newTestInterpreter(t)
	if got := handle(t, in, "list"); got != "No tasks added.\n" {
		t.Fatalf("unexpected empty list response %q", got)
	}
	if got := handle(t, in, "HELP"); !strings.HasPrefix(got, " Available Commands:\n") || !strings.Contains(got, "bye") {
		t.Fatalf("unexpected help response %q", got)
	}
	if got := handle(t, in, "sing a song"); got != "Unrecognised command!" {
		t.Fatalf("unexpected unknown response %q", got)
	}
}

func TestDuplicatesAreRejected(t *testing.T) {
	in, list, saver := newTestInterpreter(t)
	handle(t, in, "todo Report")
	savesBefore := saver.saves
	for _, line := range []string{
		"todo report",
		"deadline REPORT /by 2099-01-01 09:00",
		"event Report /from 2099-01-01 09:00 /to 2099-01-01 10:00",
	} {
		if got := handle(t, in, line); got != "Duplicate task detected! Task already exists." {
			t.Fatalf("expected duplicate response for %q, got %q", line, got)
		}
	}
	if list.Len() != 1 {
		t.Fatalf("expected store size unchanged, got %d", list.Len())
	}
	if saver.saves != savesBefore {
		t.Fatalf("expected no saves for rejected commands")
	}
}

func TestToDoRejectsEmptyDescription(t *testing.T) {
	in, list, _ := newTestInterpreter(t)
	for _, line := range []string{"todo", "todo    "} {
		if got := handle(t, in, line); got != "Error: Task description cannot be empty!" {
			t.Fatalf("unexpected response for %q: %q", line, got)
		}
	}
	if list.Len() != 0 {
		t.Fatalf("expected no tasks, got %d", list.Len())
	}
}

func TestDescriptionsWithRecordSeparatorAreRejected(t *testing.T) {
	dir := t.TempDir()
	storage := store.NewFileStorage(filepath.Join(dir, "tasks.txt"), nil)
	in := New(store.NewTaskList(nil), storage)
	in.Now = func() time.Time { return time.Date(2026, 1, 1, 12, 0, 0, 0, time.Local) }

	cases := map[string]string{
		"todo read a | b":                         "Error: ",
		"deadline pay x | y /by 2099-01-01 09:00": deadlineErrHead,
		"event a | b /from 2099-01-01 09:00 /to 2099-01-01 10:00": eventErrHead,
	}
	for line, head := range cases {
		resp := in.Handle(line)
		if !errors.Is(resp.Err, task.ErrInvalidDescription) || !strings.HasPrefix(resp.Text, head) {
			t.Fatalf("%q: expected invalid description reply, got %#v", line, resp)
		}
	}
	handle(t, in, "todo keep me")
	handle(t, in, "todo pipes|without|spaces")

	reloaded, err := storage.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	again := New(store.NewTaskList(reloaded), storage)
	want := "Here are the tasks in your list:\n1.T [ ] keep me\n2.T [ ] pipes|without|spaces\n"
	if got := handle(t, again, "list"); got != want {
		t.Fatalf("expected %q after reload, got %q", want, got)
	}
}

func TestMarkOnEmptyList(t *testing.T) {
	in, _, _ := newTestInterpreter(t)
	resp := in.Handle("mark 1")
	if !errors.Is(resp.Err, task.ErrIndexOutOfRange) {
		t.Fatalf("expected ErrIndexOutOfRange, got %v", resp.Err)
	}
	if resp.Text != "Error: no tasks in the list (got task number 1)" {
		t.Fatalf("unexpected reply %q", resp.Text)
	}
}

func TestDeadlineErrors(t *testing.T) {
	in, list, _ := newTestInterpreter(t)
	cases := map[string]string{
		"deadline Pay rent":                        "Error adding deadline task: Correct format: deadline [Task description] /by [yyyy-MM-dd HH:mm]",
		"deadline Pay rent /by   ":                 "Error adding deadline task: Missing deadline date. Use: /by [yyyy-MM-dd HH:mm]",
		"deadline /by 2099-01-01 09:00":            "Error adding deadline task: Task description cannot be empty!",
		"deadline Pay rent /by tomorrow":           "Error: Invalid time or time format. Use: yyyy-MM-dd HH:mm",
		"deadline Pay rent /by 2099-13-01 09:00":   "Error: Invalid time or time format. Use: yyyy-MM-dd HH:mm",
		"deadline Pay rent /by 2020-01-01 09:00":   "Error: Deadline cannot be in the past!",
		"deadline Pay rent /by 2026-01-01 12:00":   "Error: Deadline cannot be in the past!",
	}
	for line, want := range cases {
		if got := handle(t, in, line); got != want {
			t.Fatalf("%q: expected %q, got %q", line, want, got)
		}
	}
	if list.Len() != 0 {
		t.Fatalf("expected no tasks after failures, got %d", list.Len())
	}
}

func TestEventErrors(t *testing.T) {
	in, list, _ := newTestInterpreter(t)
	cases := map[string]string{
		"event Party /from 2099-01-01 09:00":                     "Error adding event task: Correct format: event [Task description] /from [Start time] /to [End time]",
		"event Party /to 2099-01-01 09:00":                       "Error adding event task: Correct format: event [Task description] /from [Start time] /to [End time]",
		"event /from 2099-01-01 09:00 /to 2099-01-01 10:00":      "Error adding event task: Task description cannot be empty!",
		"event Party /from /to 2099-01-01 10:00":                 "Error adding event task: Both start time (/from) and end time (/to) must be provided.",
		"event Party /from 2099-01-01 /to 2099-01-01 10:00":      "Error: Invalid time or time format. Use: yyyy-MM-dd HH:mm",
		"event Party /from 2020-01-01 09:00 /to 2099-01-01 10:00": "Error: Event times cannot be in the past!",
		"event Party /from 2099-01-02 09:00 /to 2099-01-01 10:00": "Error: Start time cannot be after end time!",
	}
	for line, want := range cases {
		if got := handle(t, in, line); got != want {
			t.Fatalf("%q: expected %q, got %q", line, want, got)
		}
	}
	if list.Len() != 0 {
		t.Fatalf("expected no tasks after failures, got %d", list.Len())
	}
}

func TestEventClashIsAdvisory(t *testing.T) {
	in, list, _ := newTestInterpreter(t)
	first := handle(t, in, "event Standup /from 2099-03-01 09:00 /to 2099-03-01 10:00")
	if first != "Got it. I've added this task: Standup\nNow you have 1 tasks in the list." {
		t.Fatalf("unexpected first event response %q", first)
	}
	got := handle(t, in, "event Review /from 2099-03-01 09:30 /to 2099-03-01 11:00")
	want := "Event added with a warning:\n" +
		"Warning: The event \"Standup\" overlaps with the new event.\n" +
		"Got it. I've added this task: Review\n" +
		"Now you have 2 tasks in the list."
	if got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}
	if list.Len() != 2 {
		t.Fatalf("expected clash not to block insertion, got %d tasks", list.Len())
	}
}

func TestMarkUnmarkRoundTrip(t *testing.T) {
	in, list, _ := newTestInterpreter(t)
	handle(t, in, "todo Water plants")
	before := list.All()[0].Display()

	got := handle(t, in, "mark 1")
	if !strings.HasPrefix(got, "Nice! I've marked this task as done:\n  T [X] Water plants\n") {
		t.Fatalf("unexpected mark response %q", got)
	}
	got = handle(t, in, "unmark 1")
	if !strings.HasPrefix(got, "OK, I've marked this task as not done yet:\n  T [ ] Water plants\n") {
		t.Fatalf("unexpected unmark response %q", got)
	}
	if after := list.All()[0].Display(); after != before {
		t.Fatalf("expected %q after round trip, got %q", before, after)
	}
}

func TestIndexErrorsLeaveStoreUnchanged(t *testing.T) {
	in, list, saver := newTestInterpreter(t)
	handle(t, in, "todo One")
	handle(t, in, "todo Two")
	savesBefore := saver.saves
	snapshot := list.All()

	for _, n := range []string{"0", "-1", "3", "99"} {
		for _, cmd := range []string{"mark", "unmark", "delete"} {
			got := handle(t, in, cmd+" "+n)
			if !strings.HasPrefix(got, "Error: ") {
				t.Fatalf("expected error for %q, got %q", cmd+" "+n, got)
			}
		}
	}
	if got := handle(t, in, "delete 7"); got != "Error: Invalid task index: 7" {
		t.Fatalf("unexpected delete range response %q", got)
	}
	if got := handle(t, in, "delete"); got != "Error: Please specify a task number to delete." {
		t.Fatalf("unexpected delete missing response %q", got)
	}
	if got := handle(t, in, "delete two"); got != "Error: Task number must be a valid integer." {
		t.Fatalf("unexpected delete format response %q", got)
	}
	if got := handle(t, in, "mark"); !strings.HasPrefix(got, "Error: ") {
		t.Fatalf("unexpected mark missing response %q", got)
	}
	if got := handle(t, in, "mark x"); !strings.HasPrefix(got, "Error: ") {
		t.Fatalf("unexpected mark format response %q", got)
	}

	after := list.All()
	if len(after) != len(snapshot) {
		t.Fatalf("expected %d tasks, got %d", len(snapshot), len(after))
	}
	for i := range after {
		if after[i].Display() != snapshot[i].Display() {
			t.Fatalf("task %d changed: %q -> %q", i+1, snapshot[i].Display(), after[i].Display())
		}
	}
	if saver.saves != savesBefore {
		t.Fatalf("expected no saves after failed commands")
	}
}

func TestFind(t *testing.T) {
	in, _, _ := newTestInterpreter(t)
	handle(t, in, "todo Read book")
	handle(t, in, "todo Buy milk")
	handle(t, in, "deadline Return BOOK /by 2099-01-01 09:00")

	want := "Here are the matching tasks in your list:\n" +
		"1.T [ ] Read book\n" +
		"2.D [ ] Return BOOK (by: Jan 01 2099, 9:00 am)\n"
	if got := handle(t, in, "find book"); got != want {
		t.Fatalf("expected:\n%s\ngot:\n%s", want, got)
	}
	if got := handle(t, in, "find cheese"); got != "No matching tasks found.\n" {
		t.Fatalf("unexpected no-match response %q", got)
	}
	if got := handle(t, in, "find   "); got != "Error: Please provide a keyword to search. Correct format: find [keyword]" {
		t.Fatalf("unexpected missing keyword response %q", got)
	}
}

func TestSaveFailureKeepsMutation(t *testing.T) {
	in, list, saver := newTestInterpreter(t)
	saver.err = errors.New("disk full")
	got := handle(t, in, "todo Survive")
	if !strings.HasPrefix(got, "Got it. I've added this task: Survive") {
		t.Fatalf("unexpected response %q", got)
	}
	if !strings.Contains(got, "Warning: tasks could not be saved: disk full") {
		t.Fatalf("expected save warning in response, got %q", got)
	}
	if list.Len() != 1 {
		t.Fatalf("expected mutation to stay in memory, got %d tasks", list.Len())
	}

	resp := in.Handle("bye")
	if !resp.Exit || !strings.Contains(resp.Text, "disk full") {
		t.Fatalf("expected bye to exit and report the failure, got %#v", resp)
	}
}

func TestMutationsPersist(t *testing.T) {
	in, _, saver := newTestInterpreter(t)
	handle(t, in, "todo A")
	handle(t, in, "event B /from 2099-01-01 09:00 /to 2099-01-01 10:00")
	handle(t, in, "mark 2")
	handle(t, in, "delete 1")
	if saver.saves != 4 {
		t.Fatalf("expected 4 saves, got %d", saver.saves)
	}
	if len(saver.last) != 1 || saver.last[0].Record() != "EVENT | X | B | 2099-01-01 09:00 | 2099-01-01 10:00" {
		t.Fatalf("unexpected last saved state %v", saver.last)
	}
	handle(t, in, "list")
	handle(t, in, "find B")
	if saver.saves != 4 {
		t.Fatalf("expected read-only commands not to save, got %d saves", saver.saves)
	}
}

func TestResponseErrorKinds(t *testing.T) {
	in, _, saver := newTestInterpreter(t)
	handle(t, in, "todo Exists")
	cases := map[string]error{
		"todo exists":                    task.ErrDuplicate,
		"todo":                           task.ErrEmptyDescription,
		"todo a | b":                     task.ErrInvalidDescription,
		"deadline x":                     task.ErrMissingField,
		"deadline x /by soon":            task.ErrInvalidDate,
		"event x /from soon /to later":   task.ErrInvalidTime,
		"mark 9":                         task.ErrIndexOutOfRange,
		"unmark nine":                    task.ErrNumberFormat,
		"delete 0":                       task.ErrIndexOutOfRange,
		"find":                           task.ErrMissingField,
		"frobnicate":                     ErrUnknownCommand,
	}
	for line, want := range cases {
		if resp := in.Handle(line); !errors.Is(resp.Err, want) {
			t.Fatalf("%q: expected %v, got %v", line, want, resp.Err)
		}
	}
	if resp := in.Handle("list"); resp.Err != nil {
		t.Fatalf("expected list to succeed, got %v", resp.Err)
	}

	saver.err = errors.New("read-only")
	if resp := in.Handle("todo Fresh"); resp.Err == nil || !strings.HasPrefix(resp.Text, "Got it.") {
		t.Fatalf("expected confirmation with save error, got %#v", resp)
	}
}
