package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/amirbrooks/tasker-lines/internal/task"
)

// TaskList is the ordered, in-memory set of tasks for one session. Order is
// insertion order and the 1-based position is the only external identity.
type TaskList struct {
	tasks []task.Task
}

// NewTaskList takes ownership of a copy of tasks. Tasks that are not valid
// are dropped so the list never holds an empty entry.
func NewTaskList(tasks []task.Task) *TaskList {
	l := &TaskList{tasks: make([]task.Task, 0, len(tasks))}
	for _, t := range tasks {
		if t.Valid() {
			l.tasks = append(l.tasks, t)
		}
	}
	return l
}

func (l *TaskList) Len() int { return len(l.tasks) }

// All returns a copy of the tasks in insertion order.
func (l *TaskList) All() []task.Task {
	out := make([]task.Task, len(l.tasks))
	copy(out, l.tasks)
	return out
}

func (l *TaskList) AddToDo(description string) (task.Task, error) {
	t, err := task.NewToDo(description)
	if err != nil {
		return task.Task{}, err
	}
	l.tasks = append(l.tasks, t)
	return t, nil
}

func (l *TaskList) AddDeadline(description, byText string) (task.Task, error) {
	if err := task.ValidateDescription(description); err != nil {
		return task.Task{}, err
	}
	if !task.MatchesDateTime(byText) {
		return task.Task{}, fmt.Errorf("%w: invalid deadline format, use yyyy-MM-dd HH:mm", task.ErrInvalidDate)
	}
	by, err := task.ParseDateTime(byText)
	if err != nil {
		return task.Task{}, err
	}
	t, err := task.NewDeadline(description, by)
	if err != nil {
		return task.Task{}, err
	}
	l.tasks = append(l.tasks, t)
	return t, nil
}

func (l *TaskList) AddEvent(description, fromText, toText string) (task.Task, error) {
	if err := task.ValidateDescription(description); err != nil {
		return task.Task{}, err
	}
	if strings.TrimSpace(fromText) == "" || strings.TrimSpace(toText) == "" {
		return task.Task{}, fmt.Errorf("%w: both start time (/from) and end time (/to) must be provided", task.ErrMissingField)
	}
	if !task.MatchesDateTime(fromText) || !task.MatchesDateTime(toText) {
		return task.Task{}, fmt.Errorf("%w: use yyyy-MM-dd HH:mm", task.ErrInvalidTime)
	}
	from, err := task.ParseDateTime(fromText)
	if err != nil {
		return task.Task{}, fmt.Errorf("%w: %v", task.ErrInvalidTime, err)
	}
	to, err := task.ParseDateTime(toText)
	if err != nil {
		return task.Task{}, fmt.Errorf("%w: %v", task.ErrInvalidTime, err)
	}
	t, err := task.NewEvent(description, from, to)
	if err != nil {
		return task.Task{}, err
	}
	l.tasks = append(l.tasks, t)
	return t, nil
}

// Exists reports whether any task already has this description, ignoring case.
func (l *TaskList) Exists(description string) bool {
	description = strings.TrimSpace(description)
	for _, t := range l.tasks {
		if strings.EqualFold(t.Description(), description) {
			return true
		}
	}
	return false
}

// CheckEventClash returns one warning line per stored event whose [from, to)
// interval overlaps the given one, or "" when nothing overlaps.
func (l *TaskList) CheckEventClash(from, to time.Time) string {
	var b strings.Builder
	for _, t := range l.tasks {
		if t.Kind() != task.KindEvent {
			continue
		}
		if from.Before(t.To()) && to.After(t.From()) {
			fmt.Fprintf(&b, "Warning: The event %q overlaps with the new event.\n", t.Description())
		}
	}
	return b.String()
}

func (l *TaskList) checkIndex(n int) error {
	if n < 1 || n > len(l.tasks) {
		return &task.IndexError{Index: n, Size: len(l.tasks)}
	}
	return nil
}

func (l *TaskList) MarkDone(n int) (task.Task, error) {
	if err := l.checkIndex(n); err != nil {
		return task.Task{}, err
	}
	l.tasks[n-1].MarkDone()
	return l.tasks[n-1], nil
}

func (l *TaskList) MarkNotDone(n int) (task.Task, error) {
	if err := l.checkIndex(n); err != nil {
		return task.Task{}, err
	}
	l.tasks[n-1].MarkNotDone()
	return l.tasks[n-1], nil
}

// Delete removes the n-th task (1-based) and returns it.
func (l *TaskList) Delete(n int) (task.Task, error) {
	if err := l.checkIndex(n); err != nil {
		return task.Task{}, err
	}
	removed := l.tasks[n-1]
	l.tasks = append(l.tasks[:n-1], l.tasks[n:]...)
	return removed, nil
}

// Find returns the tasks whose description contains keyword, ignoring case,
// in list order.
func (l *TaskList) Find(keyword string) []task.Task {
	needle := strings.ToLower(keyword)
	out := []task.Task{}
	for _, t := range l.tasks {
		if strings.Contains(strings.ToLower(t.Description()), needle) {
			out = append(out, t)
		}
	}
	return out
}
