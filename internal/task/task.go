// Package task holds the task model shared by the store, the record file and
// the command interpreter: the three task kinds, their display and record
// renderings, and the strict date-time grammar used for input and storage.
package task

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind tags which variant a Task is.
type Kind int

const (
	KindToDo Kind = iota + 1
	KindDeadline
	KindEvent
)

const (
	// InputLayout is the machine format for user input and records (yyyy-MM-dd HH:mm).
	InputLayout = "2006-01-02 15:04"
	// DisplayLayout renders times for listings, e.g. "Jan 01 2099, 9:00 am".
	DisplayLayout = "Jan 02 2006, 3:04 pm"

	// MaxDescriptionLen caps descriptions, in characters.
	MaxDescriptionLen = 1024

	recordSep = " | "
)

var dateTimePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}$`)

// String returns the record name of the kind.
func (k Kind) String() string {
	switch k {
	case KindToDo:
		return "TODO"
	case KindDeadline:
		return "DEADLINE"
	case KindEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// Letter is the one-character tag used in listings.
func (k Kind) Letter() string {
	switch k {
	case KindToDo:
		return "T"
	case KindDeadline:
		return "D"
	case KindEvent:
		return "E"
	default:
		return "?"
	}
}

func kindFromRecord(s string) (Kind, bool) {
	switch s {
	case "TODO":
		return KindToDo, true
	case "DEADLINE":
		return KindDeadline, true
	case "EVENT":
		return KindEvent, true
	default:
		return 0, false
	}
}

// Task is one trackable item. The kind tag selects which time fields are
// meaningful: By for deadlines, From and To for events.
type Task struct {
	kind        Kind
	description string
	done        bool
	by          time.Time
	from        time.Time
	to          time.Time
}

// ValidateDescription reports whether description, once trimmed, can be
// stored as the description field of a record line.
func ValidateDescription(description string) error {
	description = strings.TrimSpace(description)
	switch {
	case description == "":
		return fmt.Errorf("%w: task description cannot be empty", ErrEmptyDescription)
	case strings.ContainsAny(description, "\r\n"):
		return fmt.Errorf("%w: task description cannot contain line breaks", ErrInvalidDescription)
	case strings.Contains(" "+description+" ", recordSep):
		// The record fields are joined with " | ", so a bar next to a space
		// or at either end would split the description on reload.
		return fmt.Errorf("%w: task description cannot contain %q", ErrInvalidDescription, strings.TrimSpace(recordSep))
	case utf8.RuneCountInString(description) > MaxDescriptionLen:
		return fmt.Errorf("%w: task description is longer than %d characters", ErrInvalidDescription, MaxDescriptionLen)
	}
	return nil
}

func NewToDo(description string) (Task, error) {
	description = strings.TrimSpace(description)
	if err := ValidateDescription(description); err != nil {
		return Task{}, err
	}
	return Task{kind: KindToDo, description: description}, nil
}

func NewDeadline(description string, by time.Time) (Task, error) {
	description = strings.TrimSpace(description)
	if err := ValidateDescription(description); err != nil {
		return Task{}, err
	}
	return Task{kind: KindDeadline, description: description, by: by}, nil
}

// NewEvent rejects a start time after the end time, so a stored event always
// has from <= to.
func NewEvent(description string, from, to time.Time) (Task, error) {
	description = strings.TrimSpace(description)
	if err := ValidateDescription(description); err != nil {
		return Task{}, err
	}
	if from.After(to) {
		return Task{}, fmt.Errorf("%w: start time cannot be after end time", ErrInvalidTime)
	}
	return Task{kind: KindEvent, description: description, from: from, to: to}, nil
}

// ParseDateTime parses s strictly as yyyy-MM-dd HH:mm in local time.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if !dateTimePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q does not match yyyy-MM-dd HH:mm", ErrInvalidDate, s)
	}
	t, err := time.ParseInLocation(InputLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrInvalidDate, s, err)
	}
	return t, nil
}

// MatchesDateTime reports whether s has the yyyy-MM-dd HH:mm shape without
// checking that the date itself exists.
func MatchesDateTime(s string) bool {
	return dateTimePattern.MatchString(strings.TrimSpace(s))
}

func (t Task) Kind() Kind          { return t.kind }
func (t Task) Description() string { return t.description }
func (t Task) Done() bool          { return t.done }
func (t Task) By() time.Time       { return t.by }
func (t Task) From() time.Time     { return t.from }
func (t Task) To() time.Time       { return t.to }

// Valid reports whether t was built by a constructor or ParseRecord.
func (t Task) Valid() bool {
	return t.kind != 0 && t.description != ""
}

func (t *Task) MarkDone()    { t.done = true }
func (t *Task) MarkNotDone() { t.done = false }

func (t Task) statusGlyph() string {
	if t.done {
		return "X"
	}
	return " "
}

func (t Task) statusRecord() string {
	if t.done {
		return "X"
	}
	return "0"
}

// Display renders the task for listings.
func (t Task) Display() string {
	base := fmt.Sprintf("%s [%s] %s", t.kind.Letter(), t.statusGlyph(), t.description)
	switch t.kind {
	case KindDeadline:
		return fmt.Sprintf("%s (by: %s)", base, t.by.Format(DisplayLayout))
	case KindEvent:
		return fmt.Sprintf("%s (from: %s to: %s)", base, t.from.Format(DisplayLayout), t.to.Format(DisplayLayout))
	default:
		return base
	}
}

func (t Task) String() string { return t.Display() }

// Record renders the task as one line of the task file.
func (t Task) Record() string {
	fields := []string{t.kind.String(), t.statusRecord(), t.description}
	switch t.kind {
	case KindDeadline:
		fields = append(fields, t.by.Format(InputLayout))
	case KindEvent:
		fields = append(fields, t.from.Format(InputLayout), t.to.Format(InputLayout))
	}
	return strings.Join(fields, recordSep)
}

// recordFields is the number of " | " separated fields a record of kind has.
func recordFields(k Kind) int {
	switch k {
	case KindDeadline:
		return 4
	case KindEvent:
		return 5
	default:
		return 3
	}
}

// ParseRecord rebuilds a task from one line of the task file.
func ParseRecord(line string) (Task, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, recordSep)
	if len(parts) < 3 {
		return Task{}, &ParseError{Line: line, Reason: "expected at least type, status and description"}
	}
	kind, ok := kindFromRecord(strings.TrimSpace(parts[0]))
	if !ok {
		return Task{}, &ParseError{Line: line, Reason: fmt.Sprintf("unknown task type %q", parts[0])}
	}
	var done bool
	switch strings.TrimSpace(parts[1]) {
	case "X":
		done = true
	case "0":
	default:
		return Task{}, &ParseError{Line: line, Reason: fmt.Sprintf("invalid status %q", parts[1])}
	}
	if want := recordFields(kind); len(parts) > want {
		return Task{}, &ParseError{Line: line, Reason: fmt.Sprintf("%s record has %d fields, want %d", kind, len(parts), want)}
	}
	description := parts[2]

	var (
		t   Task
		err error
	)
	switch kind {
	case KindToDo:
		t, err = NewToDo(description)
	case KindDeadline:
		if len(parts) < 4 {
			return Task{}, &ParseError{Line: line, Reason: "deadline record is missing its due time", Err: ErrMissingField}
		}
		by, perr := ParseDateTime(parts[3])
		if perr != nil {
			return Task{}, &ParseError{Line: line, Reason: "bad due time", Err: perr}
		}
		t, err = NewDeadline(description, by)
	case KindEvent:
		if len(parts) < 5 {
			return Task{}, &ParseError{Line: line, Reason: "event record is missing its start or end time", Err: ErrMissingField}
		}
		from, perr := ParseDateTime(parts[3])
		if perr != nil {
			return Task{}, &ParseError{Line: line, Reason: "bad start time", Err: perr}
		}
		to, perr := ParseDateTime(parts[4])
		if perr != nil {
			return Task{}, &ParseError{Line: line, Reason: "bad end time", Err: perr}
		}
		t, err = NewEvent(description, from, to)
	}
	if err != nil {
		return Task{}, &ParseError{Line: line, Reason: err.Error(), Err: err}
	}
	t.done = done
	return t, nil
}
