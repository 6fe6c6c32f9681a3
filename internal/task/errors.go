package task

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyDescription = errors.New("empty description")
	// ErrInvalidDescription marks a description that cannot be stored as one record field.
	ErrInvalidDescription = errors.New("invalid description")
	ErrInvalidDate      = errors.New("invalid date format")
	ErrInvalidTime      = errors.New("invalid time format")
	ErrMissingField     = errors.New("missing required field")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrDuplicate        = errors.New("duplicate task")
	ErrNumberFormat     = errors.New("invalid number")
	ErrParse            = errors.New("parse error")
)

// IndexError reports a 1-based task number outside the list.
// It still satisfies errors.Is(err, ErrIndexOutOfRange).
type IndexError struct {
	Index int
	Size  int
}

func (e *IndexError) Error() string {
	if e == nil {
		return ErrIndexOutOfRange.Error()
	}
	if e.Size <= 0 {
		return fmt.Sprintf("no tasks in the list (got task number %d)", e.Index)
	}
	return fmt.Sprintf("task number %d out of range (1-%d)", e.Index, e.Size)
}

func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// ParseError describes a malformed persisted record.
// It still satisfies errors.Is(err, ErrParse).
type ParseError struct {
	Line   string
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	if e == nil {
		return ErrParse.Error()
	}
	var b strings.Builder
	b.WriteString("parse error")
	if strings.TrimSpace(e.Reason) != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Line != "" {
		fmt.Fprintf(&b, " (line %q)", e.Line)
	}
	return b.String()
}

func (e *ParseError) Is(target error) bool {
	return target == ErrParse
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
