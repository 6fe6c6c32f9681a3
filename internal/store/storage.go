package store

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/amirbrooks/tasker-lines/internal/fileutil"
	"github.com/amirbrooks/tasker-lines/internal/task"
)

// ErrLocked is returned by Lock when another session holds the task file.
var ErrLocked = errors.New("task file is in use by another session")

// maxRecordLen bounds one line of the task file, terminator included. Any
// task that passes description validation renders well under it.
const maxRecordLen = 64 * 1024

// FileStorage reads and writes the task file: one record line per task,
// rewritten in full on every save.
type FileStorage struct {
	Path string

	logger *log.Logger
	flk    *flock.Flock
}

// NewFileStorage binds storage to path. A nil logger discards diagnostics.
func NewFileStorage(path string, logger *log.Logger) *FileStorage {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &FileStorage{Path: path, logger: logger}
}

// Load reads every record from the task file. A missing file is an empty list.
// Lines that fail to parse are logged and skipped; the rest still load.
func (s *FileStorage) Load() ([]task.Task, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []task.Task{}, nil
		}
		s.logger.Printf("loading tasks: %v", err)
		return []task.Task{}, err
	}
	defer f.Close()

	tasks := []task.Task{}
	r := bufio.NewReader(f)
	lineNo := 0
	for {
		line, tooLong, err := readLine(r, maxRecordLen)
		if err != nil && !errors.Is(err, io.EOF) {
			s.logger.Printf("reading %s: %v", s.Path, err)
			return tasks, err
		}
		if errors.Is(err, io.EOF) && line == "" && !tooLong {
			break
		}
		lineNo++
		switch {
		case tooLong:
			perr := &task.ParseError{Reason: fmt.Sprintf("record longer than %d bytes", maxRecordLen)}
			s.logger.Printf("%s:%d: skipping record: %v", s.Path, lineNo, perr)
		case strings.TrimSpace(line) == "":
		default:
			t, perr := task.ParseRecord(line)
			if perr != nil {
				s.logger.Printf("%s:%d: skipping record: %v", s.Path, lineNo, perr)
			} else {
				tasks = append(tasks, t)
			}
		}
		if err != nil {
			break
		}
	}
	return tasks, nil
}

// readLine returns the next line without its terminator. A line longer than
// limit is consumed to its end and reported as tooLong with no content. err
// is io.EOF on the last line, whether or not it was terminated.
func readLine(r *bufio.Reader, limit int) (line string, tooLong bool, err error) {
	var buf []byte
	for {
		chunk, rerr := r.ReadSlice('\n')
		if !tooLong {
			if len(buf)+len(chunk) > limit {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if errors.Is(rerr, bufio.ErrBufferFull) {
			continue
		}
		return strings.TrimRight(string(buf), "\r\n"), tooLong, rerr
	}
}

// Save overwrites the task file with one record per task.
func (s *FileStorage) Save(tasks []task.Task) error {
	var buf bytes.Buffer
	for i, t := range tasks {
		if !t.Valid() {
			s.logger.Printf("warning: skipping unset task at position %d while saving", i+1)
			continue
		}
		buf.WriteString(t.Record())
		buf.WriteByte('\n')
	}
	if err := fileutil.AtomicWriteFile(s.Path, buf.Bytes(), 0o644); err != nil {
		s.logger.Printf("saving tasks: %v", err)
		return fmt.Errorf("saving tasks to %s: %w", s.Path, err)
	}
	return nil
}

func (s *FileStorage) lockPath() string {
	return s.Path + ".lock"
}

// Lock takes an exclusive advisory lock next to the task file for the rest
// of the session.
func (s *FileStorage) Lock() error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	if s.flk == nil {
		s.flk = flock.New(s.lockPath())
	}
	locked, err := s.flk.TryLock()
	if err != nil {
		return fmt.Errorf("locking %s: %w", s.lockPath(), err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, s.Path)
	}
	return nil
}

func (s *FileStorage) Unlock() error {
	if s.flk == nil {
		return nil
	}
	return s.flk.Unlock()
}
