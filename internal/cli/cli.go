package cli

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/amirbrooks/tasker-lines/internal/command"
	"github.com/amirbrooks/tasker-lines/internal/config"
	"github.com/amirbrooks/tasker-lines/internal/store"
	"github.com/amirbrooks/tasker-lines/internal/task"
)

// Exit codes
const (
	ExitOK       = 0
	ExitUsage    = 2
	ExitConflict = 4
	ExitInternal = 10
)

type GlobalFlags struct {
	Root     string
	DataFile string
	Quiet    bool
	NoLock   bool
}

// exitError carries the process exit code for an error returned from a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// Run executes the CLI against the process streams.
func Run(args []string) int {
	return Execute(args, os.Stdin, os.Stdout, os.Stderr)
}

// Execute runs the CLI with the given arguments and streams and returns the exit code.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	gf := &GlobalFlags{}
	root := newRootCmd(gf, stdin, stdout, stderr)
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.code != ExitOK {
			fmt.Fprintln(stderr, "tasker:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(stderr, "tasker:", err)
	return ExitUsage
}

func newRootCmd(gf *GlobalFlags, stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "tasker",
		Short: "Line-mode task tracker (todo, deadline, event)",
		Long: `tasker reads one command per line and keeps the task list in a plain
text file under the store root.

Commands inside a session:
  todo <description>
  deadline <description> /by <yyyy-MM-dd HH:mm>
  event <description> /from <yyyy-MM-dd HH:mm> /to <yyyy-MM-dd HH:mm>
  list | mark <n> | unmark <n> | find <keyword> | delete <n> | help | bye`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(gf, stdin, stdout, stderr)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&gf.Root, "root", config.DefaultRoot(), "Store root (default: ~/.tasker or TASKER_ROOT)")
	pf.StringVar(&gf.DataFile, "data-file", "", "Task file (overrides data_file from config)")
	pf.BoolVar(&gf.Quiet, "quiet", false, "Suppress banner and informational output")
	pf.BoolVar(&gf.NoLock, "no-lock", false, "Do not lock the task file")

	root.AddCommand(newExecCmd(gf, stdout, stderr))
	root.AddCommand(newConfigCmd(gf, stdout))
	return root
}

func newExecCmd(gf *GlobalFlags, stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command line...>",
		Short: "Run a single command line and print the reply",
		Example: `  tasker exec todo Buy milk
  tasker exec deadline Pay rent /by 2099-01-01 09:00
  tasker exec list`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(gf, stderr)
			if err != nil {
				return err
			}
			defer s.close()

			resp := s.interp.Handle(strings.Join(args, " "))
			fmt.Fprintln(stdout, strings.TrimRight(resp.Text, "\n"))
			return withCode(exitCodeFor(resp.Err), resp.Err)
		},
	}
}

// exitCodeFor maps a command failure to a process exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, task.ErrDuplicate):
		return ExitConflict
	case errors.Is(err, command.ErrUnknownCommand),
		errors.Is(err, task.ErrEmptyDescription),
		errors.Is(err, task.ErrInvalidDescription),
		errors.Is(err, task.ErrInvalidDate),
		errors.Is(err, task.ErrInvalidTime),
		errors.Is(err, task.ErrMissingField),
		errors.Is(err, task.ErrIndexOutOfRange),
		errors.Is(err, task.ErrNumberFormat):
		return ExitUsage
	default:
		return ExitInternal
	}
}

func newConfigCmd(gf *GlobalFlags, stdout io.Writer) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:     "config",
		Aliases: []string{"cfg"},
		Short:   "Show or change configuration",
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(gf.Root)
			if err != nil {
				return withCode(ExitInternal, err)
			}
			cfgPath := config.Path(gf.Root)
			_, statErr := os.Stat(cfgPath)

			w := tabwriter.NewWriter(stdout, 2, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tVALUE")
			fmt.Fprintf(w, "root\t%s\n", gf.Root)
			fmt.Fprintf(w, "config_path\t%s\n", cfgPath)
			fmt.Fprintf(w, "exists\t%t\n", statErr == nil)
			for _, key := range config.Keys {
				v, _ := config.Get(cfg, key)
				fmt.Fprintf(w, "%s\t%s\n", key, v)
			}
			fmt.Fprintf(w, "data_path\t%s\n", resolveDataPath(gf, cfg))
			return w.Flush()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration key (" + strings.Join(config.Keys, ", ") + ")",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(gf.Root)
			if err != nil {
				return withCode(ExitInternal, err)
			}
			key := strings.ToLower(strings.TrimSpace(args[0]))
			if err := config.Set(&cfg, key, strings.Join(args[1:], " ")); err != nil {
				return withCode(ExitUsage, err)
			}
			if err := config.Save(gf.Root, cfg); err != nil {
				return withCode(ExitInternal, fmt.Errorf("config set: %w", err))
			}
			if !gf.Quiet {
				fmt.Fprintf(stdout, "Updated %s\n", key)
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath := config.Path(gf.Root)
			if _, err := os.Stat(cfgPath); err == nil {
				if !gf.Quiet {
					fmt.Fprintln(stdout, "Config already exists at:", cfgPath)
				}
				return nil
			}
			if err := config.Save(gf.Root, config.Default()); err != nil {
				return withCode(ExitInternal, fmt.Errorf("config init: %w", err))
			}
			if !gf.Quiet {
				fmt.Fprintln(stdout, "Wrote config to:", cfgPath)
			}
			return nil
		},
	})
	return cfgCmd
}

func resolveDataPath(gf *GlobalFlags, cfg config.Config) string {
	if strings.TrimSpace(gf.DataFile) != "" {
		p := strings.TrimSpace(gf.DataFile)
		if abs, err := filepath.Abs(p); err == nil {
			return abs
		}
		return p
	}
	return cfg.DataPath(gf.Root)
}

// session wires one task list to its file for the lifetime of a process.
type session struct {
	cfg     config.Config
	storage *store.FileStorage
	interp  *command.Interpreter
	locked  bool
}

func openSession(gf *GlobalFlags, stderr io.Writer) (*session, error) {
	cfg, err := config.Load(gf.Root)
	if err != nil {
		return nil, withCode(ExitInternal, err)
	}
	logger := log.New(stderr, "tasker: ", 0)
	storage := store.NewFileStorage(resolveDataPath(gf, cfg), logger)

	s := &session{cfg: cfg, storage: storage}
	if cfg.Lock && !gf.NoLock {
		if err := storage.Lock(); err != nil {
			if errors.Is(err, store.ErrLocked) {
				return nil, withCode(ExitConflict, err)
			}
			return nil, withCode(ExitInternal, err)
		}
		s.locked = true
	}

	// Load errors are already logged; the session starts from what was read.
	tasks, _ := storage.Load()
	s.interp = command.New(store.NewTaskList(tasks), storage)
	return s, nil
}

func (s *session) close() {
	if s.locked {
		_ = s.storage.Unlock()
	}
}
