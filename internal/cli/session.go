package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent = lipgloss.Color("#5FAF5F")
	colorMuted  = lipgloss.Color("#808080")
	colorError  = lipgloss.Color("#D75F5F")

	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 2)

	dividerStyle = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)
)

const dividerWidth = 60

func divider() string {
	return dividerStyle.Render(strings.Repeat("_", dividerWidth))
}

func banner() string {
	return bannerStyle.Render("Hello! I'm tasker\nWhat can I do for you?  (type help for commands)")
}

// renderReply styles a command reply for the terminal. Failure replies are
// highlighted; everything else is printed as is.
func renderReply(text string, failed bool) string {
	text = strings.TrimRight(text, "\n")
	if failed {
		return errorStyle.Render(text)
	}
	return text
}

// runInteractive reads commands from stdin until bye or end of input. Each
// line is fully handled and saved before the next is read.
func runInteractive(gf *GlobalFlags, stdin io.Reader, stdout, stderr io.Writer) error {
	s, err := openSession(gf, stderr)
	if err != nil {
		return err
	}
	defer s.close()

	if s.cfg.Banner && !gf.Quiet {
		fmt.Fprintln(stdout, divider())
		fmt.Fprintln(stdout, banner())
		fmt.Fprintln(stdout, divider())
	}

	sc := bufio.NewScanner(stdin)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		resp := s.interp.Handle(line)
		fmt.Fprintln(stdout, divider())
		fmt.Fprintln(stdout, renderReply(resp.Text, resp.Err != nil))
		fmt.Fprintln(stdout, divider())
		if resp.Exit {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return withCode(ExitInternal, fmt.Errorf("reading input: %w", err))
	}

	// Input ended without bye: save what we have.
	if err := s.interp.Save(); err != nil {
		return withCode(ExitInternal, err)
	}
	return nil
}
