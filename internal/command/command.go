package command

import "strings"

// Kind is the classified command of one input line.
type Kind int

const (
	Unknown Kind = iota
	Help
	List
	ToDo
	Deadline
	Event
	Mark
	Unmark
	Find
	Delete
	Bye
)

var commandWords = []struct {
	word string
	kind Kind
}{
	{"help", Help},
	{"list", List},
	{"todo", ToDo},
	{"deadline", Deadline},
	{"event", Event},
	{"mark", Mark},
	{"unmark", Unmark},
	{"find", Find},
	{"delete", Delete},
	{"bye", Bye},
}

func (k Kind) String() string {
	for _, c := range commandWords {
		if c.kind == k {
			return c.word
		}
	}
	return "unknown"
}

// Classify matches the first word of line, ignoring case. Only whole words
// match: "todos" and "markdown" are Unknown, not prefixes of a command.
func Classify(line string) Kind {
	word, _ := splitCommand(line)
	word = strings.ToLower(word)
	for _, c := range commandWords {
		if c.word == word {
			return c.kind
		}
	}
	return Unknown
}

// splitCommand returns the first word of line and the trimmed text after it.
func splitCommand(line string) (string, string) {
	line = strings.TrimSpace(line)
	i := strings.IndexFunc(line, isSpace)
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}
