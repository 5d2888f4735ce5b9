package resolve

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"unicode/utf8"
)

// HomePlaceholder is replaced with the user's home directory in the trigger
// program path.
const HomePlaceholder = "${HOME}"

// UserHome returns the home directory used to expand HomePlaceholder, or ""
// when it is unknown.
func UserHome(log *slog.Logger) string {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Debug("home directory unknown, leaving ${HOME} unexpanded", "error", err)
		return ""
	}
	return home
}

// ErrNonUTF8 is returned when a trigger program writes non-UTF-8 output.
var ErrNonUTF8 = errors.New("output is not valid UTF-8")

// TriggerFunc runs program with a single argument and returns its stdout.
type TriggerFunc func(program, arg string) ([]byte, error)

// TriggerError reports a failed trigger invocation.
type TriggerError struct {
	Program string
	Arg     string
	Err     error
}

func (e *TriggerError) Error() string {
	return fmt.Sprintf("trigger %s %q: %v", e.Program, e.Arg, e.Err)
}

func (e *TriggerError) Unwrap() error {
	return e.Err
}

// ExecTrigger runs the program as a child process and waits for it.
func ExecTrigger(program, arg string) ([]byte, error) {
	cmd := exec.Command(program, arg)
	cmd.Stderr = os.Stderr
	return cmd.Output()
}

// ExpandHome substitutes HomePlaceholder with home. An empty home leaves the
// path untouched.
func ExpandHome(path, home string) string {
	if home == "" {
		return path
	}
	return strings.ReplaceAll(path, HomePlaceholder, home)
}

// triggerOutput is the parsed two-line reply of a trigger program.
type triggerOutput struct {
	Name     string
	Revision string
}

// parseTriggerOutput reads the display name and revision from the first two
// lines. Fewer than two lines is not an error; ok is false.
func parseTriggerOutput(out []byte) (triggerOutput, bool, error) {
	if !utf8.Valid(out) {
		return triggerOutput{}, false, ErrNonUTF8
	}
	lines := strings.Split(string(out), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	if len(lines) < 2 {
		return triggerOutput{}, false, nil
	}
	return triggerOutput{
		Name:     strings.TrimSuffix(lines[0], "\r"),
		Revision: strings.TrimSuffix(lines[1], "\r"),
	}, true, nil
}
