package process

import (
	"io"
	"strings"
	"time"
)

// DefaultGracePeriod is the SIGTERM-to-SIGKILL delay when none is set.
const DefaultGracePeriod = 2 * time.Second

// Command describes a helper binary invocation, such as a media probe.
type Command struct {
	// Binary is a path or a name resolved through PATH.
	Binary string
	Args   []string
	Dir    string
	// Env entries (KEY=value) are appended to the parent environment.
	Env   []string
	Stdin io.Reader
	// GracePeriod bounds the wait between SIGTERM and SIGKILL on cancel.
	GracePeriod time.Duration
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Binary}, c.Args...), " ")
}

// Result is what a finished process left behind.
type Result struct {
	Stdout []byte
	Stderr []byte
	// ExitCode is -1 when the process was killed by a signal.
	ExitCode int
	Duration time.Duration
}

// Output returns stdout with surrounding whitespace removed.
func (r *Result) Output() string {
	return strings.TrimSpace(string(r.Stdout))
}

// lastLine is the final non-empty stderr line, which is where most tools
// put their diagnosis.
func (r *Result) lastLine() string {
	lines := strings.Split(strings.TrimSpace(string(r.Stderr)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
