package execx

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// Response is a scripted answer of Fake.
type Response struct {
	Stdout string
	Err    error
}

// Fake is a Runner that records commands instead of running them.
// Responses are matched by the longest registered command-line prefix;
// unmatched commands succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	Commands  []Command
	responses map[string]Response
}

// NewFake creates an empty Fake.
func NewFake() *Fake {
	return &Fake{responses: make(map[string]Response)}
}

// On registers the response for commands whose line starts with prefix.
func (f *Fake) On(prefix string, resp Response) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = resp
	return f
}

// Fail registers a failure for commands whose line starts with prefix.
func (f *Fake) Fail(prefix, stderr string) *Fake {
	return f.On(prefix, Response{Err: &CommandError{Command: prefix, Stderr: stderr, Err: errors.New("exit status 1")}})
}

// Run records cmd and returns its scripted response.
func (f *Fake) Run(_ context.Context, cmd Command) (Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, cmd)

	line := cmd.String()
	best := -1
	var resp Response
	for prefix, r := range f.responses {
		if strings.HasPrefix(line, prefix) && len(prefix) > best {
			best = len(prefix)
			resp = r
		}
	}
	return Output{Stdout: resp.Stdout}, resp.Err
}

// Lines returns the recorded command lines in order.
func (f *Fake) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := make([]string, len(f.Commands))
	for i, c := range f.Commands {
		lines[i] = c.String()
	}
	return lines
}
