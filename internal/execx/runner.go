package execx

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"odootest/pkg/logging"
)

const subsystem = "Exec"

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// Command is one external command invocation.
type Command struct {
	Name string
	Args []string
	// Dir is the working directory, empty for the current one.
	Dir string
	// Env is appended to the environment of the current process.
	Env []string
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Output is what a finished command printed.
type Output struct {
	Stdout string
	Stderr string
}

// Runner runs an external command to completion.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// CommandError is returned when a command could not be started or exited
// with a non-zero status.
type CommandError struct {
	Command string
	Stderr  string
	Err     error
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Command, e.Err, e.Stderr)
	}
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// ExecRunner implements Runner with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a new runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes cmd and waits for it.
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	logging.Debug(subsystem, "Running %s (dir=%q)", cmd, cmd.Dir)

	c := execCommandContext(ctx, cmd.Name, cmd.Args...)
	c.Dir = cmd.Dir
	if len(cmd.Env) > 0 {
		c.Env = append(os.Environ(), cmd.Env...)
	}
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		return out, &CommandError{
			Command: cmd.String(),
			Stderr:  strings.TrimSpace(out.Stderr),
			Err:     err,
		}
	}
	return out, nil
}
