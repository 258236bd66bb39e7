// Package launcher starts the Odoo application for test, install, upgrade
// and hot-test runs and waits for it to terminate.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"odootest/pkg/logging"
)

const subsystem = "Launcher"

// execCommandContext is a variable to allow mocking in tests
var execCommandContext = exec.CommandContext

// ErrSessionClosed is returned by Session.Send once the session process ended.
var ErrSessionClosed = errors.New("session closed")

// Launcher runs the application.
type Launcher interface {
	// Launch starts cfg and waits for it to terminate. It returns false
	// only when the process could not be started.
	Launch(ctx context.Context, cfg LaunchConfig) bool
	// StartSession starts cfg as a long-lived session and returns at once.
	StartSession(ctx context.Context, cfg LaunchConfig, channel string) (*Session, error)
}

// Notifier delivers a payload on a channel to a running session.
type Notifier interface {
	Notify(ctx context.Context, channel, payload string) error
}

// ProcessLauncher implements Launcher with local processes whose output is
// forwarded to the given writers.
type ProcessLauncher struct {
	stdout   io.Writer
	stderr   io.Writer
	notifier Notifier
}

// NewProcessLauncher creates a launcher. notifier is used by sessions.
func NewProcessLauncher(stdout, stderr io.Writer, notifier Notifier) *ProcessLauncher {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return &ProcessLauncher{stdout: stdout, stderr: stderr, notifier: notifier}
}

// Process is a started launch.
type Process struct {
	Config LaunchConfig
	cmd    *exec.Cmd
	done   chan struct{}
	err    error
}

// Start starts cfg without waiting for it.
func (l *ProcessLauncher) Start(ctx context.Context, cfg LaunchConfig) (*Process, error) {
	argv := cfg.Argv()
	cmd := execCommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = cfg.Cwd
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr
	cmd.Stdin = nil

	logging.Info(subsystem, "%s [%s]: %s", cfg.Name, cfg.ID, cfg)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting %s: %w", cfg.Name, err)
	}
	p := &Process{Config: cfg, cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Done is closed when the process terminated.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process terminated and returns its exit error.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Launch implements Launcher.
func (l *ProcessLauncher) Launch(ctx context.Context, cfg LaunchConfig) bool {
	p, err := l.Start(ctx, cfg)
	if err != nil {
		logging.Error(subsystem, err, "Failed to launch %s", cfg.Name)
		return false
	}
	if err := p.Wait(); err != nil {
		logging.Warn(subsystem, "%s [%s] terminated: %v", cfg.Name, cfg.ID, err)
	} else {
		logging.Info(subsystem, "%s [%s] terminated", cfg.Name, cfg.ID)
	}
	return true
}

// StartSession implements Launcher.
func (l *ProcessLauncher) StartSession(ctx context.Context, cfg LaunchConfig, channel string) (*Session, error) {
	p, err := l.Start(ctx, cfg)
	if err != nil {
		return nil, err
	}
	done := make(chan error, 1)
	go func() {
		done <- p.Wait()
	}()
	return NewSession(cfg.ID, channel, l.notifier, done), nil
}

// Session is the handle of a long-lived application process that accepts
// statements over a notification channel.
type Session struct {
	ID       string
	channel  string
	notifier Notifier

	mu     sync.Mutex
	closed bool
	err    error
	done   chan struct{}
}

// NewSession wraps a running process. exited receives the exit error of
// the process once it terminated.
func NewSession(id, channel string, notifier Notifier, exited <-chan error) *Session {
	s := &Session{ID: id, channel: channel, notifier: notifier, done: make(chan struct{})}
	go func() {
		err := <-exited
		s.mu.Lock()
		s.closed = true
		s.err = err
		s.mu.Unlock()
		close(s.done)
	}()
	return s
}

// Channel returns the notification channel of the session.
func (s *Session) Channel() string {
	return s.channel
}

// Closed reports whether the session process terminated.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Done is closed when the session process terminated.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session process terminated or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Send delivers payload to the session.
func (s *Session) Send(ctx context.Context, payload string) error {
	if s.Closed() {
		return ErrSessionClosed
	}
	if s.notifier == nil {
		return fmt.Errorf("session %s has no notifier", s.ID)
	}
	return s.notifier.Notify(ctx, s.channel, payload)
}
