// Package notify delivers user-facing messages. Info messages carry a topic
// and can be muted per topic; warnings and errors are always delivered.
package notify

import (
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/jedib0t/go-pretty/v6/text"

	"odootest/pkg/logging"
)

// Well-known info topics.
const (
	TopicGeneral  = "general"
	TopicDatabase = "database"
	TopicGit      = "git"
	TopicInstall  = "install"
	TopicTest     = "test"
)

// Level of a notification.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Sink receives notifications.
type Sink interface {
	Info(topic, message string)
	Warn(message string)
	Error(message string)
}

// Console prints notifications to a writer with colors.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	muted []string
}

// NewConsole creates a console sink. Info messages whose topic is listed in
// muted are dropped.
func NewConsole(out io.Writer, muted []string) *Console {
	return &Console{out: out, muted: slices.Clone(muted)}
}

// SetMuted replaces the muted topic list.
func (c *Console) SetMuted(muted []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.muted = slices.Clone(muted)
}

func (c *Console) Info(topic, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	logging.Debug("Notify", "[%s] %s", topic, message)
	if slices.Contains(c.muted, topic) {
		return
	}
	fmt.Fprintln(c.out, text.FgCyan.Sprint("ℹ ")+message)
}

func (c *Console) Warn(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	logging.Debug("Notify", "warning: %s", message)
	fmt.Fprintln(c.out, text.FgYellow.Sprint("⚠ "+message))
}

func (c *Console) Error(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	logging.Debug("Notify", "error: %s", message)
	fmt.Fprintln(c.out, text.FgRed.Sprint("✖ "+message))
}

// Entry is one recorded notification.
type Entry struct {
	Level   Level  `json:"level" yaml:"level"`
	Topic   string `json:"topic,omitempty" yaml:"topic,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// Recorder keeps notifications in memory. It backs tests and the MCP server,
// which returns the messages of an action as its tool result.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Info(topic, message string) {
	r.add(Entry{Level: LevelInfo, Topic: topic, Message: message})
}

func (r *Recorder) Warn(message string) {
	r.add(Entry{Level: LevelWarn, Message: message})
}

func (r *Recorder) Error(message string) {
	r.add(Entry{Level: LevelError, Message: message})
}

func (r *Recorder) add(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
}

// Entries returns a copy of the recorded notifications.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.entries)
}

// Messages returns the recorded messages of the given level.
func (r *Recorder) Messages(level Level) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.entries {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// Reset drops all recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}

// Tee forwards every notification to all sinks.
type Tee []Sink

func (t Tee) Info(topic, message string) {
	for _, s := range t {
		s.Info(topic, message)
	}
}

func (t Tee) Warn(message string) {
	for _, s := range t {
		s.Warn(message)
	}
}

func (t Tee) Error(message string) {
	for _, s := range t {
		s.Error(message)
	}
}
