package workflow

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"odootest/pkg/logging"
)

// ExecutionStatus is the outcome of a tracked action.
type ExecutionStatus string

const (
	ExecutionInProgress ExecutionStatus = "inprogress"
	ExecutionCompleted  ExecutionStatus = "completed"
	// ExecutionAborted is a run stopped by a failed precondition.
	ExecutionAborted ExecutionStatus = "aborted"
	ExecutionFailed  ExecutionStatus = "failed"
	// ExecutionSkipped is a run rejected by a busy guard.
	ExecutionSkipped ExecutionStatus = "skipped"
)

// Execution is the record of one dispatched action.
type Execution struct {
	ID          string          `json:"id" yaml:"id"`
	Action      string          `json:"action" yaml:"action"`
	Args        []string        `json:"args" yaml:"args"`
	Status      ExecutionStatus `json:"status" yaml:"status"`
	StartedAt   time.Time       `json:"startedAt" yaml:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	DurationMs  int64           `json:"durationMs" yaml:"durationMs"`
	Error       string          `json:"error,omitempty" yaml:"error,omitempty"`
}

// DefaultHistorySize is the number of executions a History keeps.
const DefaultHistorySize = 100

// History keeps the most recent executions in memory, newest last.
type History struct {
	mu      sync.RWMutex
	limit   int
	records []*Execution
}

// NewHistory creates a history holding up to limit records.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit}
}

// Track records the execution of fn. fn reports whether it ran at all, as
// guard.Guard.Do does.
func (h *History) Track(action string, args []string, fn func() (ran bool, err error)) (Execution, error) {
	exec := &Execution{
		ID:        uuid.New().String(),
		Action:    action,
		Args:      slices.Clone(args),
		Status:    ExecutionInProgress,
		StartedAt: time.Now(),
	}
	h.store(exec)
	logging.Debug("History", "Tracking %s (execution: %s)", action, exec.ID)

	ran, err := fn()

	h.mu.Lock()
	end := time.Now()
	exec.CompletedAt = &end
	exec.DurationMs = end.Sub(exec.StartedAt).Milliseconds()
	switch {
	case !ran:
		exec.Status = ExecutionSkipped
	case errors.Is(err, ErrPrecondition):
		exec.Status = ExecutionAborted
		exec.Error = err.Error()
	case err != nil:
		exec.Status = ExecutionFailed
		exec.Error = err.Error()
	default:
		exec.Status = ExecutionCompleted
	}
	out := *exec
	h.mu.Unlock()

	logging.Debug("History", "Execution %s of %s %s in %dms", out.ID, action, out.Status, out.DurationMs)
	return out, err
}

func (h *History) store(exec *Execution) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, exec)
	if over := len(h.records) - h.limit; over > 0 {
		h.records = slices.Delete(h.records, 0, over)
	}
}

// List returns copies of the recorded executions, oldest first.
func (h *History) List() []Execution {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Execution, len(h.records))
	for i, r := range h.records {
		out[i] = *r
	}
	return out
}

// Get returns the execution with id.
func (h *History) Get(id string) (Execution, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, r := range h.records {
		if r.ID == id {
			return *r, true
		}
	}
	return Execution{}, false
}
