package lens

import (
	"slices"
	"sync"
)

// RunMode selects the run lens of the run-mode style.
type RunMode string

const (
	RunModeStandard RunMode = "standard"
	RunModeUpdate   RunMode = "update"
	RunModeDump     RunMode = "dump"
)

var nextRunMode = map[RunMode]RunMode{
	RunModeStandard: RunModeUpdate,
	RunModeUpdate:   RunModeDump,
	RunModeDump:     RunModeStandard,
}

// State is a snapshot of UIState.
type State struct {
	RunMode  RunMode  `json:"runMode" yaml:"runMode"`
	Layer    int      `json:"layer" yaml:"layer"`
	Buttons  []string `json:"buttons" yaml:"buttons"`
	HotTest  bool     `json:"hotTest" yaml:"hotTest"`
	LogSQL   bool     `json:"logSql" yaml:"logSql"`
	Revision uint64   `json:"revision" yaml:"revision"`
}

// UIState holds the toggles the annotations are rendered from. It is only
// changed through its transition methods; every transition bumps the
// revision and notifies the listeners. SQL logging is never on while hot
// test mode is off.
type UIState struct {
	mu       sync.Mutex
	runMode  RunMode
	layout   [][]string
	layer    int
	hot      bool
	logSQL   bool
	revision uint64
	onChange []func(State)
}

// NewUIState creates the state for a button layout, starting on layer 0
// in the standard run mode.
func NewUIState(layout [][]string) *UIState {
	return &UIState{runMode: RunModeStandard, layout: cloneLayout(layout)}
}

func cloneLayout(layout [][]string) [][]string {
	out := make([][]string, len(layout))
	for i, l := range layout {
		out[i] = slices.Clone(l)
	}
	return out
}

// OnChange registers fn to run after every transition.
func (s *UIState) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// changed must be called with s.mu held. It returns the listeners to call
// and the snapshot to pass them once the lock is released.
func (s *UIState) changed() ([]func(State), State) {
	s.revision++
	return slices.Clone(s.onChange), s.snapshot()
}

func (s *UIState) transition(fn func()) {
	s.mu.Lock()
	fn()
	listeners, st := s.changed()
	s.mu.Unlock()
	for _, l := range listeners {
		l(st)
	}
}

func (s *UIState) snapshot() State {
	var buttons []string
	if s.layer < len(s.layout) {
		buttons = slices.Clone(s.layout[s.layer])
	}
	return State{
		RunMode:  s.runMode,
		Layer:    s.layer,
		Buttons:  buttons,
		HotTest:  s.hot,
		LogSQL:   s.logSQL,
		Revision: s.revision,
	}
}

// Snapshot returns the current state.
func (s *UIState) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Revision counts the transitions so far.
func (s *UIState) Revision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.revision
}

// RunMode returns the current run mode.
func (s *UIState) RunMode() RunMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runMode
}

// SwitchRunMode cycles standard → update → dump → standard.
func (s *UIState) SwitchRunMode() RunMode {
	var mode RunMode
	s.transition(func() {
		s.runMode = nextRunMode[s.runMode]
		mode = s.runMode
	})
	return mode
}

// Buttons returns the buttons of the current layer.
func (s *UIState) Buttons() []string {
	return s.Snapshot().Buttons
}

// Layers returns the number of button layers.
func (s *UIState) Layers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.layout)
}

// SwitchButtonLayer moves to the next layer, wrapping around.
func (s *UIState) SwitchButtonLayer() int {
	var layer int
	s.transition(func() {
		if len(s.layout) > 0 {
			s.layer = (s.layer + 1) % len(s.layout)
		}
		layer = s.layer
	})
	return layer
}

// SetButtonLayer moves to layer modulo the number of layers.
func (s *UIState) SetButtonLayer(layer int) int {
	var out int
	s.transition(func() {
		if n := len(s.layout); n > 0 {
			s.layer = ((layer % n) + n) % n
		}
		out = s.layer
	})
	return out
}

// Layout returns a copy of the button layout.
func (s *UIState) Layout() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneLayout(s.layout)
}

// SetLayout replaces the button layout and returns to layer 0.
func (s *UIState) SetLayout(layout [][]string) {
	s.transition(func() {
		s.layout = cloneLayout(layout)
		s.layer = 0
	})
}

// HotTest reports whether hot test mode is on.
func (s *UIState) HotTest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hot
}

// SetHotTest turns hot test mode on or off. SQL logging is reset either way.
func (s *UIState) SetHotTest(on bool) {
	s.transition(func() {
		s.hot = on
		s.logSQL = false
	})
}

// LogSQL reports whether the hot test session logs SQL.
func (s *UIState) LogSQL() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logSQL
}

// ToggleLogSQL flips SQL logging and returns the new value. It stays off
// while hot test mode is off.
func (s *UIState) ToggleLogSQL() bool {
	var on bool
	s.transition(func() {
		s.logSQL = s.hot && !s.logSQL
		on = s.logSQL
	})
	return on
}
