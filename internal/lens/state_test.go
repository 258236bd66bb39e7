package lens

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

var layout = [][]string{{"run", "cleanup"}, {"updateRun"}, {"runDump", "dump"}}

func TestSwitchRunModeCycles(t *testing.T) {
	s := NewUIState(layout)
	assert.Equal(t, RunModeStandard, s.RunMode())
	assert.Equal(t, RunModeUpdate, s.SwitchRunMode())
	assert.Equal(t, RunModeDump, s.SwitchRunMode())
	assert.Equal(t, RunModeStandard, s.SwitchRunMode())
}

func TestButtonLayers(t *testing.T) {
	s := NewUIState(layout)
	assert.Equal(t, 3, s.Layers())
	assert.Equal(t, []string{"run", "cleanup"}, s.Buttons())

	assert.Equal(t, 1, s.SwitchButtonLayer())
	assert.Equal(t, 2, s.SwitchButtonLayer())
	assert.Equal(t, 0, s.SwitchButtonLayer())

	assert.Equal(t, 1, s.SetButtonLayer(4))
	assert.Equal(t, 2, s.SetButtonLayer(-1))
	assert.Equal(t, []string{"runDump", "dump"}, s.Buttons())

	s.SetLayout([][]string{{"dump"}})
	assert.Equal(t, 0, s.Snapshot().Layer)
	assert.Equal(t, []string{"dump"}, s.Buttons())
}

func TestButtonsAreCopied(t *testing.T) {
	l := [][]string{{"run"}}
	s := NewUIState(l)
	l[0][0] = "dump"
	b := s.Buttons()
	b[0] = "cleanup"
	assert.Equal(t, []string{"run"}, s.Buttons())
}

func TestLogSQLFollowsHotTest(t *testing.T) {
	s := NewUIState(layout)

	assert.False(t, s.ToggleLogSQL(), "SQL logging needs hot test mode")
	assert.False(t, s.LogSQL())

	s.SetHotTest(true)
	assert.True(t, s.HotTest())
	assert.True(t, s.ToggleLogSQL())
	assert.False(t, s.ToggleLogSQL())
	assert.True(t, s.ToggleLogSQL())

	s.SetHotTest(false)
	assert.False(t, s.LogSQL())
	s.SetHotTest(true)
	assert.False(t, s.LogSQL(), "re-entering hot test mode starts with SQL logging off")
}

func TestOnChangeSeesEveryTransition(t *testing.T) {
	s := NewUIState(layout)
	var (
		mu   sync.Mutex
		seen []State
	)
	s.OnChange(func(st State) {
		// listeners may read the state back
		_ = s.Snapshot()
		mu.Lock()
		seen = append(seen, st)
		mu.Unlock()
	})

	s.SwitchRunMode()
	s.SwitchButtonLayer()
	s.SetHotTest(true)

	mu.Lock()
	defer mu.Unlock()
	if assert.Len(t, seen, 3) {
		assert.Equal(t, uint64(1), seen[0].Revision)
		assert.Equal(t, RunModeUpdate, seen[0].RunMode)
		assert.Equal(t, 1, seen[1].Layer)
		assert.True(t, seen[2].HotTest)
	}
	assert.Equal(t, uint64(3), s.Revision())
}
