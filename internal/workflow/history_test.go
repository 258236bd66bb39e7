package workflow

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryTrack(t *testing.T) {
	h := NewHistory(10)

	tests := []struct {
		ran  bool
		err  error
		want ExecutionStatus
	}{
		{ran: true, want: ExecutionCompleted},
		{ran: false, want: ExecutionSkipped},
		{ran: true, err: abort("module sale is not installed"), want: ExecutionAborted},
		{ran: true, err: errors.New("dropdb: exit status 1"), want: ExecutionFailed},
	}
	for _, tt := range tests {
		exec, err := h.Track("runTest", []string{"sale", "TestSale"}, func() (bool, error) { return tt.ran, tt.err })
		assert.Equal(t, tt.err, err)
		assert.Equal(t, tt.want, exec.Status)
		assert.NotNil(t, exec.CompletedAt)
	}

	list := h.List()
	require.Len(t, list, 4)
	assert.Equal(t, ExecutionFailed, list[3].Status)
	assert.Equal(t, "dropdb: exit status 1", list[3].Error)

	got, ok := h.Get(list[0].ID)
	assert.True(t, ok)
	assert.Equal(t, []string{"sale", "TestSale"}, got.Args)
	_, ok = h.Get("missing")
	assert.False(t, ok)
}

func TestHistoryIsBounded(t *testing.T) {
	h := NewHistory(3)
	for i := range 5 {
		_, _ = h.Track(fmt.Sprintf("a%d", i), nil, func() (bool, error) { return true, nil })
	}

	list := h.List()
	require.Len(t, list, 3)
	assert.Equal(t, "a2", list[0].Action)
	assert.Equal(t, "a4", list[2].Action)
}
