package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"odootest/internal/config"
	"odootest/internal/lens"
	"odootest/internal/session"
	"odootest/internal/symbols"
	"odootest/internal/workflow"
)

type dispatched struct {
	id   string
	args []string
}

type fakeDispatcher struct {
	mu      sync.Mutex
	calls   []dispatched
	err     error
	state   *lens.UIState
	history *workflow.History
	last    *session.Invocation
}

func newFakeDispatcher() *fakeDispatcher {
	return &fakeDispatcher{
		state:   lens.NewUIState(config.GetDefaultConfig().StandardTestLayout),
		history: workflow.NewHistory(10),
	}
}

func (f *fakeDispatcher) Dispatch(_ context.Context, id string, args []string) (workflow.Execution, error) {
	f.mu.Lock()
	f.calls = append(f.calls, dispatched{id, args})
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return workflow.Execution{}, err
	}
	return f.history.Track(id, args, func() (bool, error) { return true, nil })
}

func (f *fakeDispatcher) Calls() []dispatched {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]dispatched(nil), f.calls...)
}

func (f *fakeDispatcher) LastInvocation() (session.Invocation, bool) {
	if f.last == nil {
		return session.Invocation{}, false
	}
	return *f.last, true
}

func (f *fakeDispatcher) History() *workflow.History { return f.history }
func (f *fakeDispatcher) State() *lens.UIState       { return f.state }
func (f *fakeDispatcher) Busy() map[string]bool {
	return map[string]bool{"run": false, "database": false}
}

type fakeLenses struct {
	lenses []lens.Lens
	err    error
	path   string
}

func (l *fakeLenses) File(_ context.Context, path string) ([]lens.Lens, error) {
	l.path = path
	return l.lenses, l.err
}

type fakeChecker config.ValidationErrors

func (c fakeChecker) Check() config.ValidationErrors { return config.ValidationErrors(c) }

func request(args map[string]any) mcp.CallToolRequest {
	var r mcp.CallToolRequest
	r.Params.Arguments = args
	return r
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	tc, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return tc.Text
}

func newTestServer(d *fakeDispatcher, l *fakeLenses, c Checker) *Server {
	return New(Options{Version: "test", Dispatcher: d, Lenses: l, Config: c})
}

func TestHandleLenses(t *testing.T) {
	d := newFakeDispatcher()
	l := &fakeLenses{lenses: []lens.Lens{{
		Range:  symbols.Range{Start: symbols.Position{Line: 4}},
		Title:  "Run",
		Icon:   "play",
		Action: lens.ActionRunTest,
		Args:   []string{"sale", "TestSale"},
	}}}
	s := newTestServer(d, l, nil)

	res, err := s.handleLenses(context.Background(), request(map[string]any{"file": "/ws/sale/tests/test_sale.py"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "/ws/sale/tests/test_sale.py", l.path)

	var out struct {
		File   string      `json:"file"`
		Lenses []lens.Lens `json:"lenses"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	require.Len(t, out.Lenses, 1)
	assert.Equal(t, lens.ActionRunTest, out.Lenses[0].Action)
	assert.Equal(t, []string{"sale", "TestSale"}, out.Lenses[0].Args)
}

func TestHandleLensesErrors(t *testing.T) {
	s := newTestServer(newFakeDispatcher(), &fakeLenses{err: errors.New("no such file")}, nil)

	res, err := s.handleLenses(context.Background(), request(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "file argument is required")

	res, err = s.handleLenses(context.Background(), request(map[string]any{"file": "/nope.py"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "no such file")
}

func TestHandleLensesEmptyIsArray(t *testing.T) {
	s := newTestServer(newFakeDispatcher(), &fakeLenses{}, nil)

	res, err := s.handleLenses(context.Background(), request(map[string]any{"file": "/ws/a.py"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"lenses": []`)
}

func TestHandleDispatch(t *testing.T) {
	d := newFakeDispatcher()
	s := newTestServer(d, &fakeLenses{}, nil)

	res, err := s.handleDispatch(context.Background(), request(map[string]any{
		"action": lens.ActionRunTest,
		"args":   []any{"sale", "TestSale", "test_confirm"},
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	calls := d.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, lens.ActionRunTest, calls[0].id)
	assert.Equal(t, []string{"sale", "TestSale", "test_confirm"}, calls[0].args)

	var exec workflow.Execution
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &exec))
	assert.Equal(t, workflow.ExecutionCompleted, exec.Status)
}

func TestHandleDispatchRejectsBadArgs(t *testing.T) {
	d := newFakeDispatcher()
	s := newTestServer(d, &fakeLenses{}, nil)

	res, err := s.handleDispatch(context.Background(), request(map[string]any{
		"action": lens.ActionRunTest,
		"args":   []any{"sale", 3},
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "array of strings")
	assert.Empty(t, d.Calls())

	res, err = s.handleDispatch(context.Background(), request(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleDispatchReportsFailure(t *testing.T) {
	d := newFakeDispatcher()
	d.err = &session.UnknownActionError{Action: "fly"}
	s := newTestServer(d, &fakeLenses{}, nil)

	res, err := s.handleDispatch(context.Background(), request(map[string]any{"action": "fly"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), `unknown action "fly"`)
}

func TestHandleDispatchStartsHotTestInBackground(t *testing.T) {
	d := newFakeDispatcher()
	s := newTestServer(d, &fakeLenses{}, nil)

	res, err := s.handleDispatch(context.Background(), request(map[string]any{"action": session.ActionStartHotTest}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "startHotTest started", resultText(t, res))

	s.wg.Wait()
	calls := d.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, session.ActionStartHotTest, calls[0].id)
}

func TestHandleState(t *testing.T) {
	d := newFakeDispatcher()
	d.last = &session.Invocation{Action: lens.ActionRunTest, Args: []string{"sale"}}
	d.state.SwitchRunMode()
	s := newTestServer(d, &fakeLenses{}, nil)

	res, err := s.handleState(context.Background(), request(nil))
	require.NoError(t, err)

	var out struct {
		State          lens.State         `json:"state"`
		Busy           map[string]bool    `json:"busy"`
		LastInvocation session.Invocation `json:"lastInvocation"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	assert.Equal(t, lens.RunModeUpdate, out.State.RunMode)
	assert.Contains(t, out.Busy, "run")
	assert.Equal(t, lens.ActionRunTest, out.LastInvocation.Action)
}

func TestHandleHistoryLimit(t *testing.T) {
	d := newFakeDispatcher()
	s := newTestServer(d, &fakeLenses{}, nil)
	for _, id := range []string{"a", "b", "c"} {
		_, _ = d.Dispatch(context.Background(), id, nil)
	}

	res, err := s.handleHistory(context.Background(), request(map[string]any{"limit": float64(2)}))
	require.NoError(t, err)

	var execs []workflow.Execution
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &execs))
	require.Len(t, execs, 2)
	assert.Equal(t, "b", execs[0].Action)
	assert.Equal(t, "c", execs[1].Action)
}

func TestHandleActions(t *testing.T) {
	s := newTestServer(newFakeDispatcher(), &fakeLenses{}, nil)

	res, err := s.handleActions(context.Background(), request(nil))
	require.NoError(t, err)

	var actions []session.Action
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &actions))
	assert.Len(t, actions, len(session.Actions()))
}

func TestHandleCheckConfig(t *testing.T) {
	var errs config.ValidationErrors
	errs.Add(config.KeyDatabaseName, "Database name cannot be empty")
	s := newTestServer(newFakeDispatcher(), &fakeLenses{}, fakeChecker(errs))

	res, err := s.handleCheckConfig(context.Background(), request(nil))
	require.NoError(t, err)
	text := resultText(t, res)
	assert.Contains(t, text, `"valid": false`)
	assert.Contains(t, text, "Database name cannot be empty")

	s = newTestServer(newFakeDispatcher(), &fakeLenses{}, nil)
	res, err = s.handleCheckConfig(context.Background(), request(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNotifierMutesTopics(t *testing.T) {
	n := NewNotifier([]string{"git"})
	s := New(Options{Dispatcher: newFakeDispatcher(), Lenses: &fakeLenses{}, Notifier: n})
	require.NotNil(t, s.MCPServer())

	// no client is connected; these must not block or panic
	n.Info("git", "Checking out")
	n.Info("test", "Running")
	n.Warn("careful")
	n.Error("broken")
	n.SetMuted(nil)
}
