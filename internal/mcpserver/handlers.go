package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"odootest/internal/lens"
	"odootest/internal/session"
	"odootest/pkg/logging"
)

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleLenses(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	file, err := request.RequireString("file")
	if err != nil {
		return mcp.NewToolResultError("file argument is required"), nil
	}
	lenses, err := s.lenses.File(ctx, file)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to compute lenses: %v", err)), nil
	}
	if lenses == nil {
		lenses = []lens.Lens{}
	}
	return jsonResult(map[string]any{
		"file":     file,
		"revision": s.d.State().Revision(),
		"lenses":   lenses,
	})
}

// stringArgs reads an optional array of strings.
func stringArgs(request mcp.CallToolRequest, name string) ([]string, error) {
	raw, ok := request.GetArguments()[name]
	if !ok || raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings", name)
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		str, ok := it.(string)
		if !ok {
			return nil, fmt.Errorf("%s must be an array of strings", name)
		}
		out = append(out, str)
	}
	return out, nil
}

func (s *Server) handleDispatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	action, err := request.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError("action argument is required"), nil
	}
	args, err := stringArgs(request, "args")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if action == session.ActionStartHotTest {
		return s.startBackground(action, args)
	}

	exec, err := s.d.Dispatch(ctx, action, args)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Action failed: %v", err)), nil
	}
	return jsonResult(exec)
}

// startBackground dispatches an action that blocks until the application
// exits. It runs on the serve context so the tool call answers at once.
func (s *Server) startBackground(action string, args []string) (*mcp.CallToolResult, error) {
	if _, ok := session.Lookup(action); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Action failed: %v", &session.UnknownActionError{Action: action})), nil
	}
	ctx := s.serveContext()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.d.Dispatch(ctx, action, args); err != nil {
			logging.Error(subsystem, err, "%s ended", action)
		}
	}()
	return mcp.NewToolResultText(fmt.Sprintf("%s started", action)), nil
}

func (s *Server) handleState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := map[string]any{
		"state": s.d.State().Snapshot(),
		"busy":  s.d.Busy(),
	}
	if last, ok := s.d.LastInvocation(); ok {
		out["lastInvocation"] = last
	}
	return jsonResult(out)
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	execs := s.d.History().List()
	if limit := request.GetInt("limit", 0); limit > 0 && limit < len(execs) {
		execs = execs[len(execs)-limit:]
	}
	return jsonResult(execs)
}

func (s *Server) handleActions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(session.Actions())
}

func (s *Server) handleCheckConfig(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.cfg == nil {
		return mcp.NewToolResultError("configuration is not available"), nil
	}
	errs := s.cfg.Check()
	problems := make([]map[string]any, 0, len(errs))
	for _, e := range errs {
		problems = append(problems, map[string]any{
			"key":     string(e.Field),
			"message": e.Message,
		})
	}
	return jsonResult(map[string]any{
		"valid":    !errs.HasErrors(),
		"problems": problems,
	})
}
