package mcpserver

import (
	"context"
	"io"
	"os"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"odootest/internal/config"
	"odootest/internal/lens"
	"odootest/internal/session"
	"odootest/internal/workflow"
	"odootest/pkg/logging"
)

const subsystem = "MCPServer"

// LensesChangedMethod is the notification sent after every state transition.
const LensesChangedMethod = "notifications/odoo-test/lensesChanged"

// Dispatcher is the session the tools act on.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string, args []string) (workflow.Execution, error)
	LastInvocation() (session.Invocation, bool)
	History() *workflow.History
	State() *lens.UIState
	Busy() map[string]bool
}

// LensSource returns the lenses of a file.
type LensSource interface {
	File(ctx context.Context, path string) ([]lens.Lens, error)
}

// Checker validates the effective configuration.
type Checker interface {
	Check() config.ValidationErrors
}

// Options configures a Server.
type Options struct {
	Name       string
	Version    string
	Dispatcher Dispatcher
	Lenses     LensSource
	Config     Checker
	// Notifier, when set, is bound to the server so that the session's
	// notifications reach the editors.
	Notifier *Notifier
}

// Server is the stdio MCP server of one session.
type Server struct {
	d      Dispatcher
	lenses LensSource
	cfg    Checker
	mcp    *server.MCPServer

	// ctx outlives single tool calls; background actions run on it
	mu  sync.Mutex
	ctx context.Context
	wg  sync.WaitGroup
}

// New creates the server and registers its tools.
func New(o Options) *Server {
	name := o.Name
	if name == "" {
		name = "odoo-test"
	}
	s := &Server{
		d:      o.Dispatcher,
		lenses: o.Lenses,
		cfg:    o.Config,
		ctx:    context.Background(),
		mcp: server.NewMCPServer(
			name,
			o.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
			server.WithPromptCapabilities(false),
		),
	}
	s.registerTools()
	if o.Notifier != nil {
		o.Notifier.bind(s.mcp)
	}
	s.d.State().OnChange(s.notifyLensesChanged)
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve answers requests on stdin/stdout until ctx is done or stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	return s.Listen(ctx, os.Stdin, os.Stdout)
}

// Listen answers requests read from in on out. Background actions such as
// the hot test session are waited for before it returns.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	logging.Info(subsystem, "Serving on stdio")
	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	s.wg.Wait()
	logging.Info(subsystem, "Stopped serving")
	return err
}

func (s *Server) serveContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Server) notifyLensesChanged(st lens.State) {
	s.mcp.SendNotificationToAllClients(LensesChangedMethod, map[string]any{
		"revision": st.Revision,
		"runMode":  string(st.RunMode),
		"hotTest":  st.HotTest,
	})
	logging.Debug(subsystem, "Lenses changed (revision %d)", st.Revision)
}

func (s *Server) registerTools() {
	s.mcp.AddTool(mcp.NewTool("lenses",
		mcp.WithDescription("List the test annotations of a Python file with the action and arguments each one runs"),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Absolute path of the Python file"),
		),
	), s.handleLenses)

	s.mcp.AddTool(mcp.NewTool("dispatch",
		mcp.WithDescription("Run an action, e.g. the action of a lens"),
		mcp.WithString("action",
			mcp.Required(),
			mcp.Description("Action id, see the actions tool"),
		),
		mcp.WithArray("args",
			mcp.Description("Positional string arguments of the action"),
			mcp.WithStringItems(),
		),
	), s.handleDispatch)

	s.mcp.AddTool(mcp.NewTool("state",
		mcp.WithDescription("Show the run mode, button layer, hot test mode and busy guards"),
	), s.handleState)

	s.mcp.AddTool(mcp.NewTool("history",
		mcp.WithDescription("List the executions of this session, newest last"),
		mcp.WithNumber("limit",
			mcp.Description("Only return the last N executions"),
		),
	), s.handleHistory)

	s.mcp.AddTool(mcp.NewTool("actions",
		mcp.WithDescription("List the actions dispatch accepts"),
	), s.handleActions)

	s.mcp.AddTool(mcp.NewTool("check_config",
		mcp.WithDescription("Validate the effective configuration"),
	), s.handleCheckConfig)
}
