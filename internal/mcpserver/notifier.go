package mcpserver

import (
	"slices"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"odootest/internal/notify"
	"odootest/pkg/logging"
)

// Notifier is a notify.Sink that forwards notifications to the connected
// editors as MCP log messages. Messages sent before a server is bound are
// only logged.
type Notifier struct {
	mu    sync.Mutex
	srv   *server.MCPServer
	muted []string
}

var _ notify.Sink = (*Notifier)(nil)

// NewNotifier creates a notifier dropping info messages of the muted topics.
func NewNotifier(muted []string) *Notifier {
	return &Notifier{muted: slices.Clone(muted)}
}

// SetMuted replaces the muted topic list.
func (n *Notifier) SetMuted(muted []string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.muted = slices.Clone(muted)
}

func (n *Notifier) bind(srv *server.MCPServer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.srv = srv
}

func (n *Notifier) Info(topic, message string) {
	n.mu.Lock()
	muted := slices.Contains(n.muted, topic)
	n.mu.Unlock()
	if muted {
		return
	}
	n.send(mcp.LoggingLevelInfo, topic, message)
}

func (n *Notifier) Warn(message string) {
	n.send(mcp.LoggingLevelWarning, notify.TopicGeneral, message)
}

func (n *Notifier) Error(message string) {
	n.send(mcp.LoggingLevelError, notify.TopicGeneral, message)
}

func (n *Notifier) send(level mcp.LoggingLevel, topic, message string) {
	n.mu.Lock()
	srv := n.srv
	n.mu.Unlock()
	if srv == nil {
		logging.Debug(subsystem, "Dropping %s notification: %s", level, message)
		return
	}
	srv.SendNotificationToAllClients("notifications/message", map[string]any{
		"level":  level,
		"logger": topic,
		"data":   message,
	})
}
