package editorclient

//go:generate mockgen -source=editor_client.go -destination=editorclientmock/editor_client_mock.go -package=editorclientmock

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/fx"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// MethodConnectionStatus is the notification sent to every editor when the state of a session changes.
const MethodConnectionStatus = "atelier/connectionStatus"

const _errSendToClient = "sending notification to editor: %w"

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Gateway is used to send outbound notifications to the editors connected to the daemon.
// Calls tied to a request expect a context carrying the editor UUID, which routes them to the editor that made the request.
type Gateway interface {
	// RegisterClient registers a new editor connection. Should be called each time a connection is accepted.
	RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error
	// DeregisterClient removes an editor connection. Should be called each time a connection is closed.
	DeregisterClient(ctx context.Context, id uuid.UUID) error

	// ShowMessage pops up a message in the requesting editor.
	ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error

	// ConnectionStatus sends the status to every registered editor.
	ConnectionStatus(ctx context.Context, status entity.ConnectionStatus) error

	// GetLogMessageWriter returns an io.Writer that sends each write to the output channel of the requesting editor.
	// Do not store or use across requests, get a new one each time as needed.
	GetLogMessageWriter(ctx context.Context, prefix string) (io.Writer, error)
}

type gateway struct {
	clients     map[uuid.UUID]protocol.Client
	connections map[uuid.UUID]jsonrpc2.Conn
	clientsMu   sync.Mutex
	logger      *zap.Logger
}

// New returns a Gateway for sending editor notifications.
func New(logger *zap.SugaredLogger) Gateway {
	return &gateway{
		clients:     make(map[uuid.UUID]protocol.Client),
		connections: make(map[uuid.UUID]jsonrpc2.Conn),
		logger:      logger.Desugar(),
	}
}

func (g *gateway) RegisterClient(ctx context.Context, id uuid.UUID, conn *jsonrpc2.Conn) error {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	g.clients[id] = protocol.ClientDispatcher(*conn, g.logger)
	g.connections[id] = *conn
	return nil
}

func (g *gateway) DeregisterClient(ctx context.Context, id uuid.UUID) error {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	delete(g.clients, id)
	delete(g.connections, id)
	return nil
}

func (g *gateway) ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error {
	c, err := g.getClient(ctx)
	if err != nil {
		return fmt.Errorf(_errSendToClient, err)
	}
	return c.ShowMessage(ctx, params)
}

func (g *gateway) ConnectionStatus(ctx context.Context, status entity.ConnectionStatus) error {
	var errs error
	for _, conn := range g.allConnections() {
		errs = multierr.Append(errs, conn.Notify(ctx, MethodConnectionStatus, status))
	}
	if errs != nil {
		return fmt.Errorf(_errSendToClient, errs)
	}
	return nil
}

// allConnections returns the registered connections ordered by id, so that notifications go out in a stable order.
func (g *gateway) allConnections() []jsonrpc2.Conn {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	ids := make([]uuid.UUID, 0, len(g.connections))
	for id := range g.connections {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	conns := make([]jsonrpc2.Conn, 0, len(ids))
	for _, id := range ids {
		conns = append(conns, g.connections[id])
	}
	return conns
}

func (g *gateway) getClient(ctx context.Context) (protocol.Client, error) {
	g.clientsMu.Lock()
	defer g.clientsMu.Unlock()

	id, err := mapper.ContextToEditorUUID(ctx)
	if err != nil {
		return nil, err
	}

	client, ok := g.clients[id]
	if !ok {
		return nil, fmt.Errorf("client with id %q not found", id)
	}
	return client, nil
}

// logMessageWriter implements io.Writer to send output to the editor where an io.Writer is required.
type logMessageWriter struct {
	client protocol.Client
	ctx    context.Context
	prefix string
}

func (g *gateway) GetLogMessageWriter(ctx context.Context, prefix string) (io.Writer, error) {
	c, err := g.getClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting editor log message writer: %w", err)
	}
	return &logMessageWriter{
		client: c,
		ctx:    ctx,
		prefix: prefix,
	}, nil
}

func (w *logMessageWriter) Write(p []byte) (n int, err error) {
	str := strings.TrimSuffix(string(p), "\n")
	if err := w.client.LogMessage(w.ctx, &protocol.LogMessageParams{
		Message: fmt.Sprintf("[%s] %s", w.prefix, str),
		Type:    protocol.MessageTypeLog,
	}); err != nil {
		return 0, fmt.Errorf("writing to editor log message writer: %w", err)
	}
	return len(p), nil
}
