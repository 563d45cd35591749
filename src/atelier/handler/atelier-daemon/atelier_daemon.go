// Package atelierdaemon serves the editor-facing JSON-RPC API of the atelier daemon.
package atelierdaemon

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/controller/connection"
	docsync "github.com/uber/atelier-sync/src/atelier/controller/doc-sync"
	localwatch "github.com/uber/atelier-sync/src/atelier/controller/local-watch"
	"github.com/uber/atelier-sync/src/atelier/controller/vfs"
	"github.com/uber/atelier-sync/src/atelier/entity"
	editorclient "github.com/uber/atelier-sync/src/atelier/gateway/editor-client"
	"github.com/uber/atelier-sync/src/atelier/internal/jsonrpcfx"
	"github.com/uber/atelier-sync/src/atelier/internal/status"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handler tracks the connected editors and hands each one a Router.
type Handler interface {
	jsonrpcfx.ConnectionManager
	// ConnectionCount returns the number of connected editors.
	ConnectionCount() int
}

// Params are inbound parameters to initialize a Handler.
type Params struct {
	fx.In

	Lifecycle   fx.Lifecycle
	Logger      *zap.SugaredLogger
	Stats       tally.Scope
	JSONRPC     jsonrpcfx.JSONRPCModule
	Status      status.Tracker
	Connections connection.Manager
	Editors     editorclient.Gateway
	VFS         vfs.Controller
	DocSync     docsync.Controller
	LocalWatch  localwatch.Controller
}

type handler struct {
	logger      *zap.SugaredLogger
	stats       tally.Scope
	connections connection.Manager
	status      status.Tracker
	editors     editorclient.Gateway
	vfs         vfs.Controller
	docSync     docsync.Controller
	localWatch  localwatch.Controller

	mu      sync.Mutex
	routers map[uuid.UUID]*jsonRPCRouter
}

// New constructs a Handler, registers it with the JSON-RPC module and forwards connection status changes to every editor.
func New(p Params) (Handler, error) {
	h := &handler{
		logger:      p.Logger.With("plugin", "atelier-daemon"),
		stats:       p.Stats.SubScope("json_rpc"),
		connections: p.Connections,
		status:      p.Status,
		editors:     p.Editors,
		vfs:         p.VFS,
		docSync:     p.DocSync,
		localWatch:  p.LocalWatch,
		routers:     make(map[uuid.UUID]*jsonRPCRouter),
	}

	if err := p.JSONRPC.RegisterConnectionManager(h); err != nil {
		return nil, err
	}

	unsubscribe := p.Status.Subscribe(h.broadcastStatus)
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			unsubscribe()
			return nil
		},
	})

	return h, nil
}

// NewConnection registers the editor with the editor gateway and returns a router for its requests.
func (h *handler) NewConnection(ctx context.Context, conn *jsonrpc2.Conn) (jsonrpcfx.Router, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("generating editor id: %w", err)
	}

	if err := h.editors.RegisterClient(ctx, id, conn); err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}

	r := &jsonRPCRouter{
		uuid:        id,
		logger:      h.logger.With("editor", id.String()),
		stats:       h.stats,
		connections: h.connections,
		status:      h.status,
		vfs:         h.vfs,
		docSync:     h.docSync,
		localWatch:  h.localWatch,
		inflight:    make(map[jsonrpc2.ID]context.CancelFunc),
	}

	h.mu.Lock()
	h.routers[id] = r
	h.mu.Unlock()
	h.stats.Gauge("editors").Update(float64(h.ConnectionCount()))

	return r, nil
}

// RemoveConnection cancels the requests still running for a closed connection and forgets the editor.
func (h *handler) RemoveConnection(ctx context.Context, id uuid.UUID) {
	h.mu.Lock()
	r, ok := h.routers[id]
	delete(h.routers, id)
	h.mu.Unlock()

	if ok {
		r.cancelAll()
	}
	if err := h.editors.DeregisterClient(ctx, id); err != nil {
		h.logger.Warnw("deregistering editor", "editor", id.String(), zap.Error(err))
	}
	h.stats.Gauge("editors").Update(float64(h.ConnectionCount()))
}

func (h *handler) ConnectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.routers)
}

func (h *handler) broadcastStatus(s entity.ConnectionStatus) {
	if err := h.editors.ConnectionStatus(context.Background(), s); err != nil {
		h.logger.Warnw("sending connection status", "session", s.Session, zap.Error(err))
	}
}
