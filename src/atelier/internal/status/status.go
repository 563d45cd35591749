// Package status keeps the long lived connection state shown by the editor's status indicator.
package status

import (
	"sort"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Listener receives every change of a connection status.
type Listener func(status entity.ConnectionStatus)

// Tracker records the latest state of each session and notifies listeners when it changes.
// Connection failures are reported here rather than as one-off messages, since connection state is long lived.
type Tracker interface {
	Update(session string, state entity.ConnectionState, message string)
	Get(session string) entity.ConnectionStatus
	All() []entity.ConnectionStatus
	Subscribe(listener Listener) (unsubscribe func())
}

type tracker struct {
	logger *zap.SugaredLogger

	mu        sync.Mutex
	statuses  map[string]entity.ConnectionStatus
	listeners map[uuid.UUID]Listener
}

// New creates a Tracker.
func New(logger *zap.SugaredLogger) Tracker {
	return &tracker{
		logger:    logger.With("plugin", "status"),
		statuses:  make(map[string]entity.ConnectionStatus),
		listeners: make(map[uuid.UUID]Listener),
	}
}

// Update stores the state of a session. Listeners are only called when the state or message changed.
func (t *tracker) Update(session string, state entity.ConnectionState, message string) {
	next := entity.ConnectionStatus{Session: session, State: state, Message: message}

	t.mu.Lock()
	if prev, ok := t.statuses[session]; ok && prev == next {
		t.mu.Unlock()
		return
	}
	t.statuses[session] = next
	listeners := make([]Listener, 0, len(t.listeners))
	for _, l := range t.listeners {
		listeners = append(listeners, l)
	}
	t.mu.Unlock()

	if state == entity.ConnectionStateError || state == entity.ConnectionStateUnauthorized {
		t.logger.Warnw("connection state changed", "session", session, "state", state, "message", message)
	} else {
		t.logger.Debugw("connection state changed", "session", session, "state", state)
	}

	for _, l := range listeners {
		l(next)
	}
}

// Get returns the latest status of a session, or UNKNOWN if nothing was recorded.
func (t *tracker) Get(session string) entity.ConnectionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s, ok := t.statuses[session]; ok {
		return s
	}
	return entity.ConnectionStatus{Session: session, State: entity.ConnectionStateUnknown}
}

// All returns the status of every known session, sorted by session.
func (t *tracker) All() []entity.ConnectionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	all := make([]entity.ConnectionStatus, 0, len(t.statuses))
	for _, s := range t.statuses {
		all = append(all, s)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Session < all[j].Session })
	return all
}

// Subscribe registers a listener until the returned function is called.
func (t *tracker) Subscribe(listener Listener) func() {
	id := uuid.Must(uuid.NewV4())

	t.mu.Lock()
	t.listeners[id] = listener
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
	}
}
