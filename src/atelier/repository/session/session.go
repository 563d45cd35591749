// Package session keeps one Atelier session per (host, port, namespace).
package session

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/atelier"
	"github.com/uber/atelier-sync/src/atelier/gateway/transport"
	"github.com/uber/atelier-sync/src/atelier/model"
	"go.uber.org/fx"
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Repository is the Session registry. Sessions are created lazily and torn down on configuration change or disconnect.
type Repository interface {
	// Get returns the client of the session for spec, creating the session on first use.
	Get(ctx context.Context, spec entity.ConnectionSpec) (atelier.Client, error)
	Delete(ctx context.Context, key entity.SessionKey) error
	// Reset tears down every session.
	Reset(ctx context.Context) error
	SessionCount(ctx context.Context) (int, error)
	Keys(ctx context.Context) ([]entity.SessionKey, error)
}

type repository struct {
	mu       sync.Mutex
	memstore map[entity.SessionKey]*model.Session
	factory  transport.Factory
	stats    tally.Scope
}

// New returns a repository to an in-memory Session store.
func New(factory transport.Factory, stats tally.Scope) Repository {
	return &repository{
		memstore: make(map[entity.SessionKey]*model.Session),
		factory:  factory,
		stats:    stats,
	}
}

func (r *repository) Get(ctx context.Context, spec entity.ConnectionSpec) (atelier.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := spec.SessionKey()
	if s, ok := r.memstore[key]; ok {
		if sameTransport(s.Spec, spec) {
			return s.Client, nil
		}
		// Credentials or addressing changed; the old cookies belong to another login.
		s.Transport.Close()
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	t := r.factory.NewSession(spec)
	s := &model.Session{
		UUID:      id,
		Spec:      spec,
		Transport: t,
		Client:    atelier.New(t),
		CreatedAt: time.Now(),
	}
	r.memstore[key] = s
	r.updateGauge()
	return s.Client, nil
}

func (r *repository) Delete(ctx context.Context, key entity.SessionKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.memstore[key]; ok {
		s.Transport.Close()
		delete(r.memstore, key)
	}
	r.updateGauge()
	return nil
}

func (r *repository) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key, s := range r.memstore {
		s.Transport.Close()
		delete(r.memstore, key)
	}
	r.updateGauge()
	return nil
}

// SessionCount returns the total count of active sessions.
func (r *repository) SessionCount(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.memstore), nil
}

// Keys returns the keys of every active session in a stable order.
func (r *repository) Keys(ctx context.Context) ([]entity.SessionKey, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := make([]entity.SessionKey, 0, len(r.memstore))
	for k := range r.memstore {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys, nil
}

func (r *repository) updateGauge() {
	r.stats.Gauge("active_connections").Update(float64(len(r.memstore)))
}

func sameTransport(a, b entity.ConnectionSpec) bool {
	return strings.EqualFold(a.Host, b.Host) &&
		a.Port == b.Port &&
		a.PathPrefix == b.PathPrefix &&
		a.HTTPS == b.HTTPS &&
		a.Username == b.Username &&
		a.Password == b.Password &&
		a.APIVersion == b.APIVersion
}
