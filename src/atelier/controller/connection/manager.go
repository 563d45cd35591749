package connection

import (
	"context"
	"fmt"

	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/atelier"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/repository/session"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const _configKeySettings = "atelier"

// Module is the Fx module for this package.
var Module = fx.Provide(NewManager)

//go:generate mockgen -source=manager.go -destination=connectionmock/manager_mock.go -package=connectionmock

// Manager hands out the Atelier client for a workspace key and owns the connection settings.
type Manager interface {
	// Client resolves key and returns the client of the matching session, creating it on first use.
	Client(ctx context.Context, key string) (atelier.Client, error)
	// Spec resolves key without creating a session.
	Spec(key string) (entity.ConnectionSpec, error)
	// UpdateSettings replaces the settings and tears down every session, so the next request uses the new values.
	UpdateSettings(ctx context.Context, settings entity.ConnectionSettings) error
	// Disconnect tears down the session used by key.
	Disconnect(ctx context.Context, key string) error
}

// Params are inbound parameters to initialize a Manager.
type Params struct {
	fx.In

	Config   config.Provider
	Logger   *zap.SugaredLogger
	Sessions session.Repository
}

type manager struct {
	resolver *Resolver
	sessions session.Repository
	logger   *zap.SugaredLogger
}

// NewManager creates a Manager seeded with the atelier block of the daemon config.
func NewManager(p Params) (Manager, error) {
	var initial Settings
	if err := p.Config.Get(_configKeySettings).Populate(&initial); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeySettings, err)
	}

	return &manager{
		resolver: NewResolver(initial),
		sessions: p.Sessions,
		logger:   p.Logger.With("plugin", "connection"),
	}, nil
}

func (m *manager) Client(ctx context.Context, key string) (atelier.Client, error) {
	spec, err := m.Spec(key)
	if err != nil {
		return nil, err
	}
	if !spec.Active {
		return nil, &errors.ConfigError{Key: key, Reason: "connection is not active"}
	}
	return m.sessions.Get(ctx, spec)
}

func (m *manager) Spec(key string) (entity.ConnectionSpec, error) {
	return m.resolver.Resolve(key)
}

func (m *manager) UpdateSettings(ctx context.Context, settings entity.ConnectionSettings) error {
	m.resolver.Update(settings)
	if err := m.sessions.Reset(ctx); err != nil {
		return err
	}
	m.logger.Infow("connection settings updated", "folders", len(settings.Folders), "servers", len(settings.Servers))
	return nil
}

func (m *manager) Disconnect(ctx context.Context, key string) error {
	spec, err := m.Spec(key)
	if err != nil {
		return err
	}
	m.logger.Infow("disconnecting", "session", spec.SessionKey().String())
	return m.sessions.Delete(ctx, spec.SessionKey())
}
