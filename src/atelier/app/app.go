package app

import (
	"context"
	"time"

	tally "github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/controller"
	"github.com/uber/atelier-sync/src/atelier/gateway"
	"github.com/uber/atelier-sync/src/atelier/handler"
	"github.com/uber/atelier-sync/src/atelier/internal/core"
	"github.com/uber/atelier-sync/src/atelier/internal/fs"
	"github.com/uber/atelier-sync/src/atelier/internal/jsonrpcfx"
	"github.com/uber/atelier-sync/src/atelier/internal/serverinfofile"
	"github.com/uber/atelier-sync/src/atelier/internal/status"
	"github.com/uber/atelier-sync/src/atelier/repository/session"
	"go.uber.org/fx"
)

// Module defines the atelier-daemon application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	controller.Module,
	session.Module,
	jsonrpcfx.Module,
	fs.Module,
	status.Module,
	serverinfofile.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(newRootScope),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvProduction,
			RuntimeEnvironment: EnvProduction,
		}
	}),
)

func newRootScope(lc fx.Lifecycle, env Context) tally.Scope {
	rs, closer := tally.NewRootScope(tally.ScopeOptions{
		Prefix: "atelier",
		Tags: map[string]string{
			"service": "atelier-daemon",
			"env":     env.Environment,
		},
	}, 1*time.Second)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return closer.Close()
		},
	})

	return rs
}
