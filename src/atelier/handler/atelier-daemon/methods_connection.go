package atelierdaemon

import (
	"context"

	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.lsp.dev/jsonrpc2"
)

func (r *jsonRPCRouter) DidChangeConfiguration(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToDidChangeConfigurationParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.connections.UpdateSettings(ctx, params.Settings)
	return reply(ctx, nil, err)
}

func (r *jsonRPCRouter) ServerInfo(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToConnectionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	client, err := r.connections.Client(ctx, params.Connection)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := client.ServerInfo(ctx)
	return reply(ctx, result, err)
}

func (r *jsonRPCRouter) Disconnect(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToConnectionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.connections.Disconnect(ctx, params.Connection)
	return reply(ctx, nil, err)
}

// Status returns the status of the session used by a connection, or of every session when no connection is named.
// Editors call it once after connecting, since status changes are only pushed when they happen.
func (r *jsonRPCRouter) Status(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToConnectionParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	if params.Connection == "" {
		return reply(ctx, mapper.StatusResult{Statuses: r.status.All()}, nil)
	}

	spec, err := r.connections.Spec(params.Connection)
	if err != nil {
		return reply(ctx, nil, err)
	}
	s := r.status.Get(spec.SessionKey().String())
	return reply(ctx, mapper.StatusResult{Statuses: []entity.ConnectionStatus{s}}, nil)
}
