package atelierdaemon

import (
	"context"

	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.lsp.dev/jsonrpc2"
)

func (r *jsonRPCRouter) Stat(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToURIParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	result, err := r.vfs.Stat(ctx, params.URI)
	return reply(ctx, result, err)
}

func (r *jsonRPCRouter) ReadFile(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToURIParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	content, err := r.vfs.ReadFile(ctx, params.URI)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, mapper.ReadFileResult{Content: content}, nil)
}

func (r *jsonRPCRouter) ReadDirectory(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToURIParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	entries, err := r.vfs.ReadDirectory(ctx, params.URI)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, mapper.ReadDirectoryResult{Entries: entries}, nil)
}

func (r *jsonRPCRouter) RefreshDirectory(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToURIParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	err = r.vfs.Refresh(params.URI)
	return reply(ctx, nil, err)
}

func (r *jsonRPCRouter) FileSearch(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToFileSearchParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	uris, err := r.vfs.FileSearch(ctx, params.URI, params.Pattern, params.MaxResults)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, mapper.FileSearchResult{URIs: uris}, nil)
}

func (r *jsonRPCRouter) TextSearch(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToTextSearchParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	matches, err := r.vfs.TextSearch(ctx, params.URI, params.SearchParams)
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, mapper.TextSearchResult{Matches: matches}, nil)
}
