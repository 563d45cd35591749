package atelierdaemon

import (
	"context"

	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// Compile answers compile errors with the outcome rather than an error, so the editor can show them as diagnostics.
func (r *jsonRPCRouter) Compile(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToCompileRequest(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	outcome, err := r.docSync.CompileAndSync(ctx, *params)
	if outcome != nil {
		// The server copy may have changed, so a document kept by an earlier stat is stale.
		r.vfs.Forget(params.Name)
	}
	if errors.IsCompile(err) {
		return reply(ctx, outcome, nil)
	}
	if err != nil {
		return reply(ctx, nil, err)
	}
	return reply(ctx, outcome, nil)
}

// Export mirrors server documents below a local folder, which is then watched for edits when local watching is enabled.
func (r *jsonRPCRouter) Export(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToExportRequest(req)
	if err != nil {
		return reply(ctx, nil, err)
	}

	summary, err := r.docSync.Export(ctx, *params)
	// Documents that failed on their own are listed in the summary rather than failing the call.
	if summary == nil || ctx.Err() != nil {
		return reply(ctx, nil, err)
	}

	if r.localWatch.Enabled() {
		if err := r.localWatch.Watch(summary.Root, params.ConnectionKey, summary.AddCategory); err != nil {
			r.logger.Warnw("watching exported folder", "root", summary.Root, zap.Error(err))
		}
	}
	return reply(ctx, summary, nil)
}
