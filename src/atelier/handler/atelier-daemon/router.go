package atelierdaemon

import (
	"context"
	stderr "errors"
	"sync"

	"github.com/gofrs/uuid"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/controller/connection"
	docsync "github.com/uber/atelier-sync/src/atelier/controller/doc-sync"
	localwatch "github.com/uber/atelier-sync/src/atelier/controller/local-watch"
	"github.com/uber/atelier-sync/src/atelier/controller/vfs"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/internal/status"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/zap"
)

// Methods of the editor-facing API.
const (
	MethodDidChangeConfiguration = "atelier/didChangeConfiguration"
	MethodServerInfo             = "atelier/serverInfo"
	MethodStat                   = "atelier/stat"
	MethodReadFile               = "atelier/readFile"
	MethodReadDirectory          = "atelier/readDirectory"
	MethodRefreshDirectory       = "atelier/refreshDirectory"
	MethodFileSearch             = "atelier/fileSearch"
	MethodTextSearch             = "atelier/textSearch"
	MethodCompile                = "atelier/compile"
	MethodExport                 = "atelier/export"
	MethodDisconnect             = "atelier/disconnect"
	MethodStatus                 = "atelier/status"
)

// _codeRequestCancelled is the LSP error code for a request cancelled by the client.
const _codeRequestCancelled jsonrpc2.Code = -32800

type jsonRPCRouter struct {
	uuid        uuid.UUID
	logger      *zap.SugaredLogger
	stats       tally.Scope
	connections connection.Manager
	status      status.Tracker
	vfs         vfs.Controller
	docSync     docsync.Controller
	localWatch  localwatch.Controller

	mu       sync.Mutex
	inflight map[jsonrpc2.ID]context.CancelFunc
	wg       sync.WaitGroup
}

// HandleReq handles routing for a single request.
// Calls run on their own goroutine so that a slow compile doesn't hold up the connection, and can be cancelled with $/cancelRequest.
func (r *jsonRPCRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ctx = context.WithValue(ctx, entity.EditorContextKey, r.uuid)

	if req.Method() == protocol.MethodCancelRequest {
		return r.CancelRequest(ctx, reply, req)
	}

	call, ok := req.(*jsonrpc2.Call)
	if !ok {
		return r.route(ctx, reply, req)
	}

	callCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.inflight[call.ID()] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.finish(call.ID())

		// The reply goes out on the connection context, since a cancelled request still gets an answer.
		if err := r.route(callCtx, replyOn(ctx, reply), req); err != nil {
			r.logger.Warnw("replying to editor", "method", req.Method(), zap.Error(err))
		}
	}()
	return nil
}

func (r *jsonRPCRouter) route(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	r.stats.Tagged(map[string]string{"method": req.Method()}).Counter("requests").Inc(1)

	switch req.Method() {
	// Connection related methods.
	case MethodDidChangeConfiguration:
		return r.DidChangeConfiguration(ctx, reply, req)

	case MethodServerInfo:
		return r.ServerInfo(ctx, reply, req)

	case MethodDisconnect:
		return r.Disconnect(ctx, reply, req)

	case MethodStatus:
		return r.Status(ctx, reply, req)

	// Filesystem related methods.
	case MethodStat:
		return r.Stat(ctx, reply, req)

	case MethodReadFile:
		return r.ReadFile(ctx, reply, req)

	case MethodReadDirectory:
		return r.ReadDirectory(ctx, reply, req)

	case MethodRefreshDirectory:
		return r.RefreshDirectory(ctx, reply, req)

	case MethodFileSearch:
		return r.FileSearch(ctx, reply, req)

	case MethodTextSearch:
		return r.TextSearch(ctx, reply, req)

	// Document related methods.
	case MethodCompile:
		return r.Compile(ctx, reply, req)

	case MethodExport:
		return r.Export(ctx, reply, req)

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}
}

func (r *jsonRPCRouter) UUID() uuid.UUID {
	return r.uuid
}

// CancelRequest cancels a call that is still running. Unknown ids are ignored, since the call may have just finished.
func (r *jsonRPCRouter) CancelRequest(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToCancelParams(req)
	if err != nil {
		return reply(ctx, nil, err)
	}
	id, err := mapper.CancelParamsToID(params)
	if err != nil {
		return reply(ctx, nil, err)
	}

	r.mu.Lock()
	cancel, ok := r.inflight[id]
	r.mu.Unlock()
	if ok {
		cancel()
	}
	return reply(ctx, nil, nil)
}

func (r *jsonRPCRouter) finish(id jsonrpc2.ID) {
	r.mu.Lock()
	cancel, ok := r.inflight[id]
	delete(r.inflight, id)
	r.mu.Unlock()
	if ok {
		cancel()
	}
}

// cancelAll cancels every running call and waits for them to return.
func (r *jsonRPCRouter) cancelAll() {
	r.mu.Lock()
	for _, cancel := range r.inflight {
		cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}

// replyOn returns a replier that ignores the context of the call and answers on ctx.
// Any error of a cancelled call is reported with the request cancelled code.
func replyOn(ctx context.Context, reply jsonrpc2.Replier) jsonrpc2.Replier {
	return func(callCtx context.Context, result interface{}, err error) error {
		if err != nil && callCtx.Err() != nil {
			err = jsonrpc2.NewError(_codeRequestCancelled, "request cancelled")
		}
		return reply(ctx, result, toReplyError(err))
	}
}

// toReplyError maps caller mistakes to the invalid params code. Other errors keep their message.
func toReplyError(err error) error {
	if err == nil {
		return nil
	}
	var rpcErr *jsonrpc2.Error
	if stderr.As(err, &rpcErr) {
		return err
	}
	if errors.IsBadRequest(err) || errors.IsConfig(err) {
		return jsonrpc2.NewError(jsonrpc2.InvalidParams, err.Error())
	}
	return err
}
