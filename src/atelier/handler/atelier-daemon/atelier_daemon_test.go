package atelierdaemon

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/controller/connection/connectionmock"
	"github.com/uber/atelier-sync/src/atelier/controller/doc-sync/docsyncmock"
	"github.com/uber/atelier-sync/src/atelier/controller/local-watch/localwatchmock"
	"github.com/uber/atelier-sync/src/atelier/controller/vfs/vfsmock"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/editor-client/editorclientmock"
	"github.com/uber/atelier-sync/src/atelier/internal/jsonrpc2mock"
	"github.com/uber/atelier-sync/src/atelier/internal/jsonrpcfx"
	"github.com/uber/atelier-sync/src/atelier/internal/status"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type handlerFixture struct {
	handler *handler
	editors *editorclientmock.MockGateway
	docSync *docsyncmock.MockController
	status  status.Tracker
	lc      *fxtest.Lifecycle
	logs    *observer.ObservedLogs
	stats   tally.TestScope
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	ctrl := gomock.NewController(t)
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core).Sugar()

	jsonRPC := jsonrpcfx.NewMockJSONRPCModule(ctrl)
	jsonRPC.EXPECT().RegisterConnectionManager(gomock.Any()).Return(nil)

	f := &handlerFixture{
		editors: editorclientmock.NewMockGateway(ctrl),
		docSync: docsyncmock.NewMockController(ctrl),
		status:  status.New(logger),
		lc:      fxtest.NewLifecycle(t),
		logs:    logs,
		stats:   tally.NewTestScope("", nil),
	}

	h, err := New(Params{
		Lifecycle:   f.lc,
		Logger:      logger,
		Stats:       f.stats,
		JSONRPC:     jsonRPC,
		Status:      f.status,
		Connections: connectionmock.NewMockManager(ctrl),
		Editors:     f.editors,
		VFS:         vfsmock.NewMockController(ctrl),
		DocSync:     f.docSync,
		LocalWatch:  localwatchmock.NewMockController(ctrl),
	})
	require.NoError(t, err)
	f.handler = h.(*handler)
	return f
}

func newConn(t *testing.T) *jsonrpc2.Conn {
	var conn jsonrpc2.Conn = jsonrpc2mock.NewMockConn(gomock.NewController(t))
	return &conn
}

func TestNew(t *testing.T) {
	t.Run("registers the connection manager", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.lc.RequireStart().RequireStop()
	})

	t.Run("duplicate registration", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		jsonRPC := jsonrpcfx.NewMockJSONRPCModule(ctrl)
		jsonRPC.EXPECT().RegisterConnectionManager(gomock.Any()).Return(errors.New("cannot register a duplicate connection manager"))

		_, err := New(Params{
			Lifecycle: fxtest.NewLifecycle(t),
			Logger:    zap.NewNop().Sugar(),
			Stats:     tally.NoopScope,
			JSONRPC:   jsonRPC,
			Status:    status.New(zap.NewNop().Sugar()),
		})
		assert.Error(t, err)
	})
}

func TestConnectionStatusBroadcast(t *testing.T) {
	f := newHandlerFixture(t)
	f.lc.RequireStart()

	want := entity.ConnectionStatus{Session: "localhost:52773[USER]", State: entity.ConnectionStateUnauthorized, Message: "check your password"}
	f.editors.EXPECT().ConnectionStatus(gomock.Any(), want).Return(nil)
	f.status.Update(want.Session, want.State, want.Message)

	failing := entity.ConnectionStatus{Session: "localhost:52773[USER]", State: entity.ConnectionStateError, Message: "connection refused"}
	f.editors.EXPECT().ConnectionStatus(gomock.Any(), failing).Return(errors.New("broken pipe"))
	f.status.Update(failing.Session, failing.State, failing.Message)
	assert.Equal(t, 1, f.logs.FilterMessage("sending connection status").Len())

	// No more notifications once the daemon stops.
	f.lc.RequireStop()
	f.status.Update(want.Session, entity.ConnectionStateDisconnected, "")
}

func TestNewConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("create success", func(t *testing.T) {
		f := newHandlerFixture(t)
		conn := newConn(t)
		f.editors.EXPECT().RegisterClient(ctx, gomock.Any(), conn).Return(nil)

		router, err := f.handler.NewConnection(ctx, conn)
		require.NoError(t, err)
		assert.IsType(t, &jsonRPCRouter{}, router)
		assert.NotEqual(t, uuid.Nil, router.UUID())
		assert.Equal(t, 1, f.handler.ConnectionCount())
		assert.EqualValues(t, 1, f.stats.Snapshot().Gauges()["json_rpc.editors+"].Value())
	})

	t.Run("create failure", func(t *testing.T) {
		f := newHandlerFixture(t)
		f.editors.EXPECT().RegisterClient(ctx, gomock.Any(), gomock.Any()).Return(errors.New("duplicate editor"))

		_, err := f.handler.NewConnection(ctx, newConn(t))
		assert.Error(t, err)
		assert.Equal(t, 0, f.handler.ConnectionCount())
	})
}

func TestRemoveConnection(t *testing.T) {
	ctx := context.Background()
	f := newHandlerFixture(t)
	f.editors.EXPECT().RegisterClient(ctx, gomock.Any(), gomock.Any()).Return(nil)

	router, err := f.handler.NewConnection(ctx, newConn(t))
	require.NoError(t, err)

	// A compile still running when the editor goes away is cancelled.
	started := make(chan struct{})
	f.docSync.EXPECT().CompileAndSync(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ entity.CompileRequest) (*entity.CompileOutcome, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	reply, replies := newRecordingReplier()
	require.NoError(t, router.HandleReq(ctx, reply, newCompileCall()))
	<-started

	f.editors.EXPECT().DeregisterClient(ctx, router.UUID()).Return(errors.New("not registered"))
	f.handler.RemoveConnection(ctx, router.UUID())

	assert.Error(t, waitReply(t, replies).err)
	assert.Equal(t, 0, f.handler.ConnectionCount())
	assert.Equal(t, 1, f.logs.FilterMessage("deregistering editor").Len())

	// Removing an unknown connection only deregisters it.
	unknown := uuid.Must(uuid.NewV4())
	f.editors.EXPECT().DeregisterClient(ctx, unknown).Return(nil)
	f.handler.RemoveConnection(ctx, unknown)
}

func newCompileCall() jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(9), MethodCompile, entity.CompileRequest{ConnectionKey: "app", Name: "A.mac"})
	return req
}
