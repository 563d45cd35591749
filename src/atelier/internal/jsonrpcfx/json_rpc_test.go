package jsonrpcfx

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber/atelier-sync/src/atelier/internal/jsonrpc2mock"
	"github.com/uber/atelier-sync/src/atelier/internal/serverinfofile/serverinfofilemock"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		params  func(t *testing.T) Params
		wantErr bool
	}{
		{
			name:    "missing required params",
			params:  func(t *testing.T) Params { return Params{} },
			wantErr: true,
		},
		{
			name: "all required params are present",
			params: func(t *testing.T) Params {
				return Params{
					Lifecycle: fxtest.NewLifecycle(t),
					Config:    newConfigProvider(t, "valid"),
					Logger:    zap.NewNop().Sugar(),
				}
			},
		},
		{
			name: "invalid config",
			params: func(t *testing.T) Params {
				return Params{
					Lifecycle: fxtest.NewLifecycle(t),
					Config:    newConfigProvider(t, "missingKey"),
					Logger:    zap.NewNop().Sugar(),
				}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.params(t))

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegisterConnectionManager(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := module{}

	mockConnectionManager := NewMockConnectionManager(ctrl)

	assert.NoError(t, m.RegisterConnectionManager(mockConnectionManager))
	assert.Error(t, m.RegisterConnectionManager(mockConnectionManager), "duplicate registration")
}

func TestServeStream(t *testing.T) {
	ctx := context.Background()
	routerID := uuid.Must(uuid.NewV4())

	tests := []struct {
		name       string
		registered bool
		router     bool
		newConnErr error
		wantErr    bool
	}{
		{
			name:    "no connection manager registered",
			wantErr: true,
		},
		{
			name:       "failed NewConnection",
			registered: true,
			newConnErr: errors.New("sample error"),
			wantErr:    true,
		},
		{
			name:       "successful NewConnection",
			registered: true,
			router:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			m := module{logger: zap.NewNop().Sugar()}
			conn := jsonrpc2mock.NewMockConn(ctrl)
			mgr := NewMockConnectionManager(ctrl)

			if tt.registered {
				require.NoError(t, m.RegisterConnectionManager(mgr))
			}

			if tt.newConnErr != nil {
				mgr.EXPECT().NewConnection(gomock.Any(), gomock.Any()).Return(nil, tt.newConnErr)
			}

			if tt.router {
				router := NewMockRouter(ctrl)
				router.EXPECT().UUID().Return(routerID).AnyTimes()
				mgr.EXPECT().NewConnection(gomock.Any(), gomock.Any()).Return(router, nil)
				mgr.EXPECT().RemoveConnection(ctx, routerID)

				done := make(chan struct{})
				close(done)
				conn.EXPECT().Go(gomock.Any(), gomock.Any())
				conn.EXPECT().Done().Return(done)
				conn.EXPECT().Err().Return(nil)
			}

			err := m.ServeStream(ctx, conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetup(t *testing.T) {
	m := module{logger: zap.NewNop().Sugar()}
	assert.Error(t, m.setup())

	m = module{Address: "127.0.0.1:0"}
	require.NoError(t, m.setup())
	assert.NoError(t, m.ln.Close())
}

func TestProcessConfig(t *testing.T) {
	tests := []struct {
		name        string
		configKey   string
		wantErr     bool
		errorString string
	}{
		{
			name:      "valid configuration",
			configKey: "valid",
		},
		{
			name:        "missing address key",
			configKey:   "missingKey",
			wantErr:     true,
			errorString: "missing field \"jsonrpc.address\" in config",
		},
		{
			name:        "missing address value",
			configKey:   "missingValue",
			wantErr:     true,
			errorString: "missing field \"jsonrpc.address\" in config",
		},
		{
			name:      "incorrectly formatted entry",
			configKey: "formatProblem",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := module{logger: zap.NewNop().Sugar()}
			err := m.processConfig(newConfigProvider(t, tt.configKey))

			if !tt.wantErr {
				assert.NoError(t, err)
				assert.Equal(t, "localhost:27890", m.Address)
				return
			}
			require.Error(t, err)
			if tt.errorString != "" {
				assert.Equal(t, tt.errorString, err.Error())
			} else {
				assert.Contains(t, err.Error(), `getting config field "jsonrpc.address"`)
			}
		})
	}
}

func TestOnStartPublishFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)
	infoFile.EXPECT().UpdateField(_outputKey, gomock.Any()).Return(errors.New("read-only file system"))

	m := module{
		Address:        "127.0.0.1:0",
		serverInfoFile: infoFile,
		logger:         zap.NewNop().Sugar(),
	}

	err := m.OnStart(context.Background())
	assert.ErrorContains(t, err, "publishing daemon address")
}

func TestOnStartMissingAddress(t *testing.T) {
	m := module{logger: zap.NewNop().Sugar()}
	assert.Error(t, m.OnStart(context.Background()))
	assert.NoError(t, m.OnStop(context.Background()), "stop without start")
}

func TestServeRoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	var published string
	infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)
	infoFile.EXPECT().UpdateField(_outputKey, gomock.Any()).DoAndReturn(func(_ string, value string) error {
		published = value
		return nil
	})

	routerID := uuid.Must(uuid.NewV4())
	router := NewMockRouter(ctrl)
	router.EXPECT().UUID().Return(routerID).AnyTimes()
	router.EXPECT().HandleReq(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
			assert.Equal(t, "atelier/ping", req.Method())
			return reply(ctx, "pong", nil)
		})

	removed := make(chan struct{})
	mgr := NewMockConnectionManager(ctrl)
	mgr.EXPECT().NewConnection(gomock.Any(), gomock.Any()).Return(router, nil)
	mgr.EXPECT().RemoveConnection(gomock.Any(), routerID).Do(func(context.Context, uuid.UUID) { close(removed) })

	m := &module{
		Address:        "127.0.0.1:0",
		serverInfoFile: infoFile,
		logger:         zap.NewNop().Sugar(),
	}
	require.NoError(t, m.RegisterConnectionManager(mgr))
	require.NoError(t, m.OnStart(ctx))
	assert.Equal(t, m.ln.Addr().String(), published)

	nc, err := net.Dial("tcp", published)
	require.NoError(t, err)
	client := jsonrpc2.NewConn(jsonrpc2.NewStream(nc))
	client.Go(ctx, jsonrpc2.MethodNotFoundHandler)

	var result string
	_, err = client.Call(ctx, "atelier/ping", nil, &result)
	require.NoError(t, err)
	assert.Equal(t, "pong", result)

	require.NoError(t, client.Close())
	select {
	case <-removed:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not removed after the editor disconnected")
	}

	assert.NoError(t, m.OnStop(ctx))
	assert.NoError(t, m.OnStop(ctx), "second stop is a no-op")
}

func newConfigProvider(t *testing.T, configKey string) config.Provider {
	configs := map[string]string{
		"valid": `
jsonrpc:
  address: localhost:27890`,
		"missingKey": `
jsonrpc:
  other: value`,
		"missingValue": `
jsonrpc:
  address:`,
		"formatProblem": `
jsonrpc:
  address:
    key: val`,
	}

	provider, err := config.NewYAML(config.Source(strings.NewReader(configs[configKey])))
	require.NoError(t, err)
	return provider
}
