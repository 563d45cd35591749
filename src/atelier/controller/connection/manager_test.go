package connection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/atelier/ateliertest"
	"github.com/uber/atelier-sync/src/atelier/gateway/transport"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/repository/session"
	"go.uber.org/config"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type sessionFactory struct{}

func (sessionFactory) NewSession(spec entity.ConnectionSpec) *transport.Session {
	return transport.NewSession(spec, transport.Options{})
}

func newTestManager(t *testing.T, cfg map[string]interface{}) (Manager, session.Repository) {
	provider, err := config.NewStaticProvider(cfg)
	require.NoError(t, err)

	sessions := session.New(sessionFactory{}, tally.NoopScope)
	t.Cleanup(func() { sessions.Reset(context.Background()) })

	m, err := NewManager(Params{Config: provider, Logger: zap.NewNop().Sugar(), Sessions: sessions})
	require.NoError(t, err)
	return m, sessions
}

func TestManagerClient(t *testing.T) {
	server := ateliertest.NewServer()
	defer server.Close()
	server.AddDoc("A.cls", "Class A {}")
	spec := server.Spec("USER")

	m, sessions := newTestManager(t, map[string]interface{}{
		"atelier": map[string]interface{}{
			"conn": map[string]interface{}{"host": spec.Host, "port": spec.Port, "ns": "USER"},
			"folders": map[string]interface{}{
				"app": map[string]interface{}{"ns": "USER"},
			},
		},
	})
	ctx := context.Background()

	c, err := m.Client(ctx, "app")
	require.NoError(t, err)
	doc, err := c.GetDoc(ctx, "A.cls", entity.GetDocOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Class A {}"}, doc.Content)

	same, err := m.Client(ctx, "")
	require.NoError(t, err)
	assert.Same(t, c, same)

	_, err = m.Client(ctx, "missing")
	assert.True(t, errors.IsConfig(err))

	count, _ := sessions.SessionCount(ctx)
	assert.Equal(t, 1, count)

	require.NoError(t, m.Disconnect(ctx, "app"))
	count, _ = sessions.SessionCount(ctx)
	assert.Equal(t, 0, count)
}

func TestManagerInactive(t *testing.T) {
	m, _ := newTestManager(t, map[string]interface{}{
		"atelier": map[string]interface{}{
			"conn": map[string]interface{}{"host": "localhost", "active": false},
		},
	})

	_, err := m.Client(context.Background(), "")
	assert.True(t, errors.IsConfig(err))

	spec, err := m.Spec("")
	require.NoError(t, err)
	assert.False(t, spec.Active)
}

func TestManagerUpdateSettings(t *testing.T) {
	m, sessions := newTestManager(t, map[string]interface{}{
		"atelier": map[string]interface{}{
			"conn": map[string]interface{}{"host": "localhost"},
		},
	})
	ctx := context.Background()

	_, err := m.Client(ctx, "")
	require.NoError(t, err)

	err = m.UpdateSettings(ctx, entity.ConnectionSettings{
		Conn: entity.SettingsLayer{"host": "server.example.com", "ns": "DEV"},
	})
	require.NoError(t, err)

	count, _ := sessions.SessionCount(ctx)
	assert.Equal(t, 0, count)

	spec, err := m.Spec("")
	require.NoError(t, err)
	assert.Equal(t, "server.example.com", spec.Host)
	assert.Equal(t, "DEV", spec.Namespace)
}

func TestNewManagerInvalidConfig(t *testing.T) {
	provider, err := config.NewStaticProvider(map[string]interface{}{"atelier": "not a map"})
	require.NoError(t, err)

	_, err = NewManager(Params{Config: provider, Logger: zap.NewNop().Sugar(), Sessions: session.New(sessionFactory{}, tally.NoopScope)})
	assert.Error(t, err)
}
