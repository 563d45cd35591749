package docsync

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tally "github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/controller/connection/connectionmock"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/factory"
	"github.com/uber/atelier-sync/src/atelier/gateway/atelier/atelierclientmock"
	"github.com/uber/atelier-sync/src/atelier/gateway/editor-client/editorclientmock"
	atelierErrors "github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/internal/fs"
	"github.com/uber/atelier-sync/src/atelier/internal/serverinfofile/serverinfofilemock"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx/fxtest"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	controller *controller
	client     *atelierclientmock.MockClient
	editors    *editorclientmock.MockGateway
	stats      tally.TestScope
	logs       *observer.ObservedLogs
	output     *bytes.Buffer
}

func newFixture(t *testing.T, cfg map[string]interface{}) *fixture {
	ctrl := gomock.NewController(t)
	provider, err := config.NewStaticProvider(cfg)
	require.NoError(t, err)

	core, logs := observer.New(zap.DebugLevel)
	stats := tally.NewTestScope("", nil)

	client := atelierclientmock.NewMockClient(ctrl)
	client.EXPECT().Spec().Return(factory.Spec("USER")).AnyTimes()
	connections := connectionmock.NewMockManager(ctrl)
	connections.EXPECT().Client(gomock.Any(), "app").Return(client, nil).AnyTimes()
	connections.EXPECT().Client(gomock.Any(), "missing").Return(nil, &atelierErrors.ConfigError{Key: "missing", Reason: "unknown folder"}).AnyTimes()

	output := &bytes.Buffer{}
	editors := editorclientmock.NewMockGateway(ctrl)
	editors.EXPECT().GetLogMessageWriter(gomock.Any(), gomock.Any()).Return(output, nil).AnyTimes()

	c, err := New(Params{
		Config:      provider,
		Logger:      zap.New(core).Sugar(),
		Stats:       stats,
		Connections: connections,
		Editors:     editors,
		FS:          fs.New(),
	})
	require.NoError(t, err)

	return &fixture{
		controller: c.(*controller),
		client:     client,
		editors:    editors,
		stats:      stats,
		logs:       logs,
		output:     output,
	}
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})
		assert.Equal(t, Settings{CompileFlags: "cuk", ExportConcurrency: 4}, f.controller.settings)
	})

	t.Run("configured", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{
			"docSync": map[string]interface{}{
				"compileFlags":      "ck",
				"exportConcurrency": 2,
				"noStorage":         true,
				"addCategory":       true,
			},
		})
		assert.Equal(t, Settings{CompileFlags: "ck", ExportConcurrency: 2, NoStorage: true, AddCategory: true}, f.controller.settings)
	})

	t.Run("invalid concurrency", func(t *testing.T) {
		provider, err := config.NewStaticProvider(map[string]interface{}{
			"docSync": map[string]interface{}{"exportConcurrency": 0},
		})
		require.NoError(t, err)
		_, err = New(Params{Config: provider, Logger: zap.NewNop().Sugar(), Stats: tally.NoopScope})
		assert.ErrorContains(t, err, "must be positive")
	})
}

func TestCompileAndSync(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})
		localPath := filepath.Join(t.TempDir(), "src", "Pkg", "A.cls")

		gomock.InOrder(
			f.client.EXPECT().PutDoc(gomock.Any(), "Pkg.A.cls", entity.DocContent{Content: []string{"Class Pkg.A", "{", "}"}}, true).Return(nil),
			f.client.EXPECT().ActionCompile(gomock.Any(), []string{"Pkg.A.cls"}, "cuk").Return(&entity.CompileResult{
				Console: []string{"Compiling class Pkg.A", "Compilation finished successfully"},
			}, nil),
			f.client.EXPECT().GetDoc(gomock.Any(), "Pkg.A.cls", entity.GetDocOptions{}).Return(
				factory.Snapshot("Pkg.A.cls", "Class Pkg.A Extends %RegisteredObject", "{", "}"), nil),
			f.client.EXPECT().ActionIndex(gomock.Any(), []string{"Pkg.A.cls"}).Return([]entity.DocIndex{
				{Name: "Pkg.A.cls", Others: []string{"Pkg.A.1.int", "Pkg.B.cls"}},
				{Name: "Pkg.A.cls", Others: []string{"Pkg.A.1.int"}},
			}, nil),
		)

		outcome, err := f.controller.CompileAndSync(ctx, entity.CompileRequest{
			ConnectionKey: "app",
			Name:          "Pkg.A.cls",
			Content:       "Class Pkg.A\r\n{\r\n}",
			LocalPath:     localPath,
		})
		require.NoError(t, err)
		assert.Equal(t, entity.SyncStateIdle, outcome.State)
		assert.Equal(t, []string{"Pkg.A.1.int", "Pkg.B.cls"}, outcome.Refreshed)
		assert.Equal(t, "Class Pkg.A Extends %RegisteredObject\n{\n}", outcome.Content)

		data, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, outcome.Content, string(data))
		written, ok := f.controller.LastWritten(localPath)
		assert.True(t, ok)
		assert.Equal(t, data, written)

		assert.Contains(t, f.output.String(), "Compilation finished successfully")
		assert.Equal(t, 1, f.logs.FilterMessage("server normalized document").Len())
		assert.EqualValues(t, 1, f.stats.Snapshot().Counters()["doc_sync.compiles+"].Value())
	})

	t.Run("compile errors stop before export", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{"docSync": map[string]interface{}{"compileFlags": "ck"}})

		f.client.EXPECT().PutDoc(gomock.Any(), "Pkg.A.cls", gomock.Any(), true).Return(nil)
		f.client.EXPECT().ActionCompile(gomock.Any(), []string{"Pkg.A.cls"}, "ck").Return(&entity.CompileResult{
			Errors: []entity.CompileError{
				{Message: "ERROR #5373: Class 'Pkg.Missing' does not exist", Location: "Pkg.A.cls(Method+2)"},
				{Message: "ERROR #5030: An error occurred while compiling class 'Pkg.A'"},
			},
			Console: []string{},
		}, nil)
		f.editors.EXPECT().ShowMessage(gomock.Any(), &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeError,
			Message: "Compiling Pkg.A.cls failed with 2 errors, see the output channel for details.",
		}).Return(nil)

		outcome, err := f.controller.CompileAndSync(ctx, entity.CompileRequest{ConnectionKey: "app", Name: "Pkg.A.cls", Content: "Class Pkg.A {"})
		var compileErr *atelierErrors.CompileError
		require.ErrorAs(t, err, &compileErr)
		assert.Len(t, compileErr.Messages, 2)
		assert.Equal(t, entity.SyncStateFailed, outcome.State)
		assert.Len(t, outcome.Result.Errors, 2)
		assert.Empty(t, outcome.Content)

		assert.Contains(t, f.output.String(), "Pkg.A.cls(Method+2): ERROR #5373")
		assert.Contains(t, f.output.String(), "ERROR #5030")
		assert.EqualValues(t, 1, f.stats.Snapshot().Counters()["doc_sync.compile_failures+"].Value())
	})

	t.Run("server rejects import", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})
		f.client.EXPECT().PutDoc(gomock.Any(), "Pkg.A.cls", gomock.Any(), true).Return(&atelierErrors.APIError{Code: 400, Message: "Bad Request", ServerText: "name mismatch"})

		outcome, err := f.controller.CompileAndSync(ctx, entity.CompileRequest{ConnectionKey: "app", Name: "Pkg.A.cls", Content: "Class Pkg.B {}"})
		var importErr *atelierErrors.ImportError
		require.ErrorAs(t, err, &importErr)
		assert.Equal(t, "Pkg.A.cls", importErr.Name)
		assert.Equal(t, entity.SyncStateFailed, outcome.State)
	})

	t.Run("credentials rejected", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})
		f.client.EXPECT().PutDoc(gomock.Any(), "Pkg.A.cls", gomock.Any(), true).Return(&atelierErrors.UnauthorizedError{Host: "localhost:52773"})

		_, err := f.controller.CompileAndSync(ctx, entity.CompileRequest{ConnectionKey: "app", Name: "Pkg.A.cls"})
		assert.True(t, atelierErrors.IsUnauthorized(err))
		var importErr *atelierErrors.ImportError
		assert.False(t, errors.As(err, &importErr))
	})

	t.Run("network failure", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})
		netErr := &atelierErrors.NetworkError{Host: "localhost:52773", Err: errors.New("connection refused")}
		f.client.EXPECT().PutDoc(gomock.Any(), "Pkg.A.cls", gomock.Any(), true).Return(netErr)

		_, err := f.controller.CompileAndSync(ctx, entity.CompileRequest{ConnectionKey: "app", Name: "Pkg.A.cls"})
		assert.Equal(t, netErr, err)
	})

	t.Run("bad requests", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})

		_, err := f.controller.CompileAndSync(ctx, entity.CompileRequest{Name: "A.cls"})
		assert.True(t, atelierErrors.IsBadRequest(err))
		_, err = f.controller.CompileAndSync(ctx, entity.CompileRequest{ConnectionKey: "app"})
		assert.True(t, atelierErrors.IsBadRequest(err))
		_, err = f.controller.CompileAndSync(ctx, entity.CompileRequest{ConnectionKey: "missing", Name: "A.cls"})
		assert.True(t, atelierErrors.IsConfig(err))
	})
}

func TestCompileAndSyncOutputWithoutEditor(t *testing.T) {
	ctrl := gomock.NewController(t)
	core, logs := observer.New(zap.InfoLevel)
	client := atelierclientmock.NewMockClient(ctrl)
	client.EXPECT().Spec().Return(factory.Spec("USER")).AnyTimes()
	connections := connectionmock.NewMockManager(ctrl)
	connections.EXPECT().Client(gomock.Any(), "app").Return(client, nil)
	editors := editorclientmock.NewMockGateway(ctrl)
	editors.EXPECT().GetLogMessageWriter(gomock.Any(), "compile").Return(nil, &atelierErrors.NoEditorFoundError{})
	editors.EXPECT().ShowMessage(gomock.Any(), gomock.Any()).Return(&atelierErrors.NoEditorFoundError{})

	provider, err := config.NewStaticProvider(map[string]interface{}{})
	require.NoError(t, err)
	c, err := New(Params{Config: provider, Logger: zap.New(core).Sugar(), Stats: tally.NoopScope, Connections: connections, Editors: editors, FS: fs.New()})
	require.NoError(t, err)

	client.EXPECT().PutDoc(gomock.Any(), "A.mac", gomock.Any(), true).Return(nil)
	client.EXPECT().ActionCompile(gomock.Any(), []string{"A.mac"}, "cuk").Return(&entity.CompileResult{
		Errors:  []entity.CompileError{{Message: "ERROR: A.mac(3) #1026: Invalid command"}},
		Console: []string{},
	}, nil)

	_, err = c.CompileAndSync(context.Background(), entity.CompileRequest{ConnectionKey: "app", Name: "A.mac", Content: " foo"})
	assert.Error(t, err)
	assert.Equal(t, 1, logs.FilterMessage("ERROR: A.mac(3) #1026: Invalid command").Len())
}

func TestOutputChannel(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := atelierclientmock.NewMockClient(ctrl)
	client.EXPECT().Spec().Return(factory.Spec("USER")).AnyTimes()
	connections := connectionmock.NewMockManager(ctrl)
	connections.EXPECT().Client(gomock.Any(), "app").Return(client, nil)
	editors := editorclientmock.NewMockGateway(ctrl)
	editors.EXPECT().GetLogMessageWriter(gomock.Any(), "compile").Return(nil, &atelierErrors.NoEditorFoundError{})
	editors.EXPECT().ShowMessage(gomock.Any(), gomock.Any()).Return(&atelierErrors.NoEditorFoundError{})

	var channelPath string
	infoFile := serverinfofilemock.NewMockServerInfoFile(ctrl)
	infoFile.EXPECT().UpdateField("output:doc-sync", gomock.Any()).DoAndReturn(func(_ string, value string) error {
		channelPath = value
		return nil
	})

	provider, err := config.NewStaticProvider(map[string]interface{}{})
	require.NoError(t, err)
	lc := fxtest.NewLifecycle(t)
	c, err := New(Params{
		Config:         provider,
		Logger:         zap.NewNop().Sugar(),
		Stats:          tally.NoopScope,
		Connections:    connections,
		Editors:        editors,
		FS:             fs.New(),
		Lifecycle:      lc,
		ServerInfoFile: infoFile,
	})
	require.NoError(t, err)
	lc.RequireStart()
	require.NotEmpty(t, channelPath)

	client.EXPECT().PutDoc(gomock.Any(), "A.mac", gomock.Any(), true).Return(nil)
	client.EXPECT().ActionCompile(gomock.Any(), []string{"A.mac"}, "cuk").Return(&entity.CompileResult{
		Errors: []entity.CompileError{{Message: "ERROR: A.mac(3) #1026: Invalid command"}},
	}, nil)

	_, err = c.CompileAndSync(context.Background(), entity.CompileRequest{ConnectionKey: "app", Name: "A.mac", Content: " foo"})
	assert.Error(t, err)

	content, err := os.ReadFile(channelPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "ERROR: A.mac(3) #1026: Invalid command")

	lc.RequireStop()
	_, err = os.Stat(channelPath)
	assert.True(t, os.IsNotExist(err), "output channel is removed on stop")
}

func TestCompileAndSyncSerializesSameDocument(t *testing.T) {
	f := newFixture(t, map[string]interface{}{})
	ctx := context.Background()

	var (
		mu     sync.Mutex
		events []string
	)
	record := func(e string) {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	f.client.EXPECT().PutDoc(gomock.Any(), "A.cls", gomock.Any(), true).DoAndReturn(
		func(_ context.Context, _ string, content entity.DocContent, _ bool) error {
			record("put:" + content.Content[0])
			if content.Content[0] == "v1" {
				close(started)
				<-release
			}
			return nil
		}).Times(2)
	f.client.EXPECT().ActionCompile(gomock.Any(), gomock.Any(), gomock.Any()).Return(&entity.CompileResult{Console: []string{}}, nil).Times(2)
	f.client.EXPECT().GetDoc(gomock.Any(), "A.cls", gomock.Any()).Return(factory.Snapshot("A.cls", "v"), nil).Times(2)
	f.client.EXPECT().ActionIndex(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, []string) ([]entity.DocIndex, error) {
			record("index")
			return nil, nil
		}).Times(2)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.controller.CompileAndSync(ctx, entity.CompileRequest{ConnectionKey: "app", Name: "A.cls", Content: "v1"})
		assert.NoError(t, err)
	}()
	<-started
	go func() {
		defer wg.Done()
		_, err := f.controller.CompileAndSync(ctx, entity.CompileRequest{ConnectionKey: "app", Name: "A.cls", Content: "v2"})
		assert.NoError(t, err)
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, []string{"put:v1", "index", "put:v2", "index"}, events)
}

func TestCompileAndSyncCancelledWhileQueued(t *testing.T) {
	f := newFixture(t, map[string]interface{}{})

	unlock, err := f.controller.locks.Lock(context.Background(), factory.Spec("USER").SessionKey().String()+"/A.cls")
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = f.controller.CompileAndSync(ctx, entity.CompileRequest{ConnectionKey: "app", Name: "A.cls"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("partial failure", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{"docSync": map[string]interface{}{"addCategory": true}})
		root := t.TempDir()

		f.client.EXPECT().GetDocNames(gomock.Any(), entity.DocNamesQuery{Category: entity.CategoryAll}).
			Return(factory.DocNames("Pkg.A.cls", "Pkg.B.cls", "Util.mac", "%Sys.Z.cls"), nil)
		f.client.EXPECT().GetDoc(gomock.Any(), "Pkg.A.cls", entity.GetDocOptions{}).Return(factory.Snapshot("Pkg.A.cls", "Class Pkg.A {}"), nil)
		f.client.EXPECT().GetDoc(gomock.Any(), "Pkg.B.cls", entity.GetDocOptions{}).Return(nil, &atelierErrors.APIError{Code: 500, Message: "Internal Server Error"})
		f.client.EXPECT().GetDoc(gomock.Any(), "Util.mac", entity.GetDocOptions{}).Return(factory.Snapshot("Util.mac", "Util", " quit"), nil)
		f.editors.EXPECT().ShowMessage(gomock.Any(), &protocol.ShowMessageParams{
			Type:    protocol.MessageTypeError,
			Message: "Export to " + root + " failed for 1 of 3 documents, see the output channel for details.",
		}).Return(nil)

		summary, err := f.controller.Export(ctx, entity.ExportRequest{ConnectionKey: "app", Root: root, Category: entity.CategoryAll, Concurrency: 2})
		require.Error(t, err)
		var exportErr *atelierErrors.ExportError
		require.ErrorAs(t, err, &exportErr)
		assert.Equal(t, "Pkg.B.cls", exportErr.Name)

		assert.Equal(t, []string{"Pkg.A.cls", "Util.mac"}, summary.Exported)
		require.Len(t, summary.Failed, 1)
		assert.Equal(t, "Pkg.B.cls", summary.Failed[0].Name)
		assert.Contains(t, f.output.String(), "exported 2 documents to "+root)
		assert.Contains(t, f.output.String(), "failed to export Pkg.B.cls")

		data, err := os.ReadFile(filepath.Join(root, "cls", "Pkg", "A.cls"))
		require.NoError(t, err)
		assert.Equal(t, "Class Pkg.A {}", string(data))
		data, err = os.ReadFile(filepath.Join(root, "mac", "Util.mac"))
		require.NoError(t, err)
		assert.Equal(t, "Util\n quit", string(data))
		_, err = os.Stat(filepath.Join(root, "cls", "%Sys"))
		assert.True(t, os.IsNotExist(err))

		counters := f.stats.Snapshot().Counters()
		assert.EqualValues(t, 2, counters["doc_sync.exported+"].Value())
		assert.EqualValues(t, 1, counters["doc_sync.export_failures+"].Value())
	})

	t.Run("system documents and storage", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})
		root := t.TempDir()
		noStorage := true

		full := []string{"Class Pkg.A {", "Property Name;", "Storage Default", "{", "<Data/>", "}", "}"}
		f.client.EXPECT().GetDocNames(gomock.Any(), entity.DocNamesQuery{Filter: "Pkg*"}).Return(factory.DocNames("Pkg.A.cls", "%Pkg.cls"), nil)
		f.client.EXPECT().GetDoc(gomock.Any(), "Pkg.A.cls", entity.GetDocOptions{}).Return(factory.Snapshot("Pkg.A.cls", full...), nil)
		f.client.EXPECT().GetDoc(gomock.Any(), "Pkg.A.cls", entity.GetDocOptions{StorageOnly: true}).
			Return(factory.Snapshot("Pkg.A.cls", "Storage Default", "{", "<Data/>", "}"), nil)
		f.client.EXPECT().GetDoc(gomock.Any(), "%Pkg.cls", entity.GetDocOptions{}).Return(factory.Snapshot("%Pkg.cls", "Class %Pkg {}"), nil)

		summary, err := f.controller.Export(ctx, entity.ExportRequest{ConnectionKey: "app", Root: root, Filter: "Pkg*", IncludeSystem: true, NoStorage: &noStorage})
		require.NoError(t, err)
		assert.Equal(t, []string{"%Pkg.cls", "Pkg.A.cls"}, summary.Exported)
		assert.Empty(t, summary.Failed)

		data, err := os.ReadFile(filepath.Join(root, "Pkg", "A.cls"))
		require.NoError(t, err)
		assert.Equal(t, "Class Pkg.A {\nProperty Name;\n\n}", string(data))
	})

	t.Run("binary document", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})
		root := t.TempDir()
		payload := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}
		encoded := base64.StdEncoding.EncodeToString(payload)

		doc := factory.Snapshot("/csp/user/logo.png", encoded[:4], encoded[4:])
		doc.Binary = true
		f.client.EXPECT().GetDocNames(gomock.Any(), gomock.Any()).Return(factory.DocNames("/csp/user/logo.png"), nil)
		f.client.EXPECT().GetDoc(gomock.Any(), "/csp/user/logo.png", entity.GetDocOptions{}).Return(doc, nil)

		_, err := f.controller.Export(ctx, entity.ExportRequest{ConnectionKey: "app", Root: root})
		require.NoError(t, err)
		data, err := os.ReadFile(filepath.Join(root, "csp", "user", "logo.png"))
		require.NoError(t, err)
		assert.Equal(t, payload, data)
	})

	t.Run("listing fails", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})
		f.client.EXPECT().GetDocNames(gomock.Any(), gomock.Any()).Return(nil, &atelierErrors.UnauthorizedError{Host: "localhost:52773"})

		summary, err := f.controller.Export(ctx, entity.ExportRequest{ConnectionKey: "app", Root: t.TempDir()})
		assert.Nil(t, summary)
		assert.True(t, atelierErrors.IsUnauthorized(err))
	})

	t.Run("bad requests", func(t *testing.T) {
		f := newFixture(t, map[string]interface{}{})
		_, err := f.controller.Export(ctx, entity.ExportRequest{Root: "/tmp"})
		assert.True(t, atelierErrors.IsBadRequest(err))
		_, err = f.controller.Export(ctx, entity.ExportRequest{ConnectionKey: "app"})
		assert.ErrorContains(t, err, "root is required")
	})
}
