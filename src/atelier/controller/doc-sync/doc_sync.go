package docsync

//go:generate mockgen -source=doc_sync.go -destination=docsyncmock/doc_sync_mock.go -package=docsyncmock

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/controller/connection"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/atelier"
	editorclient "github.com/uber/atelier-sync/src/atelier/gateway/editor-client"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/internal/fs"
	"github.com/uber/atelier-sync/src/atelier/internal/keylock"
	"github.com/uber/atelier-sync/src/atelier/internal/logfilewriter"
	"github.com/uber/atelier-sync/src/atelier/internal/serverinfofile"
	"go.lsp.dev/protocol"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey = "doc-sync"

	_configKeyCompileFlags      = "docSync.compileFlags"
	_configKeyExportConcurrency = "docSync.exportConcurrency"
	_configKeyNoStorage         = "docSync.noStorage"
	_configKeyAddCategory       = "docSync.addCategory"

	_defaultCompileFlags      = "cuk"
	_defaultExportConcurrency = 4
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Controller imports, compiles and exports server documents.
type Controller interface {
	// CompileAndSync sends the buffer of one document to the server, compiles it and brings back the server's version.
	// Requests for the same document on the same session run one at a time in arrival order.
	CompileAndSync(ctx context.Context, req entity.CompileRequest) (*entity.CompileOutcome, error)
	// Export writes a listing of server documents below a local root. Failures of single documents don't stop the batch.
	Export(ctx context.Context, req entity.ExportRequest) (*entity.ExportSummary, error)
	// LastWritten returns the content this controller last wrote to a local path.
	LastWritten(path string) ([]byte, bool)
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Config      config.Provider
	Logger      *zap.SugaredLogger
	Stats       tally.Scope
	Connections connection.Manager
	Editors     editorclient.Gateway
	FS          fs.LocalFS
	Lifecycle   fx.Lifecycle `optional:"true"`
	// ServerInfoFile publishes the output channel used for requests that don't come from an editor.
	// Without it such output goes to the log.
	ServerInfoFile serverinfofile.ServerInfoFile `optional:"true"`
}

// Settings are the defaults applied to requests that don't set them.
type Settings struct {
	CompileFlags      string `yaml:"compileFlags"`
	ExportConcurrency int    `yaml:"exportConcurrency"`
	NoStorage         bool   `yaml:"noStorage"`
	AddCategory       bool   `yaml:"addCategory"`
}

type controller struct {
	connections connection.Manager
	editors     editorclient.Gateway
	fs          fs.LocalFS
	logger      *zap.SugaredLogger
	stats       tally.Scope
	locks       keylock.Locker
	settings    Settings
	// output receives compile and export results nobody asked for from an editor.
	output io.Writer

	writtenMu sync.Mutex
	written   map[string][]byte
}

// New creates a new controller for document sync.
func New(p Params) (Controller, error) {
	settings := Settings{
		CompileFlags:      _defaultCompileFlags,
		ExportConcurrency: _defaultExportConcurrency,
	}
	for key, target := range map[string]interface{}{
		_configKeyCompileFlags:      &settings.CompileFlags,
		_configKeyExportConcurrency: &settings.ExportConcurrency,
		_configKeyNoStorage:         &settings.NoStorage,
		_configKeyAddCategory:       &settings.AddCategory,
	} {
		v := p.Config.Get(key)
		if !v.HasValue() {
			continue
		}
		if err := v.Populate(target); err != nil {
			return nil, fmt.Errorf("getting config field %q: %w", key, err)
		}
	}
	if settings.ExportConcurrency <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %d", _configKeyExportConcurrency, settings.ExportConcurrency)
	}

	logger := p.Logger.With("plugin", _nameKey)
	output := logfilewriter.NewLoggerWriter(logger)
	if p.ServerInfoFile != nil && p.Lifecycle != nil {
		w, err := logfilewriter.SetupOutputWriter(logfilewriter.Params{
			FS:             p.FS,
			Lifecycle:      p.Lifecycle,
			ServerInfoFile: p.ServerInfoFile,
		}, _nameKey)
		if err != nil {
			return nil, fmt.Errorf("setting up output channel: %w", err)
		}
		output = w
	}

	return &controller{
		connections: p.Connections,
		editors:     p.Editors,
		fs:          p.FS,
		logger:      logger,
		stats:       p.Stats.SubScope("doc_sync"),
		locks:       keylock.New(),
		settings:    settings,
		written:     make(map[string][]byte),
		output:      output,
	}, nil
}

func (c *controller) CompileAndSync(ctx context.Context, req entity.CompileRequest) (*entity.CompileOutcome, error) {
	if req.ConnectionKey == "" {
		return nil, errors.NoConnectionKeyError
	}
	if req.Name == "" {
		return nil, errors.NoDocumentNameError
	}

	client, err := c.connections.Client(ctx, req.ConnectionKey)
	if err != nil {
		return nil, err
	}

	unlock, err := c.locks.Lock(ctx, client.Spec().SessionKey().String()+"/"+req.Name)
	if err != nil {
		return nil, err
	}
	defer unlock()

	timer := c.stats.Timer("compile_and_sync").Start()
	defer timer.Stop()

	outcome := &entity.CompileOutcome{Name: req.Name, State: entity.SyncStateIdle}
	if err := c.runCycle(ctx, client, req, outcome); err != nil {
		outcome.State = entity.SyncStateFailed
		c.stats.Counter("compile_failures").Inc(1)
		return outcome, err
	}
	outcome.State = entity.SyncStateIdle
	c.stats.Counter("compiles").Inc(1)
	return outcome, nil
}

func (c *controller) runCycle(ctx context.Context, client atelier.Client, req entity.CompileRequest, outcome *entity.CompileOutcome) error {
	outcome.State = entity.SyncStateImporting
	local := entity.SplitLines(req.Content)
	if err := client.PutDoc(ctx, req.Name, entity.DocContent{Content: local}, true); err != nil {
		// Only a rejection by the server is an import failure. Anything else, such as bad credentials, is reported as is.
		if _, ok := errors.StatusCode(err); ok && !errors.IsUnauthorized(err) {
			return &errors.ImportError{Name: req.Name, Err: err}
		}
		return err
	}

	outcome.State = entity.SyncStateCompiling
	flags := req.Flags
	if flags == "" {
		flags = c.settings.CompileFlags
	}
	result, err := client.ActionCompile(ctx, []string{req.Name}, flags)
	if err != nil {
		return err
	}
	outcome.Result = *result
	c.writeOutput(ctx, result)
	if !result.Succeeded() {
		messages := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			messages = append(messages, e.Message)
		}
		c.notify(ctx, fmt.Sprintf("Compiling %s failed with %d errors, see the output channel for details.", req.Name, len(messages)))
		return &errors.CompileError{Name: req.Name, Messages: messages}
	}

	outcome.State = entity.SyncStateExporting
	doc, err := client.GetDoc(ctx, req.Name, entity.GetDocOptions{})
	if err != nil {
		return err
	}
	outcome.Content = doc.Text()
	if summary := Normalization(strings.Join(local, "\n"), outcome.Content); summary.Changed() {
		c.logger.Infow("server normalized document", "name", req.Name, "insertedLines", summary.InsertedLines, "deletedLines", summary.DeletedLines)
	}

	if req.LocalPath != "" {
		data, err := c.documentBytes(ctx, client, doc, c.settings.NoStorage)
		if err != nil {
			return err
		}
		if err := c.write(req.LocalPath, data); err != nil {
			return err
		}
	}

	index, err := client.ActionIndex(ctx, []string{req.Name})
	if err != nil {
		return err
	}
	outcome.Refreshed = others(index)
	return nil
}

// outputWriter returns the output channel of the requesting editor, or the daemon's own channel when the request didn't come from an editor.
func (c *controller) outputWriter(ctx context.Context, prefix string) io.Writer {
	if w, err := c.editors.GetLogMessageWriter(ctx, prefix); err == nil {
		return w
	}
	return c.output
}

// notify shows a one-off error message in the requesting editor. Requests that don't come from an editor only have the output channel.
func (c *controller) notify(ctx context.Context, message string) {
	err := c.editors.ShowMessage(ctx, &protocol.ShowMessageParams{Type: protocol.MessageTypeError, Message: message})
	if err != nil {
		c.logger.Debugw("showing message", "message", message, zap.Error(err))
	}
}

// writeOutput sends the compiler console and every error to the output channel.
func (c *controller) writeOutput(ctx context.Context, result *entity.CompileResult) {
	w := c.outputWriter(ctx, "compile")

	for _, line := range result.Console {
		if line == "" {
			continue
		}
		if _, err := io.WriteString(w, line); err != nil {
			c.logger.Warnw("writing compile output", zap.Error(err))
			return
		}
	}
	for _, e := range result.Errors {
		msg := e.Message
		if e.Location != "" {
			msg = e.Location + ": " + msg
		}
		if _, err := io.WriteString(w, msg); err != nil {
			c.logger.Warnw("writing compile output", zap.Error(err))
			return
		}
	}
}

// documentBytes returns the content to store locally, without the storage definition of classes when stripStorage is set.
func (c *controller) documentBytes(ctx context.Context, client atelier.Client, doc *entity.DocumentSnapshot, stripStorage bool) ([]byte, error) {
	if doc.Binary {
		data, err := base64.StdEncoding.DecodeString(strings.Join(doc.Content, ""))
		if err != nil {
			return nil, &errors.ProtocolError{Endpoint: "doc/" + doc.Name, Reason: "invalid base64 content", Err: err}
		}
		return data, nil
	}

	text := doc.Text()
	if stripStorage && doc.Category == entity.CategoryClass {
		storage, err := client.GetDoc(ctx, doc.Name, entity.GetDocOptions{StorageOnly: true})
		switch {
		case err == nil:
			text = StripStorage(text, storage.Text())
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			c.logger.Debugw("storage definition unavailable, keeping full content", "name", doc.Name, zap.Error(err))
		}
	}
	return []byte(text), nil
}

func (c *controller) write(path string, data []byte) error {
	// Recorded before writing, so that a watcher seeing the write already knows it.
	c.writtenMu.Lock()
	c.written[path] = data
	c.writtenMu.Unlock()

	if err := c.fs.WriteFile(path, data); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}
	return nil
}

func (c *controller) LastWritten(path string) ([]byte, bool) {
	c.writtenMu.Lock()
	defer c.writtenMu.Unlock()

	data, ok := c.written[path]
	return data, ok
}

// others returns the related documents of every index entry, without duplicates.
func others(index []entity.DocIndex) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, doc := range index {
		for _, name := range doc.Others {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}
