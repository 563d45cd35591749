// Package localwatch compiles documents when their local mirror is edited outside of the editor.
package localwatch

//go:generate mockgen -source=local_watch.go -destination=localwatchmock/local_watch_mock.go -package=localwatchmock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	docsync "github.com/uber/atelier-sync/src/atelier/controller/doc-sync"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/internal/fs"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey = "local-watch"

	_configKeyEnabled  = "localWatch.enabled"
	_configKeyDebounce = "localWatch.debounce"

	_defaultDebounce = 200 * time.Millisecond
)

// ErrDisabled is returned by Watch when watching is turned off in the config.
var ErrDisabled = errors.New("local watch is disabled")

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Controller watches export roots and compiles every document written below them.
type Controller interface {
	Enabled() bool
	// Watch starts mirroring root, which holds documents of the connection laid out by mapper.DocumentPath.
	Watch(root, connectionKey string, addCategory bool) error
	Unwatch(root string) error
	Roots() []string
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Config    config.Provider
	Logger    *zap.SugaredLogger
	Lifecycle fx.Lifecycle
	DocSync   docsync.Controller
	FS        fs.LocalFS
}

type mirror struct {
	root          string
	connectionKey string
	addCategory   bool
}

type controller struct {
	enabled  bool
	debounce time.Duration
	docSync  docsync.Controller
	fs       fs.LocalFS
	logger   *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	mirrors map[string]mirror
	pending map[string]*time.Timer
	stopped bool
}

// New creates a controller. The watcher only runs while the app is started.
func New(p Params) (Controller, error) {
	c := &controller{
		debounce: _defaultDebounce,
		docSync:  p.DocSync,
		fs:       p.FS,
		logger:   p.Logger.With("plugin", _nameKey),
		mirrors:  make(map[string]mirror),
		pending:  make(map[string]*time.Timer),
	}
	if err := p.Config.Get(_configKeyEnabled).Populate(&c.enabled); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyEnabled, err)
	}
	if err := p.Config.Get(_configKeyDebounce).Populate(&c.debounce); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyDebounce, err)
	}
	if !c.enabled {
		return c, nil
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(context.Context) error { return c.start() },
		OnStop:  func(context.Context) error { return c.stop() },
	})
	return c, nil
}

func (c *controller) Enabled() bool {
	return c.enabled
}

func (c *controller) start() error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	c.mu.Lock()
	c.watcher = w
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.mu.Unlock()

	c.wg.Add(1)
	go c.loop(w)
	return nil
}

func (c *controller) stop() error {
	c.mu.Lock()
	c.stopped = true
	w := c.watcher
	for path, t := range c.pending {
		if t.Stop() {
			c.wg.Done()
		}
		delete(c.pending, path)
	}
	c.mu.Unlock()

	if w == nil {
		return nil
	}
	c.cancel()
	err := w.Close()
	c.wg.Wait()
	return err
}

func (c *controller) Watch(root, connectionKey string, addCategory bool) error {
	if !c.enabled {
		return ErrDisabled
	}
	root = filepath.Clean(root)
	dirs, err := c.fs.SubDirs(root)
	if err != nil {
		return fmt.Errorf("listing %q: %w", root, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher == nil || c.stopped {
		return errors.New("local watch is not running")
	}
	for _, dir := range dirs {
		if err := c.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %q: %w", dir, err)
		}
	}
	c.mirrors[root] = mirror{root: root, connectionKey: connectionKey, addCategory: addCategory}
	c.logger.Infow("watching local mirror", "root", root, "connection", connectionKey, "directories", len(dirs))
	return nil
}

func (c *controller) Unwatch(root string) error {
	root = filepath.Clean(root)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.mirrors[root]; !ok {
		return fmt.Errorf("%q is not watched", root)
	}
	delete(c.mirrors, root)
	if c.watcher == nil {
		return nil
	}
	for _, dir := range c.watcher.WatchList() {
		if dir == root || strings.HasPrefix(dir, root+string(filepath.Separator)) {
			// Removing a directory that was deleted in the meantime fails, which is fine.
			_ = c.watcher.Remove(dir)
		}
	}
	return nil
}

func (c *controller) Roots() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	roots := make([]string, 0, len(c.mirrors))
	for root := range c.mirrors {
		roots = append(roots, root)
	}
	sort.Strings(roots)
	return roots
}

func (c *controller) loop(w *fsnotify.Watcher) {
	defer c.wg.Done()
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			c.handle(w, event)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			c.logger.Warnw("watch error", zap.Error(err))
		}
	}
}

func (c *controller) handle(w *fsnotify.Watcher, event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	m, ok := c.mirrorOf(event.Name)
	if !ok {
		return
	}

	if event.Has(fsnotify.Create) {
		if isDir, _ := c.fs.DirExists(event.Name); isDir {
			if err := w.Add(event.Name); err != nil {
				c.logger.Warnw("watching new directory", "path", event.Name, zap.Error(err))
			}
			return
		}
	}
	c.schedule(event.Name, m)
}

// mirrorOf returns the watched root containing path.
func (c *controller) mirrorOf(path string) (mirror, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for root, m := range c.mirrors {
		if strings.HasPrefix(path, root+string(filepath.Separator)) {
			return m, true
		}
	}
	return mirror{}, false
}

// schedule compiles path once no further event arrived for it during the debounce interval.
func (c *controller) schedule(path string, m mirror) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	if t, ok := c.pending[path]; ok && t.Stop() {
		t.Reset(c.debounce)
		return
	}

	c.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(c.debounce, func() {
		defer c.wg.Done()
		c.mu.Lock()
		if c.pending[path] == t {
			delete(c.pending, path)
		}
		c.mu.Unlock()
		c.sync(path, m)
	})
	c.pending[path] = t
}

func (c *controller) sync(path string, m mirror) {
	data, err := c.fs.ReadFile(path)
	if err != nil {
		c.logger.Debugw("reading changed file", "path", path, zap.Error(err))
		return
	}
	name, err := mapper.PathToDocumentName(m.root, path, m.addCategory)
	if err != nil {
		c.logger.Debugw("ignoring file that is not a document", "path", path, zap.Error(err))
		return
	}
	if last, ok := c.docSync.LastWritten(path); ok && bytes.Equal(last, data) {
		return
	}

	outcome, err := c.docSync.CompileAndSync(c.ctx, entity.CompileRequest{
		ConnectionKey: m.connectionKey,
		Name:          name,
		Content:       string(data),
		LocalPath:     path,
	})
	if err != nil {
		c.logger.Warnw("compiling changed document", "name", name, "path", path, zap.Error(err))
		return
	}
	c.logger.Infow("compiled changed document", "name", name, "refreshed", outcome.Refreshed)
}
