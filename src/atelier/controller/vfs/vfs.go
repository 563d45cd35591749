// Package vfs serves server documents as a virtual filesystem addressed by isfs URIs.
package vfs

//go:generate mockgen -source=vfs.go -destination=vfsmock/vfs_mock.go -package=vfsmock

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/controller/connection"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/atelier"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.lsp.dev/uri"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_nameKey = "vfs"

	// _snapshotTTL bounds how long a document fetched by Stat may answer the ReadFile that follows it.
	_snapshotTTL = 2 * time.Second
)

// Module is the Fx module for this package.
var Module = fx.Provide(New)

// Controller answers filesystem requests of the editor for isfs URIs.
type Controller interface {
	Stat(ctx context.Context, u uri.URI) (*entity.FileStat, error)
	ReadFile(ctx context.Context, u uri.URI) ([]byte, error)
	// ReadDirectory lists a package or web application folder. Folders listed before are answered from memory.
	ReadDirectory(ctx context.Context, u uri.URI) ([]entity.DirectoryEntry, error)
	// Refresh forgets what is known about a folder, so the next ReadDirectory asks the server again.
	Refresh(u uri.URI) error
	// Watch is accepted for every URI, but no change events are ever sent since the server can't push them.
	Watch(ctx context.Context, u uri.URI) (dispose func(), err error)
	FileSearch(ctx context.Context, folder uri.URI, pattern string, maxResults int) ([]uri.URI, error)
	TextSearch(ctx context.Context, folder uri.URI, params entity.SearchParams) ([]mapper.TextSearchMatch, error)
	// Forget drops what Stat kept of the named document, so the next ReadFile fetches it again.
	Forget(name string)
}

// Params are inbound parameters to initialize a new controller.
type Params struct {
	fx.In

	Logger      *zap.SugaredLogger
	Stats       tally.Scope
	Connections connection.Manager
}

type controller struct {
	connections connection.Manager
	logger      *zap.SugaredLogger
	stats       tally.Scope

	treesMu sync.Mutex
	// trees holds one directory tree per connection key and kind of folder.
	trees map[string]*node

	snapshotsMu sync.Mutex
	// snapshots holds documents fetched by Stat until the matching ReadFile or until they expire.
	snapshots map[string]snapshot
	now       func() time.Time
}

type snapshot struct {
	doc       *entity.DocumentSnapshot
	fetchedAt time.Time
}

// New creates a new virtual filesystem controller.
func New(p Params) Controller {
	return &controller{
		connections: p.Connections,
		logger:      p.Logger.With("plugin", _nameKey),
		stats:       p.Stats.SubScope("vfs"),
		trees:       make(map[string]*node),
		snapshots:   make(map[string]snapshot),
		now:         time.Now,
	}
}

func (c *controller) Stat(ctx context.Context, u uri.URI) (*entity.FileStat, error) {
	su, client, err := c.resolve(ctx, u)
	if err != nil {
		return nil, err
	}
	if !su.IsDocument() {
		return &entity.FileStat{Type: entity.FileTypeDirectory}, nil
	}

	doc, err := c.fetch(ctx, client, su)
	if err != nil {
		return nil, err
	}
	data, err := content(doc)
	if err != nil {
		return nil, &errors.FileNotFoundError{URI: string(u), Err: err}
	}

	c.snapshotsMu.Lock()
	now := c.now()
	for key, snap := range c.snapshots {
		if now.Sub(snap.fetchedAt) > _snapshotTTL {
			delete(c.snapshots, key)
		}
	}
	c.snapshots[su.String()] = snapshot{doc: doc, fetchedAt: now}
	c.snapshotsMu.Unlock()

	// A malformed timestamp leaves the times at zero rather than failing the stat.
	mtime, _ := entity.ParseTimestamp(doc.Timestamp)
	return &entity.FileStat{
		Type:  entity.FileTypeFile,
		Size:  len(data),
		MTime: mtime,
		CTime: mtime,
	}, nil
}

func (c *controller) ReadFile(ctx context.Context, u uri.URI) ([]byte, error) {
	su, client, err := c.resolve(ctx, u)
	if err != nil {
		return nil, err
	}
	if !su.IsDocument() {
		return nil, &errors.FileNotFoundError{URI: string(u), Err: errors.New("is a directory")}
	}

	c.snapshotsMu.Lock()
	snap, ok := c.snapshots[su.String()]
	delete(c.snapshots, su.String())
	c.snapshotsMu.Unlock()

	doc := snap.doc
	if !ok || c.now().Sub(snap.fetchedAt) > _snapshotTTL {
		if doc, err = c.fetch(ctx, client, su); err != nil {
			return nil, err
		}
	}
	data, err := content(doc)
	if err != nil {
		return nil, &errors.FileNotFoundError{URI: string(u), Err: err}
	}
	return data, nil
}

func (c *controller) Forget(name string) {
	c.snapshotsMu.Lock()
	defer c.snapshotsMu.Unlock()
	for key, snap := range c.snapshots {
		if snap.doc.Name == name {
			delete(c.snapshots, key)
		}
	}
}

func (c *controller) Watch(ctx context.Context, u uri.URI) (func(), error) {
	return func() {}, nil
}

// resolve parses u and returns the client of its connection.
func (c *controller) resolve(ctx context.Context, u uri.URI) (mapper.ServerURI, atelier.Client, error) {
	su, err := mapper.ParseServerURI(string(u))
	if err != nil {
		return mapper.ServerURI{}, nil, err
	}
	client, err := c.connections.Client(ctx, su.ConnectionKey())
	if err != nil {
		return mapper.ServerURI{}, nil, err
	}
	return su, client, nil
}

// fetch gets the document at su. Every failure is reported as a missing file.
func (c *controller) fetch(ctx context.Context, client atelier.Client, su mapper.ServerURI) (*entity.DocumentSnapshot, error) {
	c.stats.Counter("fetches").Inc(1)
	doc, err := client.GetDoc(ctx, su.DocumentName(), entity.GetDocOptions{})
	if err != nil {
		c.logger.Debugw("fetching document failed", "uri", su.String(), zap.Error(err))
		return nil, &errors.FileNotFoundError{URI: su.String(), Err: err}
	}
	return doc, nil
}

// content returns the file bytes of a document: its lines joined with \n, or the decoded data of a binary document.
func content(doc *entity.DocumentSnapshot) ([]byte, error) {
	if !doc.Binary {
		return []byte(doc.Text()), nil
	}
	data, err := base64.StdEncoding.DecodeString(strings.Join(doc.Content, ""))
	if err != nil {
		return nil, fmt.Errorf("decoding %q: %w", doc.Name, err)
	}
	return data, nil
}
