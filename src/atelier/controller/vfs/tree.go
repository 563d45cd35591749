package vfs

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/mapper"
	"go.lsp.dev/uri"
)

// _listQuery lists every document whose name matches the pattern parameter, flattened across packages.
const _listQuery = "SELECT Name, Type FROM %Library.RoutineMgr_StudioOpenDialog(?,1,1,0,1,0,0)"

// node is a directory or file of the tree cache.
type node struct {
	name string
	// fullName is the document name of a file, or the package name or web application path of a directory.
	fullName string
	dir      bool
	// populated is set once every descendant of a directory is known.
	populated bool
	children  map[string]*node
}

func newDir(name, fullName string) *node {
	return &node{name: name, fullName: fullName, dir: true, children: make(map[string]*node)}
}

// child returns the named directory below n, creating it when missing.
func (n *node) child(name, fullName string) *node {
	if c, ok := n.children[name]; ok {
		return c
	}
	c := newDir(name, fullName)
	n.children[name] = c
	return c
}

func (n *node) entries() []entity.DirectoryEntry {
	entries := make([]entity.DirectoryEntry, 0, len(n.children))
	for _, c := range n.children {
		entries = append(entries, entity.DirectoryEntry{Name: c.name, FullName: c.fullName, IsDirectory: c.dir})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries
}

// markPopulated marks n and every directory below it as fully known.
func (n *node) markPopulated() {
	n.populated = true
	for _, c := range n.children {
		if c.dir {
			c.markPopulated()
		}
	}
}

// treeKey separates the package tree from the web application tree of a connection.
func treeKey(su mapper.ServerURI) string {
	if su.CSP() {
		return su.ConnectionKey() + "#csp"
	}
	return su.ConnectionKey()
}

func segments(p string) []string {
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// find returns the cached directory at su, or nil when it isn't cached. listed reports whether the closest cached
// ancestor was listed, in which case a missing directory is known not to exist. Must be called with treesMu held.
func (c *controller) find(su mapper.ServerURI) (n *node, listed bool) {
	n, ok := c.trees[treeKey(su)]
	if !ok {
		return nil, false
	}
	for _, seg := range segments(su.Path) {
		child, ok := n.children[seg]
		if !ok || !child.dir {
			return nil, n.populated
		}
		n = child
	}
	return n, n.populated
}

// attach creates the directory at su with the missing directories on the way. Must be called with treesMu held.
func (c *controller) attach(su mapper.ServerURI) *node {
	root, ok := c.trees[treeKey(su)]
	if !ok {
		root = newDir("", "")
		c.trees[treeKey(su)] = root
	}

	n := root
	walked := ""
	for _, seg := range segments(su.Path) {
		walked += "/" + seg
		n = n.child(seg, su.WithPath(walked).DocumentName())
	}
	return n
}

func (c *controller) ReadDirectory(ctx context.Context, u uri.URI) ([]entity.DirectoryEntry, error) {
	su, client, err := c.resolve(ctx, u)
	if err != nil {
		return nil, err
	}
	if su.IsDocument() {
		return nil, fmt.Errorf("%q is not a directory", u)
	}

	c.treesMu.Lock()
	if n, _ := c.find(su); n != nil && n.populated {
		entries := n.entries()
		c.treesMu.Unlock()
		c.stats.Counter("directory_cache_hits").Inc(1)
		return entries, nil
	}
	c.treesMu.Unlock()

	prefix := su.DirectoryPrefix()
	rows, err := client.ActionQuery(ctx, _listQuery, []interface{}{prefix + "*"})
	if err != nil {
		return nil, err
	}

	listing := newDir(path.Base(su.Path), su.DocumentName())
	dirSegments := segments(su.Path)
	for _, row := range rows {
		name := row.String("Name")
		if !strings.HasPrefix(name, prefix) || name == prefix {
			continue
		}
		if su.CSP() != strings.HasPrefix(name, "/") {
			continue
		}

		rel := segments(mapper.DocumentNameToPath(name, su.CSP()))
		if len(rel) <= len(dirSegments) {
			continue
		}
		rel = rel[len(dirSegments):]

		n := listing
		walked := su.Path
		for _, seg := range rel[:len(rel)-1] {
			walked = strings.TrimSuffix(walked, "/") + "/" + seg
			n = n.child(seg, su.WithPath(walked).DocumentName())
		}
		file := rel[len(rel)-1]
		n.children[file] = &node{name: file, fullName: name}
	}
	listing.markPopulated()

	c.treesMu.Lock()
	defer c.treesMu.Unlock()

	// An empty folder below a listed parent doesn't exist on the server, so the parent's listing stays as it is.
	existing, listed := c.find(su)
	if existing == nil && listed && len(listing.children) == 0 {
		return listing.entries(), nil
	}
	dir := existing
	if dir == nil {
		dir = c.attach(su)
	}
	dir.children = listing.children
	dir.populated = true
	return dir.entries(), nil
}

func (c *controller) Refresh(u uri.URI) error {
	su, err := mapper.ParseServerURI(string(u))
	if err != nil {
		return err
	}

	c.treesMu.Lock()
	defer c.treesMu.Unlock()

	n, ok := c.trees[treeKey(su)]
	for _, seg := range segments(su.Path) {
		if !ok {
			return nil
		}
		n, ok = n.children[seg]
	}
	if !ok || !n.dir {
		return nil
	}
	// The parent keeps listing the folder, only its content is forgotten.
	n.children = make(map[string]*node)
	n.populated = false
	return nil
}
