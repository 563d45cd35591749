package mapper

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"

	"github.com/uber/atelier-sync/src/atelier/entity"
	"go.lsp.dev/uri"
)

const (
	// SchemeISFS is the scheme of server-backed virtual files.
	SchemeISFS = "isfs"
	// SchemeISFSReadOnly is the read-only variant of SchemeISFS.
	SchemeISFSReadOnly = "isfs-readonly"

	_queryNamespace = "ns"
	_queryCSP       = "csp"
)

// ServerURI is a parsed isfs://<folder>[:<ns>]/<path>?ns=<NS>[&csp] URI.
// The authority is kept verbatim because url.Parse rejects a non-numeric port.
type ServerURI struct {
	Scheme    string
	Authority string
	// Folder is the workspace folder part of the authority.
	Folder string
	// Namespace is the ns query parameter, falling back to the namespace in the authority.
	Namespace string
	Path      string
	Query     url.Values
}

// ParseServerURI parses an isfs URI.
func ParseServerURI(s string) (ServerURI, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok || (scheme != SchemeISFS && scheme != SchemeISFSReadOnly) {
		return ServerURI{}, fmt.Errorf("%q is not an %s URI", s, SchemeISFS)
	}
	rest, _, _ = strings.Cut(rest, "#")

	authority := rest
	remainder := ""
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority, remainder = rest[:i], rest[i:]
	}
	if authority == "" {
		return ServerURI{}, fmt.Errorf("%q has no workspace folder", s)
	}

	rawPath, rawQuery, _ := strings.Cut(remainder, "?")
	p, err := url.PathUnescape(rawPath)
	if err != nil {
		return ServerURI{}, fmt.Errorf("parsing path of %q: %w", s, err)
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return ServerURI{}, fmt.Errorf("parsing query of %q: %w", s, err)
	}

	folder, ns, _ := strings.Cut(authority, ":")
	if q := query.Get(_queryNamespace); q != "" {
		ns = q
	}

	return ServerURI{
		Scheme:    scheme,
		Authority: authority,
		Folder:    folder,
		Namespace: ns,
		Path:      cleanPath(p),
		Query:     query,
	}, nil
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean("/" + p)
}

// CSP reports whether the URI addresses web application files rather than packages.
func (u ServerURI) CSP() bool {
	_, ok := u.Query[_queryCSP]
	return ok
}

// String formats the URI. Path segments are escaped; the query is encoded in key order.
func (u ServerURI) String() string {
	escaped := (&url.URL{Path: u.Path}).EscapedPath()
	s := fmt.Sprintf("%s://%s%s", u.Scheme, u.Authority, escaped)
	if len(u.Query) > 0 {
		s += "?" + encodeQuery(u.Query)
	}
	return s
}

// encodeQuery is url.Values.Encode except that flags with an empty value, such as csp, are written without "=".
func encodeQuery(q url.Values) string {
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		for _, v := range q[k] {
			if v == "" {
				parts = append(parts, url.QueryEscape(k))
			} else {
				parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v))
			}
		}
	}
	return strings.Join(parts, "&")
}

// URI returns the URI in go.lsp.dev/uri form.
func (u ServerURI) URI() uri.URI {
	return uri.URI(u.String())
}

// WithPath returns a copy of u addressing p.
func (u ServerURI) WithPath(p string) ServerURI {
	u.Path = cleanPath(p)
	return u
}

// ConnectionKey returns the key the connection resolver uses for this URI. Paths are dropped since they do not affect the connection.
func (u ServerURI) ConnectionKey() string {
	return u.WithPath("/").String()
}

// IsDocument reports whether the path names a document rather than a directory.
func (u ServerURI) IsDocument() bool {
	base := path.Base(u.Path)
	if u.CSP() {
		return strings.Contains(base, ".")
	}
	return isPackagedDocument(base)
}

// isOtherDocument recognizes the extensions of the non-class, non-routine documents a server lists next to packages.
func isOtherDocument(base string) bool {
	switch entity.Extension(base) {
	case "dfi", "lut", "hl7", "x12", "bpl", "dtl", "pkg", "gbl", "zpm":
		return true
	}
	return false
}

// DocumentName maps the path to a server document name: package directories join with dots, while web application paths are used as-is.
func (u ServerURI) DocumentName() string {
	if u.CSP() {
		return u.Path
	}
	return strings.ReplaceAll(strings.TrimPrefix(u.Path, "/"), "/", ".")
}

// DirectoryPrefix returns the name prefix shared by every document under the directory: "A.B." for /A/B, "/csp/user/" for a web application path, "" for the root.
func (u ServerURI) DirectoryPrefix() string {
	if u.CSP() {
		if u.Path == "/" {
			return "/"
		}
		return u.Path + "/"
	}
	name := u.DocumentName()
	if name == "" {
		return ""
	}
	return name + "."
}

// DocumentNameToPath maps a document name to its virtual path, the inverse of DocumentName.
func DocumentNameToPath(name string, csp bool) string {
	if csp || strings.HasPrefix(name, "/") {
		return cleanPath(name)
	}

	if entity.Extension(name) == "" {
		return "/" + strings.ReplaceAll(name, ".", "/")
	}
	i := strings.LastIndexByte(name, '.')
	return "/" + strings.ReplaceAll(name[:i], ".", "/") + name[i:]
}
