// Package ateliertest provides an in-memory Atelier server for tests.
package ateliertest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/uber/atelier-sync/src/atelier/entity"
)

const _sessionCookie = "CSPSESSIONID"

// Doc is a document stored by the Server.
type Doc struct {
	Content   []string
	Timestamp string
	// Storage is returned for storageOnly requests.
	Storage   []string
	Generated bool
}

// Server answers Atelier API requests from memory. Exported maps may be edited before requests are made; use the methods once requests are in flight.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	API      int
	Username string
	Password string
	Docs     map[string]*Doc
	// CompileErrors are reported by compile requests for the named document.
	CompileErrors map[string][]string
	// Others are the related documents reported by index requests.
	Others map[string][]string
	// Conflicts are documents whose writes are rejected unless ignoreConflict is set.
	Conflicts map[string]bool
	// FailGet maps document names to the status returned by GET requests.
	FailGet  map[string]int
	requests []string
	version  int
}

// NewServer starts a Server. Callers must Close it.
func NewServer() *Server {
	s := &Server{
		API:           6,
		Docs:          make(map[string]*Doc),
		CompileErrors: make(map[string][]string),
		Others:        make(map[string][]string),
		Conflicts:     make(map[string]bool),
		FailGet:       make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Spec returns a ConnectionSpec pointing at the server.
func (s *Server) Spec(namespace string) entity.ConnectionSpec {
	u, _ := url.Parse(s.URL)
	port, _ := strconv.Atoi(u.Port())
	return entity.ConnectionSpec{
		Active:    true,
		Host:      u.Hostname(),
		Port:      port,
		Namespace: namespace,
		Username:  s.Username,
		Password:  s.Password,
	}
}

// AddDoc stores a document.
func (s *Server) AddDoc(name string, content ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.Docs[name] = &Doc{Content: content, Timestamp: s.timestamp()}
}

// Content returns the stored lines of a document, or nil if it does not exist.
func (s *Server) Content(name string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d, ok := s.Docs[name]; ok {
		return append([]string(nil), d.Content...)
	}
	return nil
}

// Requests returns "METHOD /path" for every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) timestamp() string {
	return fmt.Sprintf("2024-01-02 03:04:%02d.000", s.version%60)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := strings.TrimPrefix(r.URL.EscapedPath(), "/api/atelier/")
	if strings.Contains(strings.ToUpper(raw), "%2F") {
		writeStatus(w, http.StatusBadRequest, "encoded slash in path")
		return
	}
	var segments []string
	if raw != "" {
		for _, seg := range strings.Split(raw, "/") {
			unescaped, err := url.PathUnescape(seg)
			if err != nil {
				writeStatus(w, http.StatusBadRequest, "bad path")
				return
			}
			segments = append(segments, unescaped)
		}
	}
	s.requests = append(s.requests, r.Method+" /"+strings.Join(segments, "/"))

	if s.Username != "" {
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			writeStatus(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
	}
	if _, err := r.Cookie(_sessionCookie); err != nil {
		http.SetCookie(w, &http.Cookie{Name: _sessionCookie, Value: "fake-session", Path: "/"})
	}

	if len(segments) == 0 {
		writeResult(w, map[string]interface{}{"content": map[string]interface{}{
			"version":    "IRIS for UNIX 2024.1",
			"id":         "fake",
			"api":        s.API,
			"namespaces": []string{"%SYS", "USER"},
			"features":   []interface{}{map[string]interface{}{"name": "ENSEMBLE", "enabled": true}},
		}}, nil, nil)
		return
	}
	if len(segments) < 4 {
		writeStatus(w, http.StatusNotFound, "not found")
		return
	}

	switch {
	case segments[2] == "docnames":
		s.docNames(w, r, segments[3])
	case segments[2] == "doc" && r.Method == http.MethodGet:
		s.getDoc(w, r, docName(segments[3:]))
	case segments[2] == "doc" && r.Method == http.MethodPut:
		s.putDoc(w, r, docName(segments[3:]))
	case segments[2] == "action" && segments[3] == "compile":
		s.compile(w, r)
	case segments[2] == "action" && segments[3] == "index":
		s.index(w, r)
	case segments[2] == "action" && segments[3] == "query":
		s.query(w, r)
	case segments[2] == "action" && segments[3] == "search":
		s.search(w, r)
	default:
		writeStatus(w, http.StatusNotFound, "not found")
	}
}

// docName joins the segments of a web application file name back into its absolute path.
func docName(segments []string) string {
	if len(segments) == 1 {
		return segments[0]
	}
	return "/" + strings.Join(segments, "/")
}

func (s *Server) sortedNames() []string {
	names := make([]string, 0, len(s.Docs))
	for name := range s.Docs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Server) docNames(w http.ResponseWriter, r *http.Request, category string) {
	generated := r.URL.Query().Get("generated") == "1"
	filter := r.URL.Query().Get("filter")

	rows := []entity.DocName{}
	for _, name := range s.sortedNames() {
		doc := s.Docs[name]
		cat := entity.CategoryOf(name)
		if category != string(entity.CategoryAll) && string(cat) != category {
			continue
		}
		if doc.Generated && !generated {
			continue
		}
		if !matchFilter(filter, name) {
			continue
		}
		rows = append(rows, entity.DocName{Name: name, Category: cat, Database: "USER", Generated: doc.Generated, Timestamp: doc.Timestamp})
	}
	writeResult(w, map[string]interface{}{"content": rows}, nil, nil)
}

func matchFilter(filter, name string) bool {
	if filter == "" {
		return true
	}
	if strings.ContainsAny(filter, "*?") {
		ok, _ := path.Match(filter, name)
		return ok
	}
	return strings.Contains(name, filter)
}

func (s *Server) getDoc(w http.ResponseWriter, r *http.Request, name string) {
	if code, ok := s.FailGet[name]; ok {
		writeStatus(w, code, "forced failure for "+name)
		return
	}
	doc, ok := s.Docs[name]
	if !ok {
		writeStatus(w, http.StatusNotFound, fmt.Sprintf("ERROR #16005: Document '%s' does NOT exist", name))
		return
	}

	content := doc.Content
	if r.URL.Query().Get("storageOnly") == "1" {
		content = doc.Storage
	}
	if content == nil {
		content = []string{}
	}
	writeResult(w, map[string]interface{}{
		"name":    name,
		"db":      "USER",
		"ts":      doc.Timestamp,
		"cat":     entity.CategoryOf(name),
		"enc":     false,
		"content": content,
	}, nil, nil)
}

func (s *Server) putDoc(w http.ResponseWriter, r *http.Request, name string) {
	if s.Conflicts[name] && r.URL.Query().Get("ignoreConflict") != "1" {
		writeStatus(w, http.StatusConflict, fmt.Sprintf("ERROR #16024: Document '%s' has been modified", name))
		return
	}

	var body struct {
		Enc     bool     `json:"enc"`
		Content []string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	s.version++
	doc, ok := s.Docs[name]
	if !ok {
		doc = &Doc{}
		s.Docs[name] = doc
	}
	doc.Content = body.Content
	doc.Timestamp = s.timestamp()

	code := http.StatusOK
	if !ok {
		code = http.StatusCreated
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  map[string]interface{}{"errors": []interface{}{}, "summary": ""},
		"console": []string{},
		"result":  map[string]interface{}{"name": name, "ts": doc.Timestamp},
	})
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request) {
	var names []string
	if err := json.NewDecoder(r.Body).Decode(&names); err != nil {
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	errs := []interface{}{}
	console := []string{"", "Compilation started on 01/02/2024 03:04:05 with qualifiers '" + r.URL.Query().Get("flags") + "'"}
	for _, name := range names {
		for _, msg := range s.CompileErrors[name] {
			errs = append(errs, map[string]interface{}{"error": msg, "code": 5030})
			console = append(console, "ERROR: "+msg)
		}
		if doc, ok := s.Docs[name]; ok && len(s.CompileErrors[name]) == 0 {
			s.version++
			doc.Timestamp = s.timestamp()
		}
	}
	console = append(console, "Compilation finished")
	writeResult(w, map[string]interface{}{"content": []interface{}{}}, errs, console)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	var names []string
	if err := json.NewDecoder(r.Body).Decode(&names); err != nil {
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := []interface{}{}
	for _, name := range names {
		doc, ok := s.Docs[name]
		if !ok {
			continue
		}
		others := s.Others[name]
		if others == nil {
			others = []string{}
		}
		rows = append(rows, map[string]interface{}{
			"name":   name,
			"ts":     doc.Timestamp,
			"gen":    doc.Generated,
			"others": others,
			"content": map[string]interface{}{
				"super":      []string{},
				"methods":    []interface{}{},
				"properties": []interface{}{},
			},
		})
	}
	writeResult(w, map[string]interface{}{"content": rows}, nil, nil)
}

// query understands the flat StudioOpenDialog listing: the first parameter is a name prefix followed by "*".
func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query      string        `json:"query"`
		Parameters []interface{} `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}
	if !strings.Contains(body.Query, "StudioOpenDialog") || len(body.Parameters) == 0 {
		writeStatus(w, http.StatusBadRequest, "unsupported query")
		return
	}

	pattern, _ := body.Parameters[0].(string)
	prefix := strings.TrimSuffix(pattern, "*")
	rows := []interface{}{}
	for _, name := range s.sortedNames() {
		if strings.HasPrefix(name, prefix) && !s.Docs[name].Generated {
			rows = append(rows, map[string]interface{}{"Name": name, "Type": string(entity.CategoryOf(name))})
		}
	}
	writeResult(w, map[string]interface{}{"content": rows}, nil, nil)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	var params entity.SearchParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	results := []entity.SearchResult{}
	for _, name := range s.sortedNames() {
		var matches []entity.SearchMatch
		for i, line := range s.Docs[name].Content {
			haystack, needle := line, params.Query
			if !params.Case {
				haystack, needle = strings.ToLower(line), strings.ToLower(needle)
			}
			if strings.Contains(haystack, needle) {
				lineNo := i + 1
				matches = append(matches, entity.SearchMatch{Text: line, Line: &lineNo})
			}
		}
		if len(matches) > 0 {
			results = append(results, entity.SearchResult{Doc: name, Matches: matches})
		}
	}
	writeResult(w, results, nil, nil)
}

func writeResult(w http.ResponseWriter, result interface{}, errs []interface{}, console []string) {
	if errs == nil {
		errs = []interface{}{}
	}
	if console == nil {
		console = []string{}
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  map[string]interface{}{"errors": errs, "summary": ""},
		"console": console,
		"result":  result,
	})
}

func writeStatus(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  map[string]interface{}{"errors": []interface{}{map[string]interface{}{"error": message}}, "summary": message},
		"console": []string{},
		"result":  map[string]interface{}{},
	})
}
