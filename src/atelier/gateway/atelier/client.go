// Package atelier exposes the typed operations of the Atelier REST API for one server session.
package atelier

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/gateway/transport"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
)

// _minAPISearch is the first API version with the search action.
const _minAPISearch = 2

//go:generate mockgen -source=client.go -destination=atelierclientmock/client_mock.go -package=atelierclientmock

// Client issues typed Atelier API calls against a single Session.
// All methods honour context cancellation and fail with the typed errors of the internal/errors package.
type Client interface {
	// ServerInfo returns the server capabilities and negotiates the API version used by later calls.
	ServerInfo(ctx context.Context) (*entity.ServerInfo, error)
	GetDocNames(ctx context.Context, query entity.DocNamesQuery) ([]entity.DocName, error)
	GetDoc(ctx context.Context, name string, opts entity.GetDocOptions) (*entity.DocumentSnapshot, error)
	// PutDoc stores a document. When ignoreConflict is set the server does not compare timestamps and the last writer wins.
	PutDoc(ctx context.Context, name string, doc entity.DocContent, ignoreConflict bool) error
	ActionCompile(ctx context.Context, names []string, flags string) (*entity.CompileResult, error)
	ActionIndex(ctx context.Context, names []string) ([]entity.DocIndex, error)
	ActionQuery(ctx context.Context, query string, params []interface{}) ([]entity.QueryRow, error)
	ActionSearch(ctx context.Context, params entity.SearchParams) ([]entity.SearchResult, error)
	Spec() entity.ConnectionSpec
}

type client struct {
	doer transport.Doer
}

// New returns a Client issuing its requests through doer.
func New(doer transport.Doer) Client {
	return &client{doer: doer}
}

func (c *client) Spec() entity.ConnectionSpec {
	return c.doer.Spec()
}

// apiVersion returns the negotiated version, asking the server on first use.
func (c *client) apiVersion(ctx context.Context) (int, error) {
	if v := c.doer.APIVersion(); v > 0 {
		return v, nil
	}
	if _, err := c.ServerInfo(ctx); err != nil {
		return 0, err
	}
	return c.doer.APIVersion(), nil
}

// call issues a request under /v{version}/{namespace}/ and decodes the response envelope.
func (c *client) call(ctx context.Context, method string, path []string, query url.Values, body interface{}, subject string) (*envelope, error) {
	version, err := c.apiVersion(ctx)
	if err != nil {
		return nil, err
	}

	segments := append([]string{"v" + strconv.Itoa(version), c.doer.Spec().Namespace}, path...)
	return c.send(ctx, transport.Request{Method: method, Segments: segments, Query: query, Body: body}, subject)
}

func (c *client) send(ctx context.Context, r transport.Request, subject string) (*envelope, error) {
	resp, err := c.doer.Do(ctx, r)
	if err != nil {
		return nil, c.mapError(subject, err)
	}
	return decodeEnvelope(endpointName(r), resp)
}

// mapError converts an HTTPError into the Atelier error it stands for. Other errors are returned unchanged.
func (c *client) mapError(subject string, err error) error {
	var httpErr *errors.HTTPError
	if !stderrors.As(err, &httpErr) {
		return err
	}

	text := serverText(httpErr.Body)
	switch httpErr.StatusCode {
	case http.StatusUnauthorized:
		return &errors.UnauthorizedError{Host: c.doer.Spec().Authority(), ServerText: text}
	case http.StatusConflict:
		return &errors.ConflictError{Name: subject, ServerText: text}
	default:
		return &errors.APIError{Code: httpErr.StatusCode, Message: httpErr.Error(), ServerText: text}
	}
}

func (c *client) ServerInfo(ctx context.Context) (*entity.ServerInfo, error) {
	env, err := c.send(ctx, transport.Request{Method: http.MethodGet}, "")
	if err != nil {
		return nil, err
	}
	if err := env.requireNoErrors(); err != nil {
		return nil, err
	}

	var content serverInfoContent
	if err := env.decodeResult("content", &content); err != nil {
		return nil, err
	}

	info := content.toEntity()
	version := info.API
	if version <= 0 {
		version = entity.DefaultAPIVersion
	}
	if limit := c.doer.Spec().APIVersion; limit > 0 && limit < version {
		version = limit
	}
	c.doer.SetAPIVersion(version)

	return info, nil
}

func (c *client) GetDocNames(ctx context.Context, q entity.DocNamesQuery) ([]entity.DocName, error) {
	category := q.Category
	if category == "" {
		category = entity.CategoryAll
	}

	query := url.Values{"generated": {boolParam(q.Generated)}}
	if q.Filter != "" {
		query.Set("filter", q.Filter)
	}

	env, err := c.call(ctx, http.MethodGet, []string{"docnames", string(category)}, query, nil, "")
	if err != nil {
		return nil, err
	}
	if err := env.requireNoErrors(); err != nil {
		return nil, err
	}

	var names []entity.DocName
	if err := env.decodeResult("content", &names); err != nil {
		return nil, err
	}
	return names, nil
}

func (c *client) GetDoc(ctx context.Context, name string, opts entity.GetDocOptions) (*entity.DocumentSnapshot, error) {
	if name == "" {
		return nil, errors.NoDocumentNameError
	}

	var query url.Values
	if opts.StorageOnly {
		query = url.Values{"storageOnly": {"1"}}
	}

	env, err := c.call(ctx, http.MethodGet, docPath(name), query, nil, name)
	if err != nil {
		return nil, err
	}
	if err := env.requireNoErrors(); err != nil {
		return nil, err
	}

	var doc docResult
	if err := env.decodeResult("", &doc); err != nil {
		return nil, err
	}
	if doc.Content == nil {
		return nil, &errors.ProtocolError{Endpoint: env.endpoint, Reason: "document has no content"}
	}
	return doc.toEntity(name), nil
}

func (c *client) PutDoc(ctx context.Context, name string, doc entity.DocContent, ignoreConflict bool) error {
	if name == "" {
		return errors.NoDocumentNameError
	}

	var query url.Values
	if ignoreConflict {
		query = url.Values{"ignoreConflict": {"1"}}
	}

	content := doc.Content
	if content == nil {
		content = []string{}
	}
	body := putDocBody{Enc: doc.Binary, Content: content}

	env, err := c.call(ctx, http.MethodPut, docPath(name), query, body, name)
	if err != nil {
		return err
	}
	return env.requireNoErrors()
}

func (c *client) ActionCompile(ctx context.Context, names []string, flags string) (*entity.CompileResult, error) {
	query := url.Values{}
	if flags != "" {
		query.Set("flags", flags)
	}

	env, err := c.call(ctx, http.MethodPost, []string{"action", "compile"}, query, nonNil(names), "")
	if err != nil {
		return nil, err
	}

	// Compile failures are reported in status.errors and belong to the result, not to the call.
	result := &entity.CompileResult{
		Errors:  env.compileErrors(),
		Console: env.Console,
	}
	if result.Console == nil {
		result.Console = []string{}
	}
	return result, nil
}

func (c *client) ActionIndex(ctx context.Context, names []string) ([]entity.DocIndex, error) {
	env, err := c.call(ctx, http.MethodPost, []string{"action", "index"}, nil, nonNil(names), "")
	if err != nil {
		return nil, err
	}
	if err := env.requireNoErrors(); err != nil {
		return nil, err
	}

	var rows []indexRow
	if err := env.decodeResult("content", &rows); err != nil {
		return nil, err
	}

	result := make([]entity.DocIndex, 0, len(rows))
	for _, r := range rows {
		result = append(result, r.toEntity())
	}
	return result, nil
}

func (c *client) ActionQuery(ctx context.Context, query string, params []interface{}) ([]entity.QueryRow, error) {
	if params == nil {
		params = []interface{}{}
	}

	env, err := c.call(ctx, http.MethodPost, []string{"action", "query"}, nil, queryBody{Query: query, Parameters: params}, "")
	if err != nil {
		return nil, err
	}
	if err := env.requireNoErrors(); err != nil {
		return nil, err
	}

	var rows []entity.QueryRow
	if err := env.decodeResult("content", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *client) ActionSearch(ctx context.Context, params entity.SearchParams) ([]entity.SearchResult, error) {
	version, err := c.apiVersion(ctx)
	if err != nil {
		return nil, err
	}
	if version < _minAPISearch {
		return nil, &errors.UnsupportedAPIError{Operation: "search", Required: _minAPISearch, Actual: version}
	}

	env, err := c.call(ctx, http.MethodPost, []string{"action", "search"}, nil, params, "")
	if err != nil {
		return nil, err
	}
	if err := env.requireNoErrors(); err != nil {
		return nil, err
	}

	var results []entity.SearchResult
	if err := env.decodeResult("", &results); err != nil {
		return nil, err
	}
	return results, nil
}

func boolParam(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// docPath returns the path segments addressing a document. The slashes of a web application file name separate segments,
// since front-end web servers commonly reject an encoded slash.
func docPath(name string) []string {
	if !strings.HasPrefix(name, "/") {
		return []string{"doc", name}
	}
	return append([]string{"doc"}, strings.Split(strings.TrimPrefix(name, "/"), "/")...)
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}

func endpointName(r transport.Request) string {
	return fmt.Sprintf("%s /%s", r.Method, joinSegments(r.Segments))
}
