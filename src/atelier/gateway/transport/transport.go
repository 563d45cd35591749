// Package transport issues requests against the Atelier REST API on behalf of one server session.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	tally "github.com/uber-go/tally/v4"
	"github.com/uber/atelier-sync/src/atelier/entity"
	"github.com/uber/atelier-sync/src/atelier/internal/errors"
	"github.com/uber/atelier-sync/src/atelier/internal/status"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_apiRoot = "/api/atelier/"

	_configKeyRequestTimeout  = "transport.requestTimeout"
	_configKeyMaxConnsPerHost = "transport.maxConnsPerHost"

	_defaultRequestTimeout  = 30 * time.Second
	_defaultMaxConnsPerHost = 10
	_idleConnTimeout        = 90 * time.Second
)

// Module is the Fx module for this package.
var Module = fx.Provide(NewFactory)

// Request describes one call to the Atelier API. Segments are appended to the API root and escaped individually.
type Request struct {
	Method   string
	Segments []string
	Query    url.Values
	// Body is serialized as JSON for PUT and POST requests.
	Body interface{}
}

// Response is a fully read response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	// JSON is set when the server declared a JSON content type.
	JSON json.RawMessage
}

// Doer is the request primitive shared by every operation on one Session.
type Doer interface {
	Do(ctx context.Context, r Request) (*Response, error)
	Spec() entity.ConnectionSpec
	APIVersion() int
	SetAPIVersion(v int)
}

// Factory creates Sessions with the configured transport settings.
type Factory interface {
	NewSession(spec entity.ConnectionSpec) *Session
}

// Params are inbound parameters to initialize a Factory.
type Params struct {
	fx.In

	Config config.Provider
	Logger *zap.SugaredLogger
	Stats  tally.Scope
	Status status.Tracker
}

type factory struct {
	requestTimeout  time.Duration
	maxConnsPerHost int
	logger          *zap.SugaredLogger
	stats           tally.Scope
	status          status.Tracker
}

// NewFactory reads the transport settings from config.
func NewFactory(p Params) (Factory, error) {
	f := &factory{
		requestTimeout:  _defaultRequestTimeout,
		maxConnsPerHost: _defaultMaxConnsPerHost,
		logger:          p.Logger.With("plugin", "transport"),
		stats:           p.Stats.SubScope("transport"),
		status:          p.Status,
	}

	if err := p.Config.Get(_configKeyRequestTimeout).Populate(&f.requestTimeout); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyRequestTimeout, err)
	}
	if err := p.Config.Get(_configKeyMaxConnsPerHost).Populate(&f.maxConnsPerHost); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKeyMaxConnsPerHost, err)
	}
	if f.maxConnsPerHost <= 0 {
		return nil, fmt.Errorf("config field %q must be positive", _configKeyMaxConnsPerHost)
	}

	return f, nil
}

func (f *factory) NewSession(spec entity.ConnectionSpec) *Session {
	return NewSession(spec, Options{
		RequestTimeout:  f.requestTimeout,
		MaxConnsPerHost: f.maxConnsPerHost,
		Logger:          f.logger,
		Stats:           f.stats,
		Status:          f.status,
	})
}

// Options configure a single Session.
type Options struct {
	// RequestTimeout bounds each request. Zero disables the timeout.
	RequestTimeout  time.Duration
	MaxConnsPerHost int
	Logger          *zap.SugaredLogger
	Stats           tally.Scope
	Status          status.Tracker
}

// Session is the connection to one (host, port, namespace). It owns the pooled HTTP client and the cookie jar.
type Session struct {
	spec       entity.ConnectionSpec
	name       string
	baseURL    string
	client     *http.Client
	transport  *http.Transport
	timeout    time.Duration
	jar        CookieJar
	apiVersion atomic.Int64

	logger *zap.SugaredLogger
	stats  tally.Scope
	status status.Tracker
}

// NewSession creates a Session for spec. No request is issued until Do is called.
func NewSession(spec entity.ConnectionSpec, opts Options) *Session {
	maxConns := opts.MaxConnsPerHost
	if maxConns <= 0 {
		maxConns = _defaultMaxConnsPerHost
	}

	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxConnsPerHost = maxConns
	t.MaxIdleConnsPerHost = maxConns
	t.IdleConnTimeout = _idleConnTimeout

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	stats := opts.Stats
	if stats == nil {
		stats = tally.NoopScope
	}

	s := &Session{
		spec:      spec,
		name:      spec.SessionKey().String(),
		baseURL:   spec.BaseURL() + _apiRoot,
		client:    &http.Client{Transport: t},
		transport: t,
		timeout:   opts.RequestTimeout,
		logger:    logger.With("session", spec.SessionKey().String()),
		stats:     stats,
		status:    opts.Status,
	}
	return s
}

// Spec returns the connection parameters the Session was created with.
func (s *Session) Spec() entity.ConnectionSpec {
	return s.spec
}

// Jar returns the cookie jar of the Session.
func (s *Session) Jar() *CookieJar {
	return &s.jar
}

// APIVersion returns the negotiated API version, or 0 before negotiation.
func (s *Session) APIVersion() int {
	return int(s.apiVersion.Load())
}

// SetAPIVersion records the negotiated API version.
func (s *Session) SetAPIVersion(v int) {
	s.apiVersion.Store(int64(v))
}

// Close clears the cookie jar and closes idle connections.
func (s *Session) Close() {
	s.jar.Clear()
	s.transport.CloseIdleConnections()
	s.report(entity.ConnectionStateDisconnected, "")
}

// URL returns the absolute URL for the given request.
func (s *Session) URL(r Request) string {
	escaped := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		escaped = append(escaped, url.PathEscape(seg))
	}

	u := s.baseURL + strings.Join(escaped, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}
	return u
}

// Do issues the request and reads the full response.
// Cookies returned by the server are merged into the jar before Do returns.
func (s *Session) Do(ctx context.Context, r Request) (*Response, error) {
	stats := s.stats.Tagged(map[string]string{"method": r.Method})
	stats.Counter("requests").Inc(1)
	start := time.Now()
	defer func() {
		stats.Timer("latency").Record(time.Since(start))
	}()

	resp, err := s.do(ctx, r)
	if err != nil {
		stats.Counter("errors").Inc(1)
	}
	return resp, err
}

func (s *Session) do(ctx context.Context, r Request) (*Response, error) {
	var body io.Reader
	if r.Method == http.MethodPut || r.Method == http.MethodPost {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	reqCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(reqCtx, r.Method, s.URL(r), body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie := s.jar.Header(); cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	if s.spec.Username != "" {
		req.SetBasicAuth(s.spec.Username, s.spec.Password)
	}

	httpResp, err := s.client.Do(req)
	if err != nil {
		return nil, s.classify(ctx, reqCtx, err)
	}
	defer httpResp.Body.Close()

	s.jar.Merge(httpResp.Header.Values("Set-Cookie"))

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, s.classify(ctx, reqCtx, err)
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Header:     httpResp.Header,
		Body:       data,
	}
	isJSON := strings.Contains(httpResp.Header.Get("Content-Type"), "json")
	if isJSON && json.Valid(data) {
		resp.JSON = data
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		if httpResp.StatusCode == http.StatusUnauthorized {
			s.report(entity.ConnectionStateUnauthorized, "check the username and password")
		} else {
			s.report(entity.ConnectionStateConnected, "")
		}
		s.logger.Debugw("request failed", "method", r.Method, "url", req.URL.Redacted(), "status", httpResp.StatusCode)
		return nil, &errors.HTTPError{
			StatusCode: httpResp.StatusCode,
			StatusText: http.StatusText(httpResp.StatusCode),
			Body:       data,
		}
	}

	s.report(entity.ConnectionStateConnected, "")
	if isJSON && resp.JSON == nil {
		return nil, &errors.ProtocolError{Endpoint: req.URL.Path, Reason: "response declared JSON but the body is not valid JSON"}
	}
	return resp, nil
}

// classify maps a failed round trip to a caller cancellation, a TimeoutError or a NetworkError.
func (s *Session) classify(ctx, reqCtx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var result error
	if reqCtx.Err() == context.DeadlineExceeded {
		result = &errors.TimeoutError{Host: s.spec.Authority(), Timeout: s.timeout}
	} else {
		result = &errors.NetworkError{Host: s.spec.Authority(), Err: err}
	}
	s.report(entity.ConnectionStateError, result.Error())
	return result
}

func (s *Session) report(state entity.ConnectionState, message string) {
	if s.status == nil {
		return
	}
	s.status.Update(s.name, state, message)
}
