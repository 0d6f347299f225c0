// Package apiclient is the HTTP client for the SaaS backend. It attaches the
// session's bearer credential and the current company to every request,
// unwraps response envelopes and transparently recovers from an expired
// access token by refreshing once and retrying.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	apperrors "github.com/jrsteele09/saas-admin-client/internal/errors"
	"github.com/jrsteele09/saas-admin-client/internal/metrics"
	"github.com/jrsteele09/saas-admin-client/refresh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "saas-admin-client"
	maxResponseBytes = 16 << 20
)

// Credentials is the session the client authenticates with
type Credentials interface {
	refresh.CredentialStore
}

// TenantContext supplies the company requests are scoped to
type TenantContext interface {
	CurrentCompanyID() string
}

type Client struct {
	baseURL        *url.URL
	creds          Credentials
	tenant         TenantContext
	httpClient     *http.Client
	timeout        time.Duration
	refreshTimeout time.Duration
	userAgent      string
	logger         zerolog.Logger
	metrics        *metrics.Metrics
	coordinator    *refresh.Coordinator
}

// Option defines a function type to modify the Client instance.
type Option func(*Client)

func WithTenantContext(tenant TenantContext) Option {
	return func(c *Client) {
		c.tenant = tenant
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds each dispatch (default 15s)
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithRefreshTimeout bounds the refresh exchange (default 15s)
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.refreshTimeout = timeout
	}
}

func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the API rooted at baseURL, e.g.
// "http://localhost:3000/api/v1".
func New(baseURL string, creds Credentials, options ...Option) (*Client, error) {
	if creds == nil {
		return nil, errors.New("[apiclient New] credentials are required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient New] invalid base URL")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("[apiclient New] base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:        base,
		creds:          creds,
		httpClient:     http.DefaultClient,
		timeout:        defaultTimeout,
		refreshTimeout: defaultTimeout,
		userAgent:      defaultUserAgent,
		logger:         log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}

	c.coordinator, err = refresh.New(creds, c.exchangeRefreshToken,
		refresh.WithTimeout(c.refreshTimeout),
		refresh.WithLogger(c.logger),
		refresh.WithMetrics(c.metrics),
	)
	if err != nil {
		return nil, errors.Wrap(err, "[apiclient New] failed to create refresh coordinator")
	}
	return c, nil
}

// Coordinator exposes the client's refresh state machine
func (c *Client) Coordinator() *refresh.Coordinator {
	return c.coordinator
}

// RequestOption adjusts a single request
type RequestOption func(*request)

// WithQuery adds query parameters
func WithQuery(values url.Values) RequestOption {
	return func(r *request) {
		for k, vs := range values {
			for _, v := range vs {
				r.query.Add(k, v)
			}
		}
	}
}

func WithHeader(key, value string) RequestOption {
	return func(r *request) {
		r.header.Set(key, value)
	}
}

type request struct {
	method      string
	path        string
	query       url.Values
	header      http.Header
	payload     []byte
	contentType string
	// anonymous requests carry no credentials and never trigger a refresh
	anonymous bool
}

func (c *Client) Get(ctx context.Context, path string, out any, options ...RequestOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, options...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, options ...RequestOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, options...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, options ...RequestOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, options...)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, options ...RequestOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, options...)
}

func (c *Client) Delete(ctx context.Context, path string, body, out any, options ...RequestOption) error {
	return c.Do(ctx, http.MethodDelete, path, body, out, options...)
}

// Do sends a JSON request and decodes the unwrapped response into out. A nil
// body sends no payload; a nil out discards the response.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, options ...RequestOption) error {
	r, err := newRequest(method, path, options...)
	if err != nil {
		return err
	}
	if body != nil {
		r.payload, err = json.Marshal(body)
		if err != nil {
			return apperrors.Wrapf(err, "[apiclient Do] failed to encode %s %s body", method, path)
		}
		r.contentType = "application/json"
	}
	return c.execute(ctx, r, out)
}

func newRequest(method, path string, options ...RequestOption) (*request, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, errors.Errorf("[apiclient] path %q must start with /", path)
	}
	r := &request{method: method, path: path, query: url.Values{}, header: http.Header{}}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// execute dispatches r and, on a 401, refreshes the session and retries once
func (c *Client) execute(ctx context.Context, r *request, out any) error {
	accessToken := ""
	if !r.anonymous {
		accessToken = c.creds.AccessToken()
	}

	body, err := c.send(ctx, r, accessToken)
	if err != nil && !r.anonymous && r.path != AuthRefreshRoute && StatusCode(err) == http.StatusUnauthorized {
		newToken, refreshErr := c.coordinator.Refresh(ctx, accessToken)
		if refreshErr != nil {
			return fmt.Errorf("%w: %w", err, refreshErr)
		}
		body, err = c.send(ctx, r, newToken)
	}
	if err != nil {
		return err
	}
	return decode(r, body, out)
}

func (c *Client) send(ctx context.Context, r *request, accessToken string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// r.path is already escaped; ids in it may carry %2F and friends
	target := *c.baseURL
	rawPath := c.baseURL.EscapedPath() + r.path
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[apiclient send] invalid path %s", r.path)
	}
	target.Path = decoded
	target.RawPath = rawPath
	target.RawQuery = r.query.Encode()

	var reader io.Reader
	if r.payload != nil {
		reader = bytes.NewReader(r.payload)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target.String(), reader)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[apiclient send] failed to build %s %s", r.method, r.path)
	}

	for k, vs := range r.header {
		req.Header[k] = vs
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if accessToken != "" {
		(&oauth2.Token{AccessToken: accessToken}).SetAuthHeader(req)
	}
	if !r.anonymous && c.tenant != nil {
		if companyID := c.tenant.CurrentCompanyID(); companyID != "" {
			req.Header.Set(CompanyIDHeader, companyID)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(r.method, 0)
		c.logger.Debug().Err(err).Str("method", r.method).Str("path", r.path).Msg("Request failed")
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.metrics.ObserveRequest(r.method, 0)
		return nil, &NetworkError{Method: r.method, Path: r.path, Err: err}
	}
	c.metrics.ObserveRequest(r.method, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug().Str("method", r.method).Str("path", r.path).Int("status", resp.StatusCode).Msg("Request rejected")
		return nil, newAPIError(r.method, r.path, resp.StatusCode, body)
	}
	return body, nil
}

func decode(r *request, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(UnwrapEnvelope(body), out); err != nil {
		return apperrors.Wrapf(err, "[apiclient] failed to decode %s %s response", r.method, r.path)
	}
	return nil
}

// exchangeRefreshToken trades the refresh token for a new pair. It goes out
// without the stale bearer and is never itself retried.
func (c *Client) exchangeRefreshToken(ctx context.Context, refreshToken string) (refresh.Pair, error) {
	r, err := newRequest(http.MethodPost, AuthRefreshRoute)
	if err != nil {
		return refresh.Pair{}, err
	}
	r.anonymous = true
	r.contentType = "application/json"
	r.payload, err = json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return refresh.Pair{}, err
	}

	var pair refresh.Pair
	if err := c.execute(ctx, r, &pair); err != nil {
		return refresh.Pair{}, err
	}
	return pair, nil
}

// Anonymous sends a request without credentials or company scoping. Used for
// the public auth endpoints.
func (c *Client) Anonymous(ctx context.Context, method, path string, body, out any, options ...RequestOption) error {
	r, err := newRequest(method, path, options...)
	if err != nil {
		return err
	}
	r.anonymous = true
	if body != nil {
		r.payload, err = json.Marshal(body)
		if err != nil {
			return apperrors.Wrapf(err, "[apiclient Anonymous] failed to encode %s %s body", method, path)
		}
		r.contentType = "application/json"
	}
	return c.execute(ctx, r, out)
}
