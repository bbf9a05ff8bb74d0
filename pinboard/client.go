// Package pinboard is a client for the Pinboard v1 bookmarking API.
//
// Every method maps to exactly one HTTP request. Nothing is cached and nothing
// is retried: callers that hit the API's rate limits get an *APIError with a
// 429 status back and decide for themselves when to try again.
package pinboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the API root, including the version prefix.
	DefaultBaseURL = "https://api.pinboard.in/v1"

	defaultHTTPTimeout = 10 * time.Second
	defaultUserAgent   = "pinboardapi"
	responseFormat     = "json"
)

// Credentials authenticate token-based calls.
type Credentials struct {
	User  string `validate:"required,excludes=:"`
	Token string `validate:"required"`
}

// AuthString returns the "user:token" value sent as the auth_token parameter.
func (c Credentials) AuthString() string {
	return c.User + ":" + c.Token
}

// Login holds the account password, used only to fetch the API token.
type Login struct {
	User     string `validate:"required,excludes=:"`
	Password string `validate:"required"`
}

// Logger is the subset of a leveled logger the client writes to.
type Logger interface {
	Debugf(format string, v ...any)
	Warnf(format string, v ...any)
}

// Client represents a Pinboard API client. It is safe for concurrent use.
type Client struct {
	BaseURL     *url.URL
	Credentials Credentials
	HTTPClient  *http.Client
	UserAgent   string

	logger Logger
}

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.HTTPClient = hc
	}
}

// WithTimeout sets the per-request timeout. A client supplied through
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.HTTPClient
			hc.Timeout = d
			c.HTTPClient = &hc
		}
	}
}

// WithLogger logs every round trip at debug level.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.UserAgent = ua
	}
}

// NewClient creates a new Pinboard API client rooted at baseURL.
// Credentials may be left empty when the client is only used for AccessToken.
func NewClient(baseURL string, creds Credentials, opts ...Option) (*Client, error) {
	parsedURL, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base URL scheme %q", parsedURL.Scheme)
	}

	c := &Client{
		BaseURL:     parsedURL,
		Credentials: creds,
		HTTPClient: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
		UserAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger != nil {
		hc := *c.HTTPClient
		hc.Transport = newLoggingTransport(hc.Transport, c.logger)
		c.HTTPClient = &hc
	}

	return c, nil
}

// Call performs one token-authenticated operation and returns the response
// body unmodified. auth_token and format are always set by the client; any
// caller-supplied values for those keys are replaced.
func (c *Client) Call(ctx context.Context, op Operation, params url.Values) ([]byte, error) {
	if err := validate.Struct(c.Credentials); err != nil {
		return nil, fmt.Errorf("%w: credentials: %v", ErrInvalidRequest, err)
	}
	ep, ok := op.endpoint()
	if !ok {
		return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidRequest, op)
	}
	if ep.auth != authToken {
		return nil, fmt.Errorf("%w: %s needs a password login, use AccessToken", ErrInvalidRequest, op)
	}
	return c.do(ctx, op, ep, params, nil)
}

// buildURL resolves op to a fully qualified request URL.
func (c *Client) buildURL(op Operation, ep endpoint, params url.Values, login *Login) *url.URL {
	reqURL := c.BaseURL.JoinPath(string(op))

	q := make(url.Values, len(params)+2)
	for k, vs := range params {
		if len(vs) > 0 {
			q[k] = append([]string(nil), vs...)
		}
	}
	q.Set("format", responseFormat)

	switch ep.auth {
	case authBasic:
		q.Del("auth_token")
		if login != nil {
			reqURL.User = url.UserPassword(login.User, login.Password)
		}
	default:
		q.Set("auth_token", c.Credentials.AuthString())
	}

	reqURL.RawQuery = q.Encode()
	return reqURL
}

// do performs the HTTP round trip and classifies failures.
func (c *Client) do(ctx context.Context, op Operation, ep endpoint, params url.Values, login *Login) ([]byte, error) {
	reqURL := c.buildURL(op, ep, params, login)

	req, err := http.NewRequestWithContext(ctx, ep.method, reqURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// url.Error carries the full URL, auth_token included.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("%w: %s %s: %w", ErrTransport, ep.method, op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %w", ErrTransport, op, err)
	}

	if ep.resultKey != "" {
		if err := checkResult(op, ep.resultKey, body); err != nil {
			return nil, err
		}
	}
	return body, nil
}

// checkResult turns {"result_code": "..."} style bodies into a ResultError
// unless the code is "done".
func checkResult(op Operation, key string, body []byte) error {
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, op, err)
	}
	raw, ok := payload[key]
	if !ok {
		return fmt.Errorf("%w: %s: missing %q", ErrDecode, op, key)
	}
	var code string
	if err := json.Unmarshal(raw, &code); err != nil {
		return fmt.Errorf("%w: %s: %q is not a string: %w", ErrDecode, op, key, err)
	}
	if code != "done" {
		return &ResultError{Op: op, Code: code}
	}
	return nil
}

// call encodes opts, dispatches op and, when v is non-nil, decodes the body into it.
func (c *Client) call(ctx context.Context, op Operation, opts any, v any) error {
	params, err := encodeParams(opts)
	if err != nil {
		return err
	}
	body, err := c.Call(ctx, op, params)
	if err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return decodeJSON(op, body, v)
}

func decodeJSON(op Operation, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, op, err)
	}
	return nil
}
