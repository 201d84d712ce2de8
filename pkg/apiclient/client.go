// Package apiclient is an HTTP client for the CivicTrack API that keeps the
// access token in memory, restores sessions from the refresh cookie and
// retries transient failures.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	refreshPath        = "/api/auth/refresh"
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second

	// errorBodyLimit truncates 4xx/5xx bodies; only the message is read.
	errorBodyLimit  = 64 * 1024
	// maxResponseBody bounds successful bodies. Larger ones fail the request.
	maxResponseBody = 16 << 20
)

// Error is the terminal failure of a request. Status is 0 for network
// failures.
type Error struct {
	Message string
	Status  int
	Payload map[string]any
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return "apiclient: " + e.Message
	}
	return fmt.Sprintf("apiclient: %d %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Request describes one API call. JSON is encoded as the body unless Raw is
// set, in which case ContentType is sent as-is (e.g. a multipart boundary).
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	JSON        any
	Raw         []byte
	ContentType string
	// Public requests never carry the bearer token.
	Public bool
}

// Response is a successful (2xx) API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the "data" member of the response envelope into v.
func (r *Response) Decode(v any) error {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &envelope); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, v)
}

// Client is safe for concurrent use.
type Client struct {
	baseURL     *url.URL
	httpClient  *http.Client
	jar         *sessionJar
	maxAttempts uint64
	baseDelay   time.Duration

	mu               sync.RWMutex
	token            string
	onSessionExpired func()
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client. The client is copied, so its
// settings are used but it is never modified. Its cookie jar, if any, holds
// the session until ClearCredentials.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseDelay sets the linear backoff unit between attempts.
func WithBaseDelay(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// WithMaxAttempts bounds the attempts made for 5xx and network failures.
func WithMaxAttempts(n uint64) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithSessionExpired registers the hook run when the refresh exchange fails,
// typically navigating the user back to role selection.
func WithSessionExpired(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// New builds a client for the API at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL:     u,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxAttempts: defaultMaxAttempts,
		baseDelay:   defaultBaseDelay,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.jar = &sessionJar{jar: c.httpClient.Jar}
	if c.jar.jar == nil {
		c.jar.reset()
	}
	clone := *c.httpClient
	clone.Jar = c.jar
	c.httpClient = &clone
	return c, nil
}

// Token returns the in-memory access token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken stores an access token, e.g. the one returned by login.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ClearCredentials forgets the access token and the refresh cookie.
func (c *Client) ClearCredentials() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	c.jar.reset()
}

// Bootstrap exchanges the refresh cookie for an access token. It reports
// false without error when there is no live session.
func (c *Client) Bootstrap(ctx context.Context) (bool, error) {
	token, err := c.refresh(ctx)
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return false, nil
		}
		return false, err
	}
	c.SetToken(token)
	return true, nil
}

// Do sends req. A 401 on the first attempt triggers one refresh exchange
// and one retry. 5xx responses and network failures are retried with
// linear backoff up to the attempt limit.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, err
	}

	var (
		out     *Response
		attempt int
	)
	backoff := retry.WithMaxRetries(c.maxAttempts-1, linearBackoff(c.baseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := c.send(ctx, req, body, contentType)
		if err != nil {
			return sendError(err)
		}

		if resp.Status == http.StatusUnauthorized && attempt == 1 && !req.Public {
			token, refreshErr := c.refresh(ctx)
			if refreshErr != nil {
				c.expire()
				return &Error{Message: "Authentication failed", Status: http.StatusUnauthorized}
			}
			c.SetToken(token)
			if resp, err = c.send(ctx, req, body, contentType); err != nil {
				return sendError(err)
			}
		}

		switch {
		case resp.Status >= 500:
			return retry.RetryableError(statusError(resp))
		case resp.Status >= 400:
			return statusError(resp)
		}
		out = resp
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) send(ctx context.Context, req Request, body []byte, contentType string) (*Response, error) {
	target := c.baseURL.JoinPath(req.Path)
	if len(req.Query) > 0 {
		target.RawQuery = req.Query.Encode()
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if !req.Public {
		if token := c.Token(); token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	limit := int64(maxResponseBody)
	if resp.StatusCode >= 400 {
		limit = errorBodyLimit
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > limit {
		if resp.StatusCode < 400 {
			return nil, &Error{
				Message: fmt.Sprintf("response body exceeds %d bytes", limit),
				Status:  resp.StatusCode,
			}
		}
		raw = raw[:limit]
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: raw}, nil
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, Request{Method: http.MethodPost, Path: refreshPath, Public: true}, nil, "application/json")
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			return "", apiErr
		}
		return "", networkError(err)
	}
	if resp.Status < 200 || resp.Status >= 300 {
		return "", statusError(resp)
	}
	var data struct {
		Token string `json:"token"`
	}
	if err := resp.Decode(&data); err != nil || data.Token == "" {
		return "", &Error{Message: "refresh response carried no token", Status: resp.Status}
	}
	return data.Token, nil
}

func (c *Client) expire() {
	c.ClearCredentials()
	c.mu.RLock()
	hook := c.onSessionExpired
	c.mu.RUnlock()
	if hook != nil {
		hook()
	}
}

func encodeBody(req Request) ([]byte, string, error) {
	switch {
	case req.Raw != nil:
		return req.Raw, req.ContentType, nil
	case req.JSON != nil:
		body, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("encode request body: %w", err)
		}
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/json"
		}
		return body, contentType, nil
	default:
		return nil, req.ContentType, nil
	}
}

// linearBackoff waits attempt × base before each retry.
func linearBackoff(base time.Duration) retry.Backoff {
	var attempt int64
	return retry.BackoffFunc(func() (time.Duration, bool) {
		attempt++
		return time.Duration(attempt) * base, false
	})
}

// sendError keeps API errors terminal and retries transport failures.
func sendError(err error) error {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return retry.RetryableError(networkError(err))
}

func networkError(err error) *Error {
	return &Error{
		Message: "Network error occurred",
		Payload: map[string]any{"error": err.Error()},
	}
}

func statusError(resp *Response) *Error {
	payload := map[string]any{}
	_ = json.Unmarshal(resp.Body, &payload)
	message, _ := payload["error"].(string)
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf("Request failed with status %d", resp.Status)
	}
	return &Error{Message: message, Status: resp.Status, Payload: payload}
}

// sessionJar lets ClearCredentials drop every cookie while requests are in
// flight.
type sessionJar struct {
	mu  sync.Mutex
	jar http.CookieJar
}

func (s *sessionJar) current() http.CookieJar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jar
}

func (s *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.current().SetCookies(u, cookies)
}

func (s *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	return s.current().Cookies(u)
}

// reset swaps in an empty jar. cookiejar.New only fails on bad options.
func (s *sessionJar) reset() {
	jar, _ := cookiejar.New(nil)
	s.mu.Lock()
	s.jar = jar
	s.mu.Unlock()
}
