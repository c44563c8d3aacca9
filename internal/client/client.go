// Package client talks to the inventory backend over HTTP.
package client

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
	"time"

	"golang.org/x/sync/singleflight"

	"topomap/internal/domain"
	"topomap/internal/logging"
)

const (
	snapshotPath   = "/api/mapa-dados"
	portsPath      = "/api/portas"
	equipmentPath  = "/api/equipamento/"
	connectPath    = "/api/conectar-portas/"
	disconnectPath = "/api/desconectar-portas/"

	csrfHeader = "X-CSRFToken"

	// DefaultTimeout bounds a single request
	DefaultTimeout = 10 * time.Second
)

var (
	// ErrMissingToken is returned before a mutating request is sent
	// without a CSRF token
	ErrMissingToken = errors.New("csrf token not available")
	// ErrStatus matches every *StatusError
	ErrStatus = errors.New("unexpected response status")
)

// StatusError reports a non-2xx response
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}

// Is makes errors.Is(err, ErrStatus) true for any StatusError
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

// Options configures a Client
type Options struct {
	BaseURL string
	Timeout time.Duration
	// Token is a fixed CSRF token. When empty the token is read from the
	// CookieName cookie in the client's jar.
	Token      string
	CookieName string
	// HTTPClient overrides the default client. Its jar, if any, is used
	// for the cookie token.
	HTTPClient *http.Client
}

// Client implements the diagram data source against the backend API
type Client struct {
	base   *url.URL
	http   *http.Client
	tokens TokenSource
	// bounds a shared port listing, which outlives any one caller
	timeout time.Duration

	// concurrent identical port listings share one request
	ports singleflight.Group
}

// New creates a client for the backend at opts.BaseURL
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", opts.BaseURL)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		hc = &http.Client{Timeout: timeout, Jar: jar}
	}

	var tokens TokenSource
	if opts.Token != "" {
		tokens = StaticToken(opts.Token)
	} else {
		tokens = &CookieToken{Jar: hc.Jar, Name: opts.CookieName}
	}

	return &Client{base: base, http: hc, tokens: tokens, timeout: timeout}, nil
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.base.String()
}

// SetCookie stores a cookie for the backend host, e.g. a session id or the
// CSRF cookie handed out by the login page
func (c *Client) SetCookie(name, value string) {
	if c.http.Jar == nil {
		return
	}
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: name, Value: value, Path: "/"}})
}

// FetchSnapshot loads the nodes and links of a tenant
func (c *Client) FetchSnapshot(ctx context.Context, tenant domain.ID) (*domain.Snapshot, error) {
	query := url.Values{}
	query.Set("empresa_id", tenant.String())

	body, err := c.get(ctx, snapshotPath, query)
	if err != nil {
		return nil, err
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	logging.Debugf("snapshot for tenant %s: %d nodes, %d links", tenant, len(snap.Nodes), len(snap.Links))
	return &snap, nil
}

// GetEquipment loads the detail record of a piece of equipment
func (c *Client) GetEquipment(ctx context.Context, id domain.ID) (*domain.Equipment, error) {
	body, err := c.get(ctx, equipmentPath+url.PathEscape(id.String())+"/", nil)
	if err != nil {
		return nil, err
	}

	var eq domain.Equipment
	if err := json.Unmarshal(body, &eq); err != nil {
		return nil, fmt.Errorf("failed to decode equipment: %w", err)
	}
	return &eq, nil
}

// ListPorts returns the free ports of a piece of equipment. A refusal in an
// {error} payload is returned as *domain.RejectionError. Concurrent
// identical listings share one request; cancelling ctx abandons only this
// caller's wait.
func (c *Client) ListPorts(ctx context.Context, equipment, tenant domain.ID) ([]domain.Port, error) {
	key := equipment.String() + "|" + tenant.String()
	ch := c.ports.DoChan(key, func() (interface{}, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.listPorts(shared, equipment, tenant)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logging.Debugf("port listing %s shared with a concurrent caller", key)
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Port), nil
	}
}

func (c *Client) listPorts(ctx context.Context, equipment, tenant domain.ID) ([]domain.Port, error) {
	query := url.Values{}
	query.Set("equipamento_id", equipment.String())
	if !tenant.IsZero() {
		query.Set("empresa_id", tenant.String())
	}

	status, body, err := c.do(ctx, http.MethodGet, portsPath, query, nil, false)
	if err != nil {
		return nil, err
	}

	if msg, ok := rejection(body); ok {
		return nil, &domain.RejectionError{Message: msg}
	}
	if !ok2xx(status) {
		return nil, &StatusError{Method: http.MethodGet, Path: portsPath, Code: status}
	}

	var ports []domain.Port
	if err := json.Unmarshal(body, &ports); err != nil {
		return nil, fmt.Errorf("failed to decode ports: %w", err)
	}
	return ports, nil
}

// Connect asks the backend to connect two ports
func (c *Client) Connect(ctx context.Context, req domain.ConnectRequest) (*domain.CommandResult, error) {
	return c.command(ctx, connectPath, req)
}

// Disconnect asks the backend to clear the connection of a port
func (c *Client) Disconnect(ctx context.Context, req domain.DisconnectRequest) (*domain.CommandResult, error) {
	return c.command(ctx, disconnectPath, req)
}

func (c *Client) command(ctx context.Context, path string, payload interface{}) (*domain.CommandResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	status, body, err := c.do(ctx, http.MethodPost, path, nil, data, true)
	if err != nil {
		return nil, err
	}

	var res domain.CommandResult
	if jsonErr := json.Unmarshal(body, &res); jsonErr == nil && (res.Error != "" || res.Message != "" || res.Success) {
		return &res, nil
	}
	if !ok2xx(status) {
		return nil, &StatusError{Method: http.MethodPost, Path: path, Code: status}
	}
	return nil, fmt.Errorf("unrecognised response from %s", path)
}

func (c *Client) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	status, body, err := c.do(ctx, http.MethodGet, path, query, nil, false)
	if err != nil {
		return nil, err
	}
	if !ok2xx(status) {
		return nil, &StatusError{Method: http.MethodGet, Path: path, Code: status}
	}
	return body, nil
}

// do sends one request and returns the status and the full body
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body []byte, mutating bool) (int, []byte, error) {
	u := *c.base
	u.Path = c.base.Path + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if mutating {
		token, err := c.tokens.Token(&u)
		if err != nil {
			return 0, nil, err
		}
		req.Header.Set(csrfHeader, token)
		req.Header.Set("Referer", c.base.String()+"/")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response from %s: %w", path, err)
	}
	if !ok2xx(resp.StatusCode) {
		logging.Debugf("%s %s: status=%d body=%s", method, path, resp.StatusCode, truncate(data, 200))
	}
	return resp.StatusCode, data, nil
}

// rejection extracts the message of an {error: ...} payload
func rejection(body []byte) (string, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return "", false
	}
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil || payload.Error == "" {
		return "", false
	}
	return payload.Error, true
}

func ok2xx(status int) bool {
	return status >= 200 && status < 300
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
