// Package client is a Go SDK for the Cantina Verde API. It speaks to the
// local server (/api, /rpc, /functions, /auth) or to a hosted PostgREST-style
// backend (/rest/v1, /functions/v1, /auth/v1) with the same query builder.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// DefaultLocalURL is where the local server listens unless LOCAL_AUTH_URL says otherwise
const DefaultLocalURL = "http://localhost:4000"

// Config selects the backend and carries its credentials
type Config struct {
	// Local targets the local server; otherwise the hosted backend is used
	Local bool

	// BaseURL of the selected backend, without a trailing slash
	BaseURL string

	// APIKey is sent as the apikey header to the hosted backend
	APIKey string

	// Token is an existing session token
	Token string

	HTTPClient *http.Client
}

// LoadConfigFromEnv builds a Config from USE_LOCAL_DB, SUPABASE_URL,
// SUPABASE_ANON_KEY (or SUPABASE_PUBLISHABLE_KEY) and LOCAL_AUTH_URL. Each
// name is also looked up with a VITE_ prefix. The local server is used when
// USE_LOCAL_DB is "true" or the hosted variables are incomplete.
func LoadConfigFromEnv() Config {
	hostedURL := env("SUPABASE_URL")
	key := env("SUPABASE_ANON_KEY")
	if key == "" {
		key = env("SUPABASE_PUBLISHABLE_KEY")
	}

	if env("USE_LOCAL_DB") == "true" || hostedURL == "" || key == "" {
		base := env("LOCAL_AUTH_URL")
		if base == "" {
			base = DefaultLocalURL
		}
		return Config{Local: true, BaseURL: base}
	}
	return Config{BaseURL: hostedURL, APIKey: key}
}

func env(name string) string {
	if v, ok := os.LookupEnv(name); ok {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(os.Getenv("VITE_" + name))
}

// Client talks to one backend. It is safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client

	mu    sync.RWMutex
	token string
}

// New creates a Client
func New(cfg Config) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.BaseURL == "" && cfg.Local {
		cfg.BaseURL = DefaultLocalURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{cfg: cfg, http: hc, token: cfg.Token}
}

// Local reports whether the client targets the local server
func (c *Client) Local() bool { return c.cfg.Local }

// SetToken replaces the session token used for later requests
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current session token
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Errors returned by the client
var (
	ErrMissingID = errors.New("client: update and delete require Eq(\"id\", ...)")
	ErrNoRows    = errors.New("client: no rows returned")
)

// APIError is a non-2xx answer from the backend
type APIError struct {
	Status  int
	Code    string
	Message string
	Details string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, msg)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// path maps a logical endpoint to the backend's URL layout
func (c *Client) path(kind, name string) string {
	if c.cfg.Local {
		switch kind {
		case "rest":
			return "/api/" + name
		case "rpc":
			return "/rpc/" + name
		case "functions":
			return "/functions/" + name
		default:
			return "/auth/" + name
		}
	}
	switch kind {
	case "rest":
		return "/rest/v1/" + name
	case "rpc":
		return "/rest/v1/rpc/" + name
	case "functions":
		return "/functions/v1/" + name
	default:
		return "/auth/v1/" + name
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   interface{}
	header http.Header
}

// do sends r and decodes a JSON answer into out when out is not nil
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	raw, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// send performs r and returns the raw body of a 2xx answer
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	u := c.cfg.BaseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader = http.NoBody
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseAPIError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (c *Client) authorize(req *http.Request) {
	token := c.Token()
	if !c.cfg.Local && c.cfg.APIKey != "" {
		req.Header.Set("apikey", c.cfg.APIKey)
		if token == "" {
			token = c.cfg.APIKey
		}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// parseAPIError understands the local error envelope and the hosted
// PostgREST error object; anything else becomes the message verbatim.
func parseAPIError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}

	var envelope struct {
		Error *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Details string `json:"details"`
		} `json:"error"`
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
			apiErr.Details = envelope.Error.Details
			return apiErr
		}
		if envelope.Message != "" {
			apiErr.Code = envelope.Code
			apiErr.Message = envelope.Message
			apiErr.Details = envelope.Details
			return apiErr
		}
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}

// RPC calls a stored procedure with args and decodes its result into out
func (c *Client) RPC(ctx context.Context, name string, args, out interface{}) error {
	if args == nil {
		args = map[string]interface{}{}
	}
	return c.do(ctx, request{method: http.MethodPost, path: c.path("rpc", name), body: args}, out)
}

// Functions gives access to the server-side functions
func (c *Client) Functions() *Functions { return &Functions{c: c} }

// Functions invokes named server-side functions
type Functions struct {
	c *Client
}

// Invoke posts body to the function name and decodes the answer into out
func (f *Functions) Invoke(ctx context.Context, name string, body, out interface{}) error {
	if body == nil {
		body = map[string]interface{}{}
	}
	return f.c.do(ctx, request{method: http.MethodPost, path: f.c.path("functions", name), body: body}, out)
}
