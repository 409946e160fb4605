package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Client makes REST calls to the FlowHive backend. A bearer token, once
// set, is injected into every request. On any 401 response the token is
// discarded and the unauthorized hook (if set) fires, so the shell can
// force a redirect to login.
type Client struct {
	baseURL string
	client  *http.Client

	mu             sync.RWMutex
	token          string
	onUnauthorized func()
}

// New creates a client targeting the given base URL
// (e.g. "http://127.0.0.1:8000/api").
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token used for subsequent requests. An empty
// string disables the Authorization header.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetUnauthorizedHandler registers a hook invoked whenever a request comes
// back 401. The hook runs on the goroutine that made the request, after the
// client has already dropped its token.
func (c *Client) SetUnauthorizedHandler(fn func()) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

// Login exchanges credentials for a bearer token. The endpoint expects a
// form-encoded body (OAuth2 password flow).
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/auth/login", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out AuthResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register creates a new account.
func (c *Client) Register(ctx context.Context, r RegisterRequest) (*User, error) {
	var out User
	if err := c.postJSON(ctx, "/auth/register", r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentUser fetches the identity behind the current token.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var out User
	if err := c.get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Workspaces fetches the workspaces visible to the current user, in
// backend order.
func (c *Client) Workspaces(ctx context.Context) ([]Workspace, error) {
	var out []Workspace
	if err := c.get(ctx, "/workspaces", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Workspace fetches one workspace with its member list.
func (c *Client) Workspace(ctx context.Context, id int) (*WorkspaceDetail, error) {
	var out WorkspaceDetail
	if err := c.get(ctx, "/workspaces/"+strconv.Itoa(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	c.setAuth(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return &TransientNetworkError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		err := classify(resp.StatusCode, body)
		if resp.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized()
		}
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s %s: decoding response: %w", req.Method, req.URL.Path, err)
		}
	}
	return nil
}

func (c *Client) setAuth(req *http.Request) {
	c.mu.RLock()
	token := c.token
	c.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) handleUnauthorized() {
	c.mu.Lock()
	c.token = ""
	fn := c.onUnauthorized
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}
