package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	loginPath    = "/api/v1/auth/login"
	registerPath = "/api/v1/auth/register"
	refreshPath  = "/api/v1/auth/refresh"
	logoutPath   = "/api/v1/auth/logout"
	mePath       = "/api/v1/auth/me"
)

// User is the client-side view of an account.
type User struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	IsActive bool      `json:"isActive"`
}

// APIError carries the status and message of a failed call.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is an APIError with a 401 status.
func IsUnauthorized(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.Status == http.StatusUnauthorized
}

// Client wraps the auth API. Every call attaches the cached access token as a
// bearer credential; a 401 on any call except refresh triggers exactly one
// refresh attempt and one retry. Concurrent 401s share a single refresh via
// singleflight.
type Client struct {
	base  *url.URL
	http  *http.Client
	cache *TokenCache
	group singleflight.Group
}

// New builds a client for the given API base URL. The underlying http.Client
// carries a cookie jar so the refresh cookie set at login is replayed on
// refresh calls.
func New(baseURL string, cache *TokenCache) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if cache == nil {
		cache = NewTokenCache()
	}
	return &Client{
		base:  base,
		http:  &http.Client{Jar: jar, Timeout: 30 * time.Second},
		cache: cache,
	}, nil
}

// TokenCache exposes the cache backing this client.
func (c *Client) TokenCache() *TokenCache {
	return c.cache
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// Login authenticates and caches the returned access token.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	payload := map[string]string{"email": email, "password": password}
	var data struct {
		User        *User  `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	if err := c.call(ctx, http.MethodPost, loginPath, payload, &data); err != nil {
		return nil, err
	}
	c.cache.Set(data.AccessToken)
	return data.User, nil
}

// Register creates an account. It does not authenticate.
func (c *Client) Register(ctx context.Context, username, email, password string) (*User, error) {
	payload := map[string]string{"username": username, "email": email, "password": password}
	var user User
	if err := c.call(ctx, http.MethodPost, registerPath, payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Refresh exchanges the refresh cookie for a new access token and caches it.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	token, err := c.refresh(ctx)
	if err != nil {
		return "", err
	}
	return token, nil
}

// Logout clears the server cookie and the local token slot. Local state is
// cleared even when the network call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, logoutPath, nil, nil)
	c.cache.Clear()
	return err
}

// Me fetches the authenticated user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var data struct {
		User *User `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, mePath, nil, &data); err != nil {
		return nil, err
	}
	return data.User, nil
}

// call runs one request with the 401-refresh-retry policy.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	status, err := c.do(ctx, method, path, body, out)
	if err == nil {
		return nil
	}
	if status != http.StatusUnauthorized || path == refreshPath {
		return err
	}

	if _, refreshErr := c.refresh(ctx); refreshErr != nil {
		// surface the original 401 unchanged
		return err
	}

	_, retryErr := c.do(ctx, method, path, body, out)
	return retryErr
}

// refresh dedupes concurrent refresh attempts into one network call.
func (c *Client) refresh(ctx context.Context) (string, error) {
	result, err, _ := c.group.Do("refresh", func() (any, error) {
		var data struct {
			AccessToken string `json:"accessToken"`
		}
		if _, err := c.do(ctx, http.MethodPost, refreshPath, nil, &data); err != nil {
			return "", err
		}
		c.cache.Set(data.AccessToken)
		return data.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.cache.Get(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 || !env.Success {
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: env.Error}
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode data: %w", err)
		}
	}
	return resp.StatusCode, nil
}
