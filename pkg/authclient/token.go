package authclient

import "sync"

// TokenCache holds the current access token in a single in-memory slot.
// The refresh token never passes through here; it lives in the HTTP-only
// cookie managed by the server.
type TokenCache struct {
	mu    sync.RWMutex
	token string
}

func NewTokenCache() *TokenCache {
	return &TokenCache{}
}

func (c *TokenCache) Set(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

func (c *TokenCache) Get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
}
