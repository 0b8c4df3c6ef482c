package workflow

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/go-crypt/x/blake2b"

	"github.com/poiesic/ragkit/ai"
)

// ClientCache memoizes chat model clients per (provider, api key) so repeated
// requests reuse one client instance. Keys are fingerprinted so raw API keys
// never sit in a map. The cache is unbounded for the process lifetime;
// Clear releases everything.
type ClientCache struct {
	mu      sync.RWMutex
	clients map[string]ai.ChatModel
}

// NewClientCache creates an empty client cache.
func NewClientCache() *ClientCache {
	return &ClientCache{
		clients: make(map[string]ai.ChatModel),
	}
}

// fingerprint derives the cache key from provider and api key.
func fingerprint(provider, apiKey string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(apiKey))
	return hex.EncodeToString(h.Sum(nil))
}

// GetOrCreate returns the cached client for (provider, apiKey), constructing
// one through factory on first use.
func (c *ClientCache) GetOrCreate(ctx context.Context, provider, apiKey string, factory ai.ChatModelFactory) (ai.ChatModel, error) {
	key := fingerprint(provider, apiKey)

	c.mu.RLock()
	client, ok := c.clients[key]
	c.mu.RUnlock()
	if ok {
		return client, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another goroutine may have won the race.
	if client, ok := c.clients[key]; ok {
		return client, nil
	}

	client, err := factory(ctx, provider, apiKey)
	if err != nil {
		return nil, err
	}
	c.clients[key] = client
	return client, nil
}

// Len returns the number of cached clients.
func (c *ClientCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clients)
}

// Clear drops all cached clients.
func (c *ClientCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients = make(map[string]ai.ChatModel)
}
