package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"go.uber.org/zap"
)

// VectorStore persists generated vectors across runs. Persistence failures
// are tolerated: the cache degrades to memory-only behavior.
type VectorStore interface {
	SaveEmbedding(owner string, vector []float32, version string) error
	GetEmbedding(owner string) ([]float32, string, error)
}

// Cache wraps a Provider with an in-memory and optional persistent cache
// keyed by a hash of the input text. Re-embedding the same transcription is
// common (retries, replays of recorded invocations), so hits are cheap.
type Cache struct {
	provider Provider
	store    VectorStore
	mu       sync.RWMutex
	mem      map[string][]float32
	logger   *zap.Logger
}

// NewCache creates a cache over the provider. store may be nil for a
// memory-only cache.
func NewCache(provider Provider, store VectorStore, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		provider: provider,
		store:    store,
		mem:      make(map[string][]float32),
		logger:   logger,
	}
}

// Generate implements Provider, consulting the caches before the underlying
// provider.
func (c *Cache) Generate(ctx context.Context, text string) ([]float32, error) {
	key := hashText(text)

	c.mu.RLock()
	if vec, ok := c.mem[key]; ok {
		c.mu.RUnlock()
		return vec, nil
	}
	c.mu.RUnlock()

	if c.store != nil {
		vec, version, err := c.store.GetEmbedding(key)
		if err == nil && vec != nil && version == c.provider.Version() {
			c.mu.Lock()
			c.mem[key] = vec
			c.mu.Unlock()
			return vec, nil
		}
	}

	vec, err := c.provider.Generate(ctx, text)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.mem[key] = vec
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.SaveEmbedding(key, vec, c.provider.Version()); err != nil {
			c.logger.Warn("failed to persist embedding", zap.Error(err))
		}
	}

	return vec, nil
}

// Version implements Provider.
func (c *Cache) Version() string { return c.provider.Version() }

// hashText hashes input text so raw transcriptions never land in storage.
func hashText(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
