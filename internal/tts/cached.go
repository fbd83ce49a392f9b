package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/lukasbauer/interviewer/internal/cache"
	"github.com/rs/zerolog"
)

// CachedClient serves repeated texts from a cache instead of the provider.
type CachedClient struct {
	next   Client
	cache  cache.Cache
	ttl    time.Duration
	prefix string
	logger zerolog.Logger
}

// NewCachedClient wraps next. prefix separates providers and voices sharing one cache.
func NewCachedClient(next Client, c cache.Cache, ttl time.Duration, prefix string, logger zerolog.Logger) *CachedClient {
	return &CachedClient{
		next:   next,
		cache:  c,
		ttl:    ttl,
		prefix: prefix,
		logger: logger.With().Str("component", "tts_cache").Logger(),
	}
}

func (c *CachedClient) key(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "tts:" + c.prefix + ":" + hex.EncodeToString(sum[:])
}

// Synthesize returns cached audio when present. Cache errors fall through to the provider.
func (c *CachedClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	key := c.key(text)

	audio, found, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache read failed")
	}
	if found && len(audio) > 0 {
		c.logger.Debug().Str("key", key).Msg("cache hit")
		return audio, nil
	}

	audio, err = c.next.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, audio, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("cache write failed")
	}
	return audio, nil
}
