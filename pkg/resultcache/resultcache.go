// Package resultcache holds processed-track envelopes in Redis so repeated
// requests for the same vehicle under the same settings skip the pipeline.
// Keys carry the engine config hash, so changing any setting naturally
// invalidates everything cached under the old one.
package resultcache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/trackforge/trackforge/pkg/redis_client"
	"github.com/trackforge/trackforge/pkg/wire"
)

var envelopeCache *cache.Cache[*CachedEnvelope]

// CachedEnvelope is the Redis representation of one processed result.
type CachedEnvelope struct {
	Envelope    *wire.Envelope `json:"envelope"`
	ConfigHash  string         `json:"config_hash"`
	ProcessedAt time.Time      `json:"processed_at"`
}

func (c *CachedEnvelope) MarshalBinary() ([]byte, error) {
	return json.Marshal(c)
}

func (c *CachedEnvelope) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, c)
}

// Create initializes the Redis cache for processed envelopes
func Create() {
	redisStore := redisstore.NewRedis(redis_client.Client, store.WithExpiration(30*time.Minute))
	envelopeCache = cache.New[*CachedEnvelope](redisStore)
}

func cacheKey(vehicleID string, configHash string) string {
	return fmt.Sprintf("processed_track:%s:%s", vehicleID, configHash)
}

// Get retrieves a cached envelope, or an error on miss.
func Get(ctx context.Context, vehicleID string, configHash string) (*CachedEnvelope, error) {
	cached, err := envelopeCache.Get(ctx, cacheKey(vehicleID, configHash))
	if err != nil {
		return nil, err
	}
	return cached, nil
}

// Set stores a processed envelope under the vehicle and config hash.
func Set(ctx context.Context, vehicleID string, configHash string, envelope *wire.Envelope) error {
	return envelopeCache.Set(ctx, cacheKey(vehicleID, configHash), &CachedEnvelope{
		Envelope:    envelope,
		ConfigHash:  configHash,
		ProcessedAt: time.Now(),
	})
}
