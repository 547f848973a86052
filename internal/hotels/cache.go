package hotels

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"hotel-bot/internal/models"
	"hotel-bot/pkg/logger"
)

// Cache remembers city lookups. Misses and failures look the same to the
// caller.
type Cache interface {
	Cities(ctx context.Context, query string) ([]models.CityCandidate, bool)
	StoreCities(ctx context.Context, query string, cities []models.CityCandidate)
}

type NopCache struct{}

func (NopCache) Cities(context.Context, string) ([]models.CityCandidate, bool) { return nil, false }
func (NopCache) StoreCities(context.Context, string, []models.CityCandidate)   {}

type RedisCache struct {
	rdb    redis.UniversalClient
	ttl    time.Duration
	logger *logger.Logger
}

func NewRedisCache(rdb redis.UniversalClient, ttl time.Duration, logger *logger.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisCache{rdb: rdb, ttl: ttl, logger: logger.Named("hotels.cache")}
}

func cityKey(query string) string {
	return "hotelbot:city:" + strings.ToLower(strings.TrimSpace(query))
}

func (r *RedisCache) Cities(ctx context.Context, query string) ([]models.CityCandidate, bool) {
	raw, err := r.rdb.Get(ctx, cityKey(query)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warnw("City cache read failed", "query", query, "error", err)
		}
		return nil, false
	}
	var cities []models.CityCandidate
	if err := json.Unmarshal(raw, &cities); err != nil {
		r.logger.Warnw("City cache entry is corrupt", "query", query, "error", err)
		return nil, false
	}
	return cities, true
}

func (r *RedisCache) StoreCities(ctx context.Context, query string, cities []models.CityCandidate) {
	data, err := json.Marshal(cities)
	if err != nil {
		return
	}
	if err := r.rdb.Set(ctx, cityKey(query), data, r.ttl).Err(); err != nil {
		r.logger.Warnw("City cache write failed", "query", query, "error", err)
	}
}
