// README: Matching store backed by Redis GEO sets plus a ranking cache.
package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fixnow/internal/types"
)

const (
	geoKeyPrefix    = "matching:geo:%s"
	rankKeyPrefix   = "matching:rank:%s"
	defaultCacheTTL = time.Minute
)

// GeoHit is a shortlist entry from the geo index, distance in kilometres.
type GeoHit struct {
	ID         types.ID
	DistanceKm float64
}

// GeoStore is the proximity index over available technicians, one GEO set per
// category.
type GeoStore interface {
	Upsert(ctx context.Context, id types.ID, pos types.Point, categories []types.ID) error
	Remove(ctx context.Context, id types.ID, categories []types.ID) error
	Nearby(ctx context.Context, categoryID types.ID, origin types.Point, radiusKm float64) ([]GeoHit, error)
}

// RankingCache memoises ranked candidate lists per booking for a short TTL so
// a client polling the matching screen does not recompute the ranking.
type RankingCache interface {
	Get(ctx context.Context, bookingID types.ID) ([]RankedTechnician, bool)
	Set(ctx context.Context, bookingID types.ID, ranked []RankedTechnician)
}

type RedisStore struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewRedisStore(client *redis.Client, cacheTTL time.Duration) *RedisStore {
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}
	return &RedisStore{redis: client, ttl: cacheTTL}
}

func (s *RedisStore) Upsert(ctx context.Context, id types.ID, pos types.Point, categories []types.ID) error {
	pipe := s.redis.Pipeline()
	for _, cat := range categories {
		pipe.GeoAdd(ctx, geoKey(cat), &redis.GeoLocation{
			Name:      string(id),
			Longitude: pos.Lng,
			Latitude:  pos.Lat,
		})
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Remove(ctx context.Context, id types.ID, categories []types.ID) error {
	pipe := s.redis.Pipeline()
	for _, cat := range categories {
		pipe.ZRem(ctx, geoKey(cat), string(id))
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Nearby(ctx context.Context, categoryID types.ID, origin types.Point, radiusKm float64) ([]GeoHit, error) {
	results, err := s.redis.GeoSearchLocation(ctx, geoKey(categoryID), &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  origin.Lng,
			Latitude:   origin.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	hits := make([]GeoHit, len(results))
	for i, r := range results {
		hits[i] = GeoHit{ID: types.ID(r.Name), DistanceKm: r.Dist}
	}
	return hits, nil
}

func (s *RedisStore) Get(ctx context.Context, bookingID types.ID) ([]RankedTechnician, bool) {
	val, err := s.redis.Get(ctx, rankKey(bookingID)).Result()
	if err != nil {
		return nil, false
	}
	var ranked []RankedTechnician
	if err := json.Unmarshal([]byte(val), &ranked); err != nil {
		return nil, false
	}
	return ranked, true
}

func (s *RedisStore) Set(ctx context.Context, bookingID types.ID, ranked []RankedTechnician) {
	data, err := json.Marshal(ranked)
	if err != nil {
		return
	}
	// Cache misses are harmless; errors here must not fail the read path.
	_ = s.redis.Set(ctx, rankKey(bookingID), data, s.ttl).Err()
}

func geoKey(categoryID types.ID) string {
	return fmt.Sprintf(geoKeyPrefix, string(categoryID))
}

func rankKey(bookingID types.ID) string {
	return fmt.Sprintf(rankKeyPrefix, string(bookingID))
}
