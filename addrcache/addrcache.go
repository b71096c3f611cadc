// Package addrcache caches finished community addresses in redis.
package addrcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/redis/go-redis/v9"
	"github.com/royalcat/communityaddr/geomodel"
)

const (
	keyPrefix  = "caddr"
	defaultTTL = 24 * time.Hour
	autoRegion = "auto"
)

// Cache implements addresser.Cache on top of a redis client.
type Cache struct {
	rc  redis.UniversalClient
	ttl time.Duration
}

// New wraps rc. A zero or negative ttl means 24h.
func New(rc redis.UniversalClient, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{rc: rc, ttl: ttl}
}

// Open connects to redis at addr and checks the connection.
func Open(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	rc := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rc.Ping(ctx).Err(); err != nil {
		rc.Close()
		return nil, fmt.Errorf("error connecting to redis %s: %w", addr, err)
	}
	return New(rc, ttl), nil
}

func (c *Cache) Close() error {
	return c.rc.Close()
}

// Key builds "caddr:{version}:{region}:{lon}:{lat}". Coordinates are written in
// their shortest exact form so distinct points never share a key.
func Key(version, regionCode string, p orb.Point) string {
	if regionCode == "" {
		regionCode = autoRegion
	}
	return keyPrefix + ":" + version + ":" + regionCode + ":" +
		strconv.FormatFloat(p.Lon(), 'g', -1, 64) + ":" +
		strconv.FormatFloat(p.Lat(), 'g', -1, 64)
}

func (c *Cache) Get(ctx context.Context, version, regionCode string, p orb.Point) (geomodel.CommunityAddress, bool, error) {
	data, err := c.rc.Get(ctx, Key(version, regionCode, p)).Bytes()
	if errors.Is(err, redis.Nil) {
		return geomodel.CommunityAddress{}, false, nil
	}
	if err != nil {
		return geomodel.CommunityAddress{}, false, fmt.Errorf("error reading cached address: %w", err)
	}

	var addr geomodel.CommunityAddress
	if err := addr.UnmarshalJSON(data); err != nil {
		return geomodel.CommunityAddress{}, false, fmt.Errorf("error decoding cached address: %w", err)
	}
	if addr.AlgorithmVersion != version {
		return geomodel.CommunityAddress{}, false, nil
	}
	return addr, true, nil
}

func (c *Cache) Set(ctx context.Context, version, regionCode string, p orb.Point, addr geomodel.CommunityAddress) error {
	data, err := addr.MarshalJSON()
	if err != nil {
		return fmt.Errorf("error encoding address: %w", err)
	}
	if err := c.rc.Set(ctx, Key(version, regionCode, p), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("error caching address: %w", err)
	}
	return nil
}
