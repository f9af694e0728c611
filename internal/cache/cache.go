// Package cache keeps the last resolved state per site in Redis so
// dashboards can poll without triggering a full resolution.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/Voltair-Energy/voltair/internal/model"
	"github.com/redis/go-redis/v9"
)

const stateTTL = 5 * time.Minute

type StateCache struct {
	rdb *redis.Client
}

func New(address, username, password string) *StateCache {
	return &StateCache{
		rdb: redis.NewClient(&redis.Options{
			Addr:     address,
			Username: username,
			Password: password,
			DB:       0,
		}),
	}
}

func siteStateKey(siteID int) string {
	return fmt.Sprintf("site_state:%d", siteID)
}

func (c *StateCache) SetSiteState(ctx context.Context, siteID int, state model.SiteState) error {
	return c.rdb.Set(ctx, siteStateKey(siteID), state.String(), stateTTL).Err()
}

// GetSiteState returns the cached state, or "" when nothing is cached.
func (c *StateCache) GetSiteState(ctx context.Context, siteID int) (model.SiteState, error) {
	val, err := c.rdb.Get(ctx, siteStateKey(siteID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return model.SiteState(val), nil
}
