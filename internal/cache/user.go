package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/contactbook/contactbook-go/internal/model"
)

const userTTL = 5 * time.Minute

// Connect creates a redis client and verifies connectivity.
func Connect(addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// UserCache keeps recently loaded user records in redis for a short TTL so
// every authenticated request does not hit the database. A nil *UserCache is
// valid and turns every operation into a no-op, which is how the service runs
// when redis is unavailable.
type UserCache struct {
	rdb *redis.Client
}

// NewUserCache creates a new UserCache backed by the given client.
func NewUserCache(rdb *redis.Client) *UserCache {
	return &UserCache{rdb: rdb}
}

// Get returns the cached user, if present.
func (c *UserCache) Get(ctx context.Context, userID int64) (*model.User, bool) {
	if c == nil || c.rdb == nil {
		return nil, false
	}

	data, err := c.rdb.Get(ctx, userKey(userID)).Bytes()
	if err != nil {
		// Both a miss (redis.Nil) and an infrastructure error fall back
		// to the database.
		return nil, false
	}

	var user model.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, false
	}

	return &user, true
}

// Set stores the user with the cache TTL. Failures are logged, never surfaced:
// the cache is an optimization, not a source of truth.
func (c *UserCache) Set(ctx context.Context, user *model.User) {
	if c == nil || c.rdb == nil {
		return
	}

	data, err := json.Marshal(user)
	if err != nil {
		slog.Warn("marshaling user for cache", "user_id", user.ID, "error", err)
		return
	}

	if err := c.rdb.Set(ctx, userKey(user.ID), data, userTTL).Err(); err != nil {
		slog.Warn("caching user", "user_id", user.ID, "error", err)
	}
}

// Delete evicts the cached user, if present.
func (c *UserCache) Delete(ctx context.Context, userID int64) {
	if c == nil || c.rdb == nil {
		return
	}

	if err := c.rdb.Del(ctx, userKey(userID)).Err(); err != nil {
		slog.Warn("evicting cached user", "user_id", userID, "error", err)
	}
}

func userKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}
