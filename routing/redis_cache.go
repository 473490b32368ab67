package routing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces oracle cache entries in a shared redis
// instance, since it may be used by more than one dispatch-core process.
const redisKeyPrefix = "drtdispatch:route:"

// NewRedisClient connects to the optional L2 cache. Returns nil when
// addr is empty: the oracle then runs with the in-process L1 cache
// only, which is all a single-process test run needs.
func NewRedisClient(addr string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, DB: db})
}

func (o *Oracle) loadFromRedis(key string) (Entry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := o.redis.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		return Entry{}, false
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false
	}
	return e, true
}

func (o *Oracle) storeToRedis(key string, e Entry) {
	if o.redis == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := json.Marshal(e)
	if err != nil {
		return
	}
	o.redis.Set(ctx, redisKeyPrefix+key, raw, 24*time.Hour)
}
