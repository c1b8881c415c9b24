package activityrepo

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/mergington-high/activities-api/internal/adapters/contracttest"
	activityrepoport "github.com/mergington-high/activities-api/internal/ports/out/activityrepo"
)

// newTestClient connects to TEST_REDIS_ADDR when set, otherwise to an in-process miniredis.
func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis ping %s: %v", addr, err)
	}
	return rdb
}

func TestContract_RedisActivityRepo(t *testing.T) {
	rdb := newTestClient(t)

	contracttest.RunActivityRepo(t, func(t *testing.T) (activityrepoport.Repository, func()) {
		t.Helper()
		prefix := "test:" + uuid.NewString() + ":"
		cleanup := func() {
			ctx := context.Background()
			iter := rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
			for iter.Next(ctx) {
				_ = rdb.Del(ctx, iter.Val()).Err()
			}
		}
		return NewRepo(rdb, prefix), cleanup
	})
}
