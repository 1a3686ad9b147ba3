package redis

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"

	infraredis "github.com/iho/fintrack/internal/infrastructure/redis"
)

// newTestRedisClient dials an in-process miniredis through the same
// constructor the server uses, so URL parsing and the startup ping run too.
func newTestRedisClient(t *testing.T) (*redislib.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := infraredis.NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("connect to miniredis: %v", err)
	}

	return client, mr
}
