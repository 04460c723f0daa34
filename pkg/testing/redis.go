package testing

import (
	"context"
	"net"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
)

// GetRedisClientAndCtx connects to the Redis given by REDIS_HOST, REDIS_PORT
// and REDIS_PASS. The test is skipped when no Redis answers.
func GetRedisClientAndCtx(t *testing.T) (context.Context, *redis.Client) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	redisHost := os.Getenv("REDIS_HOST")
	if redisHost == "" {
		redisHost = "localhost"
	}
	redisPort := os.Getenv("REDIS_PORT")
	if redisPort == "" {
		redisPort = "6379"
	}
	t.Logf("using redis: [%s:%s]", redisHost, redisPort)

	rdb := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(redisHost, redisPort),
		Password:    os.Getenv("REDIS_PASS"),
		DB:          0,
		DialTimeout: time.Second,
	})

	pingRes, err := rdb.Ping(ctx).Result()
	if err != nil {
		_ = rdb.Close()
		t.Skipf("redis not available: %s", err)
	}
	t.Logf("redis ping res: %s", pingRes)

	return ctx, rdb
}
