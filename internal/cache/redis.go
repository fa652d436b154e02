package cache

import (
	"context"
	"errors"
	"log"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// opTimeout bounds every Redis round trip so a slow cache cannot stall the
// request it is supposed to speed up.
const opTimeout = 250 * time.Millisecond

// Redis implements Store on a Redis server.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the given URL (redis://...) and verifies the
// connection with a ping before returning.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	value, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: get %s failed: %v", key, err)
		}
		return nil, false
	}
	return value, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if err := r.client.SetEx(ctx, key, value, ttl).Err(); err != nil {
		log.Printf("cache: set %s failed: %v", key, err)
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
