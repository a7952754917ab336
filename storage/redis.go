package storage

import (
	"log"

	"github.com/go-redis/redis/v8"
)

// NewRedis builds the cache client used for tenant payment settings. A nil
// client is a valid return (addr empty): callers treat the cache as absent
// rather than failing startup.
func NewRedis(addr string) *redis.Client {
	if addr == "" {
		log.Println("REDIS_URL not set, settings cache disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
	})

	log.Println("redis initialized with address:", addr)
	return client
}
