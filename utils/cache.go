// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"lockbox/config"

	"github.com/go-redis/redis/v8"
)

var (
	// LeaseClient backs per-listing reservation holds.
	LeaseClient *redis.Client
	// ChatClient carries presence nudges for connected chat users.
	ChatClient *redis.Client
)

func newRedisClient(db int, purpose string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (%s): %v", purpose, err)
	}
	return client
}

// GetLeaseClient returns the Redis client for listing leases.
func GetLeaseClient() *redis.Client {
	if LeaseClient == nil {
		LeaseClient = newRedisClient(config.AppConfig.RedisLeaseDB, "Lease")
	}
	return LeaseClient
}

// GetChatClient returns the Redis client for chat presence.
func GetChatClient() *redis.Client {
	if ChatClient == nil {
		ChatClient = newRedisClient(config.AppConfig.RedisChatDB, "Chat")
	}
	return ChatClient
}
