package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(redisURL string) (*Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Client{client}, nil
}

func (c *Client) Close() error {
	return c.Client.Close()
}

func RevokedSessionKey(tokenID string) string {
	return fmt.Sprintf("admin:revoked:%s", tokenID)
}

func LoginAttemptKey(ip string) string {
	return fmt.Sprintf("admin:login:%s", ip)
}

func ApplicationAttemptKey(ip string) string {
	return fmt.Sprintf("seller:apply:%s", ip)
}
