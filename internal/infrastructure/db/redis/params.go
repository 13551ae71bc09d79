package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const keyParamsHash = "civic:params"

// ParamStore exposes live tunable parameters from a Redis hash. Every read
// failure or missing field yields the caller's fallback, so a Redis outage
// degrades to the compiled defaults instead of erroring.
type ParamStore struct {
	client *redis.Client
}

func NewParamStore(client *redis.Client) *ParamStore {
	return &ParamStore{client: client}
}

func (p *ParamStore) Float(ctx context.Context, key string, fallback float64) float64 {
	raw, err := p.client.HGet(ctx, keyParamsHash, key).Result()
	if err != nil {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func (p *ParamStore) Int(ctx context.Context, key string, fallback int) int {
	raw, err := p.client.HGet(ctx, keyParamsHash, key).Result()
	if err != nil {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// Set writes one live parameter. Admin-only path.
func (p *ParamStore) Set(ctx context.Context, key, value string) error {
	return p.client.HSet(ctx, keyParamsHash, key, value).Err()
}
