package domain

import (
	"context"
)

type RateLimiterService interface {
	Allow(ctx context.Context) error
	Wait(ctx context.Context) error
}

type Cache[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Set(ctx context.Context, key K, value V)
	Delete(ctx context.Context, key K)
	Values(ctx context.Context) []V
	SetBatch(ctx context.Context, items map[K]V)
}
