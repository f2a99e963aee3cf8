// Package ratelimit throttles requests per client key, in memory or shared
// through Redis.
package ratelimit

import "context"

// Limiter decides whether the caller identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}
