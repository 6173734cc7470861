package ratelimit

import "context"

// Service admits or rejects requests per client IP.
// Wait blocks until admission or ctx ends; Close releases background work.
type Service interface {
	Allow(clientIP string) bool
	Wait(ctx context.Context, clientIP string) error
	Close()
}
