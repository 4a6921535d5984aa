// Package repository stores session records in memory or Redis.
package repository

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a key is missing or expired.
var ErrNotFound = errors.New("session not found")

// SessionRepository is a key-value store for serialized session records.
type SessionRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
