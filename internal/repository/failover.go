package repository

import (
	"context"
	"errors"
	"maps"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const recoveryInterval = time.Minute

// pendingChange is a write or delete served by the fallback while the
// primary was down. It is replayed on the primary before the primary is
// read again.
type pendingChange struct {
	deleted bool
	ttl     time.Duration
	at      time.Time
}

// FailoverRepository uses primary until it fails, then serves from
// fallback and periodically retries primary.
type FailoverRepository struct {
	primary  SessionRepository
	fallback SessionRepository
	logger   zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
	pending   map[string]pendingChange
}

// NewFailoverRepository combines a primary and a fallback repository.
func NewFailoverRepository(primary, fallback SessionRepository, logger *zerolog.Logger) *FailoverRepository {
	l := zerolog.Nop()
	if logger != nil {
		l = logger.With().Str("component", "session_failover").Logger()
	}
	return &FailoverRepository{
		primary:  primary,
		fallback: fallback,
		logger:   l,
		pending:  make(map[string]pendingChange),
	}
}

// usePrimary reports whether the primary should be tried now.
func (r *FailoverRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if time.Since(r.lastCheck) < recoveryInterval {
		return false
	}
	r.lastCheck = time.Now()
	return true
}

func (r *FailoverRepository) markDown(err error) {
	if !r.isDown.Swap(true) {
		r.logger.Warn().Err(err).Msg("primary session storage down, using fallback")
	}
	r.mu.Lock()
	r.lastCheck = time.Now()
	r.mu.Unlock()
}

func (r *FailoverRepository) markUp() {
	if r.isDown.Swap(false) {
		r.logger.Info().Msg("primary session storage recovered")
	}
}

func (r *FailoverRepository) record(key string, c pendingChange) {
	r.mu.Lock()
	r.pending[key] = c
	r.mu.Unlock()
}

func (r *FailoverRepository) settle(key string, c pendingChange) {
	r.mu.Lock()
	if cur, ok := r.pending[key]; ok && cur == c {
		delete(r.pending, key)
	}
	r.mu.Unlock()
}

func (r *FailoverRepository) forget(key string) {
	r.mu.Lock()
	delete(r.pending, key)
	r.mu.Unlock()
}

// flush replays pending changes on the primary. Sessions keep their
// original expiry; ones that expired in the meantime are deleted.
func (r *FailoverRepository) flush(ctx context.Context) error {
	r.mu.Lock()
	if len(r.pending) == 0 {
		r.mu.Unlock()
		return nil
	}
	changes := maps.Clone(r.pending)
	r.mu.Unlock()

	for key, c := range changes {
		if err := r.replay(ctx, key, c); err != nil {
			return err
		}
		r.settle(key, c)
	}
	r.logger.Info().Int("changes", len(changes)).Msg("session changes replayed on primary")
	return nil
}

func (r *FailoverRepository) replay(ctx context.Context, key string, c pendingChange) error {
	if c.deleted {
		return r.primary.Delete(ctx, key)
	}

	ttl := c.ttl
	if ttl > 0 {
		ttl -= time.Since(c.at)
	}
	val, err := r.fallback.Get(ctx, key)
	if errors.Is(err, ErrNotFound) || (c.ttl > 0 && ttl <= 0) {
		return r.primary.Delete(ctx, key)
	}
	if err != nil {
		return err
	}
	return r.primary.Set(ctx, key, val, ttl)
}

// Get reads the primary once pending changes are replayed, otherwise the
// fallback.
func (r *FailoverRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if r.usePrimary() {
		err := r.flush(ctx)
		if err == nil {
			var val []byte
			val, err = r.primary.Get(ctx, key)
			if err == nil || errors.Is(err, ErrNotFound) {
				r.markUp()
				return val, err
			}
		}
		r.markDown(err)
	}
	return r.fallback.Get(ctx, key)
}

func (r *FailoverRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if r.usePrimary() {
		err := r.flush(ctx)
		if err == nil {
			err = r.primary.Set(ctx, key, value, ttl)
		}
		if err == nil {
			r.markUp()
			r.forget(key)
			return nil
		}
		r.markDown(err)
	}
	r.record(key, pendingChange{ttl: ttl, at: time.Now()})
	return r.fallback.Set(ctx, key, value, ttl)
}

func (r *FailoverRepository) Delete(ctx context.Context, key string) error {
	fbErr := r.fallback.Delete(ctx, key)
	if r.usePrimary() {
		err := r.flush(ctx)
		if err == nil {
			err = r.primary.Delete(ctx, key)
		}
		if err == nil {
			r.markUp()
			r.forget(key)
			return fbErr
		}
		r.markDown(err)
	}
	r.record(key, pendingChange{deleted: true, at: time.Now()})
	return fbErr
}
