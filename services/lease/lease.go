// Package lease serializes check-then-act sequences per listing. A lease is a
// short-lived exclusive hold identified by a random token; only the holder's
// token can release it and an abandoned lease expires on its own.
package lease

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrHeld = errors.New("listing is being reserved by another request")

// DefaultTTL applies when Options.TTL is unset.
const DefaultTTL = 30 * time.Second

// Release gives the lease back. It is a no-op once the lease has expired or
// been re-acquired by someone else.
type Release func(ctx context.Context) error

type Locker interface {
	Acquire(ctx context.Context, listingID string) (Release, error)
}

type Options struct {
	TTL  time.Duration
	Wait time.Duration
	// Retry is the pause between attempts while waiting.
	Retry time.Duration
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.Retry <= 0 {
		o.Retry = 50 * time.Millisecond
	}
	return o
}

func newToken() string { return uuid.New().String() }

// acquireLoop calls try until it succeeds, the wait budget is spent or ctx ends.
func acquireLoop(ctx context.Context, opts Options, try func(context.Context) (bool, error)) error {
	deadline := time.Now().Add(opts.Wait)
	for {
		ok, err := try(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		if !time.Now().Before(deadline) {
			return ErrHeld
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.Retry):
		}
	}
}

type memoryHold struct {
	token     string
	expiresAt time.Time
}

// MemoryLocker holds leases in process. Suitable for a single instance.
type MemoryLocker struct {
	mu    sync.Mutex
	opts  Options
	holds map[string]memoryHold
	now   func() time.Time
}

func NewMemoryLocker(opts Options) *MemoryLocker {
	return &MemoryLocker{opts: opts.withDefaults(), holds: make(map[string]memoryHold), now: time.Now}
}

func (l *MemoryLocker) Acquire(ctx context.Context, listingID string) (Release, error) {
	token := newToken()
	err := acquireLoop(ctx, l.opts, func(context.Context) (bool, error) {
		l.mu.Lock()
		defer l.mu.Unlock()
		now := l.now()
		if h, ok := l.holds[listingID]; ok && now.Before(h.expiresAt) {
			return false, nil
		}
		l.holds[listingID] = memoryHold{token: token, expiresAt: now.Add(l.opts.TTL)}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if h, ok := l.holds[listingID]; ok && h.token == token {
			delete(l.holds, listingID)
		}
		return nil
	}, nil
}
