// Package optimistic applies signed deltas to a local mirror before the
// authoritative store confirms them, and undoes exactly that delta on failure.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Adjuster is a mirror of counters that accepts relative deltas.
type Adjuster interface {
	Adjust(ctx context.Context, key string, delta int64) (int64, error)
}

// CommitFunc persists the delta in the authoritative store.
type CommitFunc func(ctx context.Context) error

// RollbackError is returned when the commit failed and the compensating
// adjustment failed too, leaving the mirror ahead of the store.
type RollbackError struct {
	Key      string
	Delta    int64
	Commit   error
	Rollback error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback of %+d on %s failed: %v (commit: %v)", e.Delta, e.Key, e.Rollback, e.Commit)
}

func (e *RollbackError) Unwrap() []error {
	return []error{e.Commit, e.Rollback}
}

// Apply adjusts local by delta, runs commit and, when commit fails, adjusts
// local by -delta. Each call only ever undoes its own delta, so overlapping
// calls on the same key never erase each other. A failing local adjust does
// not block the commit; nothing is rolled back in that case.
func Apply(ctx context.Context, local Adjuster, key string, delta int64, commit CommitFunc) error {
	applied := false
	if local != nil && delta != 0 {
		if _, err := local.Adjust(ctx, key, delta); err == nil {
			applied = true
		}
	}

	err := commit(ctx)
	if err == nil {
		return nil
	}
	if !applied {
		return err
	}

	// The request context may be the reason commit failed.
	if _, rbErr := local.Adjust(context.WithoutCancel(ctx), key, -delta); rbErr != nil {
		return &RollbackError{Key: key, Delta: delta, Commit: err, Rollback: rbErr}
	}
	return err
}

// IsRollbackFailure reports whether err left a mirror out of sync.
func IsRollbackFailure(err error) bool {
	var rb *RollbackError
	return errors.As(err, &rb)
}

// Counter is an in-process Adjuster.
type Counter struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewCounter returns an empty counter set.
func NewCounter() *Counter {
	return &Counter{values: make(map[string]int64)}
}

func (c *Counter) Adjust(_ context.Context, key string, delta int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] += delta
	return c.values[key], nil
}

// Seed sets key to value unless it is already tracked. It reports whether
// the value was stored.
func (c *Counter) Seed(_ context.Context, key string, value int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	c.values[key] = value
	return true, nil
}

// Value returns the tracked value and whether key is tracked.
func (c *Counter) Value(_ context.Context, key string) (int64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.values[key]
	return v, ok, nil
}

// Forget stops tracking key.
func (c *Counter) Forget(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.values, key)
	return nil
}
