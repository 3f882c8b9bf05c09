package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
)

// DefaultMaxInflight is used when NewManager receives a non-positive limit.
const DefaultMaxInflight = 64

// Manager runs fire-and-forget work with a concurrency cap. Panics are
// recovered and logged; returned errors are collected for Wait.
type Manager struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	sema    chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

func NewManager(maxInflight int) *Manager {
	if maxInflight < 1 {
		maxInflight = DefaultMaxInflight
	}
	return &Manager{sema: make(chan struct{}, maxInflight)}
}

// Go schedules f. When the manager is closed or at capacity f is dropped and
// false is returned.
func (g *Manager) Go(ctx context.Context, f func(ctx context.Context) error) bool {
	if g == nil {
		return false
	}

	g.stateMu.RLock()
	defer g.stateMu.RUnlock()
	if g.closed {
		slog.WarnContext(ctx, "goroutine manager is closed, skipping task")
		return false
	}

	select {
	case g.sema <- struct{}{}:
	default:
		slog.WarnContext(ctx, "goroutine limit reached, skipping task")
		return false
	}

	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		defer func() {
			<-g.sema
			if rvr := recover(); rvr != nil {
				slog.ErrorContext(ctx, "panic in background task", "panic", rvr, "stack", string(debug.Stack()))
			}
		}()

		if err := f(ctx); err != nil {
			g.mu.Lock()
			g.errs = append(g.errs, err)
			g.mu.Unlock()
		}
	}()
	return true
}

// Wait closes the manager to new work, blocks until running tasks finish and
// returns their joined errors.
func (g *Manager) Wait() error {
	if g == nil {
		return nil
	}

	g.stateMu.Lock()
	g.closed = true
	g.stateMu.Unlock()

	g.wg.Wait()

	g.mu.Lock()
	defer g.mu.Unlock()
	return errors.Join(g.errs...)
}
