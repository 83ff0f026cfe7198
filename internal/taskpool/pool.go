// Package taskpool provides the bounded task runner used by every fan-out
// phase of the prerender pipeline. At most N units run concurrently; excess
// submissions wait for a permit in submission order. A failing unit never
// cancels its siblings; all unit errors are collected and returned together
// by Wait, so callers that need fail-fast semantics check the joined error
// after the drain.
package taskpool

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Pool is a single-use bounded runner: submit any number of units, then call
// Wait exactly once to drain. Pools are cheap; each fan-out creates its own.
type Pool struct {
	parallel int
	sem      *semaphore.Weighted
	wg       sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

// New creates a pool with the given concurrency ceiling. A value <= 0 selects
// runtime.NumCPU(); the ceiling is never below 1.
func New(parallel int) *Pool {
	if parallel <= 0 {
		parallel = runtime.NumCPU()
	}
	if parallel < 1 {
		parallel = 1
	}
	return &Pool{
		parallel: parallel,
		sem:      semaphore.NewWeighted(int64(parallel)),
	}
}

// Parallel returns the configured concurrency ceiling.
func (p *Pool) Parallel() int { return p.parallel }

// Submit schedules one unit of work. It blocks until a permit is free, which
// keeps admission in submission order, then runs the unit on its own
// goroutine. If ctx is canceled while waiting for a permit the unit is
// dropped and the cancellation recorded; units already running are not
// interrupted.
func (p *Pool) Submit(ctx context.Context, fn func(context.Context) error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		p.record(err)
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.sem.Release(1)
		if err := fn(ctx); err != nil {
			p.record(err)
		}
	}()
}

// Wait blocks until every submitted unit has finished and returns all
// collected unit errors joined together, or nil if none failed.
func (p *Pool) Wait() error {
	p.wg.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.errs...)
}

func (p *Pool) record(err error) {
	p.mu.Lock()
	p.errs = append(p.errs, err)
	p.mu.Unlock()
}
