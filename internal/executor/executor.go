// SPDX-License-Identifier: MPL-2.0

// Package executor fans a task or an ad hoc function out across every
// context a Provider yields, bounding concurrency with a weighted
// semaphore and collecting passed/failed/errored outcomes — the Go
// rendering of pitcrew's executor.py Executor/ResultsList.
package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/invowk/crewctl/internal/provider"
	pkgcontext "github.com/invowk/crewctl/pkg/context"
	"github.com/invowk/crewctl/pkg/task"
)

// DefaultConcurrency matches pitcrew's Executor default (concurrency=100).
const DefaultConcurrency = 100

// Outcome is one context's result: the producing context's descriptor,
// the value it returned (nil on failure), and the terminating error, if
// any.
type Outcome struct {
	ContextDescriptor string
	Result            any
	Err               error
}

// ResultSet buckets every Outcome as passed, failed (an *AssertionError
// surfaced, the expected-failure path), or errored (anything else),
// mirroring pitcrew's ResultsList.append classification.
type ResultSet struct {
	mu      sync.Mutex
	Passed  []Outcome
	Failed  []Outcome
	Errored []Outcome
}

func (r *ResultSet) append(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case o.Err == nil:
		r.Passed = append(r.Passed, o)
	case isAssertionFailure(o.Err):
		r.Failed = append(r.Failed, o)
	default:
		r.Errored = append(r.Errored, o)
	}
}

func isAssertionFailure(err error) bool {
	var assertErr *task.AssertionError
	return errors.As(err, &assertErr)
}

// Executor bounds concurrency across a Provider's context sequence with
// a semaphore.Weighted(cap), matching pitcrew's asyncio.Queue(maxsize)
// backpressure via Go's goroutine-plus-semaphore idiom.
type Executor struct {
	provider provider.Provider
	sem      *semaphore.Weighted

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New constructs an Executor over provider with the given concurrency
// cap. A cap of 0 or less uses DefaultConcurrency.
func New(p provider.Provider, cap int) *Executor {
	if cap <= 0 {
		cap = DefaultConcurrency
	}
	return &Executor{provider: p, sem: semaphore.NewWeighted(int64(cap))}
}

// RunTask invokes t against every context the provider yields, binding
// args as the task's positional arguments.
func (e *Executor) RunTask(ctx context.Context, logger task.Logger, t task.Task, args ...any) (*ResultSet, error) {
	return e.invoke(ctx, func(ctx context.Context, cc pkgcontext.Context) (any, error) {
		return task.Invoke(ctx, cc, logger, t, args...)
	})
}

// Invoke runs fn against every context the provider yields, the
// ad hoc-task equivalent of RunTask.
func (e *Executor) Invoke(ctx context.Context, fn pkgcontext.AdHocFunc) (*ResultSet, error) {
	return e.invoke(ctx, func(ctx context.Context, cc pkgcontext.Context) (any, error) {
		return cc.Invoke(ctx, fn)
	})
}

func (e *Executor) invoke(ctx context.Context, work func(context.Context, pkgcontext.Context) (any, error)) (*ResultSet, error) {
	runCtx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	defer cancel()

	if err := e.provider.Acquire(runCtx); err != nil {
		return nil, fmt.Errorf("executor: acquiring provider: %w", err)
	}
	defer e.provider.Release(runCtx)

	results := &ResultSet{}
	group, groupCtx := errgroup.WithContext(runCtx)

	enqueueErr := e.provider.Each(runCtx, func(cc pkgcontext.Context) bool {
		if err := e.sem.Acquire(groupCtx, 1); err != nil {
			return false
		}
		group.Go(func() error {
			defer e.sem.Release(1)
			runOneContext(groupCtx, cc, work, results)
			return nil
		})
		return groupCtx.Err() == nil
	})

	waitErr := group.Wait()
	if enqueueErr != nil {
		return results, fmt.Errorf("executor: enqueuing contexts: %w", enqueueErr)
	}
	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return results, waitErr
	}
	return results, nil
}

// runOneContext acquires cc, runs work against it, releases it, and
// records the outcome. Context cancellation produces no outcome entry
// at all — cancellation is withdrawal from the run, not a failure of it.
func runOneContext(ctx context.Context, cc pkgcontext.Context, work func(context.Context, pkgcontext.Context) (any, error), results *ResultSet) {
	if ctx.Err() != nil {
		return
	}
	if err := cc.Acquire(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		results.append(Outcome{ContextDescriptor: cc.Descriptor(), Err: err})
		return
	}
	defer cc.Release(ctx)

	result, err := work(ctx, cc)
	if ctx.Err() != nil {
		return
	}
	results.append(Outcome{ContextDescriptor: cc.Descriptor(), Result: result, Err: err})
}

// Close cancels the context of the invocation currently running, if
// any, and returns at once without waiting for its workers to unwind.
// RunTask and Invoke themselves return only after every worker they
// started has finished.
func (e *Executor) Close() error {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return nil
}
