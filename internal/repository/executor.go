package repository

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/semaphore"

	apperrors "github.com/julianstephens/pillbook/internal/errors"
	"github.com/julianstephens/pillbook/internal/logger"
)

// executor runs repository jobs on at most workers goroutines. Jobs sharing
// a key run one at a time in submission order; jobs with different keys, and
// unkeyed jobs, run concurrently. Accepted jobs wait in memory, not in
// goroutines, and an idle executor holds none.
//
// A job must not block on another job of the same executor.
type executor struct {
	name string
	sem  *semaphore.Weighted

	mu     sync.Mutex
	ready  []job
	queues map[string][]func()
	closed bool
	wg     sync.WaitGroup
}

type job struct {
	key string
	fn  func()
}

func newExecutor(name string, workers int) *executor {
	if workers < 1 {
		workers = 1
	}
	return &executor{
		name:   name,
		sem:    semaphore.NewWeighted(int64(workers)),
		queues: make(map[string][]func()),
	}
}

// submit schedules fn. It reports false, without running fn, once the
// executor is closed.
func (e *executor) submit(key string, fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	e.wg.Add(1)

	if key != "" {
		if q, busy := e.queues[key]; busy {
			e.queues[key] = append(q, fn)
			return true
		}
		// an empty, present queue marks the key as busy
		e.queues[key] = nil
	}
	e.ready = append(e.ready, job{key: key, fn: fn})
	if e.sem.TryAcquire(1) {
		go e.work()
	}
	return true
}

// work runs ready jobs until there are none left. The empty check and the
// release happen under mu, so submit either sees a free slot or leaves its
// job to a worker that is still looping.
func (e *executor) work() {
	for {
		e.mu.Lock()
		if len(e.ready) == 0 {
			e.sem.Release(1)
			e.mu.Unlock()
			return
		}
		j := e.ready[0]
		e.ready[0] = job{}
		e.ready = e.ready[1:]
		e.mu.Unlock()

		e.run(j.fn)

		if j.key == "" {
			continue
		}
		e.mu.Lock()
		if q := e.queues[j.key]; len(q) == 0 {
			delete(e.queues, j.key)
		} else {
			e.ready = append(e.ready, job{key: j.key, fn: q[0]})
			e.queues[j.key] = q[1:]
		}
		e.mu.Unlock()
	}
}

func (e *executor) run(fn func()) {
	defer e.wg.Done()
	defer func() {
		if p := recover(); p != nil {
			logger.Error("job panicked", "executor", e.name, "panic", p)
		}
	}()
	fn()
}

// close stops intake and waits for every accepted job, queued ones
// included. It is safe to call more than once.
func (e *executor) close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.wg.Wait()
}

func (e *executor) running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return !e.closed
}

// spawn runs fn on ex under key and delivers its outcome through a Result.
// fn receives ctx detached from cancellation: once accepted, a job always
// runs to completion.
func spawn[T any](ex *executor, ctx context.Context, key string, fn func(context.Context) (T, error)) *Result[T] {
	res := newResult[T]()
	jobCtx := context.WithoutCancel(ctx)
	accepted := ex.submit(key, func() {
		var zero T
		defer func() {
			if p := recover(); p != nil {
				res.resolve(zero, apperrors.Store("complete operation", fmt.Errorf("panic: %v", p)))
				panic(p)
			}
		}()
		v, err := fn(jobCtx)
		res.resolve(v, err)
	})
	if !accepted {
		var zero T
		res.resolve(zero, apperrors.Unavailable(apperrors.MsgRepositoryClosed))
	}
	return res
}
