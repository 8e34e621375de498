package repository

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/julianstephens/pillbook/internal/errors"
)

func TestResultResolvesOnce(t *testing.T) {
	r := newResult[int]()
	if _, ok, _ := r.Value(); ok {
		t.Fatal("Value reported ready before resolve")
	}

	r.resolve(1, nil)
	r.resolve(2, errors.New("late"))

	v, err := r.Wait()
	if v != 1 || err != nil {
		t.Errorf("Wait() = %d, %v; want 1, nil", v, err)
	}
	if v, ok, err := r.Value(); v != 1 || !ok || err != nil {
		t.Errorf("Value() = %d, %v, %v; want 1, true, nil", v, ok, err)
	}

	failed := Failed[int](apperrors.NotFound("medication", 3))
	if _, ok, err := failed.Value(); !ok || !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("Value() = %v, %v; want ready not_found", ok, err)
	}
}

func TestResultWrapsPlainErrors(t *testing.T) {
	r := Failed[int](errors.New("disk full"))
	_, err := r.Wait()
	if !apperrors.Is(err, apperrors.KindStore) {
		t.Errorf("kind = %q, want store", apperrors.KindOf(err))
	}
	if err.Error() != "failed to complete operation" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestResultAwaitCancelled(t *testing.T) {
	r := newResult[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Await(ctx)
	if !apperrors.Is(err, apperrors.KindUnavailable) || !errors.Is(err, context.Canceled) {
		t.Errorf("Await() error = %v", err)
	}
}

func TestExecutorSerializesSameKey(t *testing.T) {
	e := newExecutor("test", 4)
	defer e.close()

	var (
		mu    sync.Mutex
		order []int
	)
	var active atomic.Int32
	for i := 0; i < 20; i++ {
		e.submit("k", func() {
			if active.Add(1) > 1 {
				t.Error("two jobs with the same key ran at once")
			}
			time.Sleep(time.Millisecond)
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			active.Add(-1)
		})
	}
	e.close()

	for i, got := range order {
		if got != i {
			t.Fatalf("order = %v, want submission order", order)
		}
	}
	if len(order) != 20 {
		t.Errorf("ran %d jobs, want 20", len(order))
	}
}

func TestExecutorRunsKeysConcurrently(t *testing.T) {
	e := newExecutor("test", 2)
	defer e.close()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(2)
	for _, key := range []string{"a", "b"} {
		e.submit(key, func() {
			started.Done()
			<-release
		})
	}

	done := make(chan struct{})
	go func() {
		started.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs with different keys did not run concurrently")
	}
	close(release)
}

func TestExecutorBoundsWorkers(t *testing.T) {
	e := newExecutor("test", 2)

	var active, peak atomic.Int32
	for i := 0; i < 10; i++ {
		e.submit("", func() {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			active.Add(-1)
		})
	}
	e.close()

	if peak.Load() > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestExecutorBurstKeepsGoroutinesBounded(t *testing.T) {
	e := newExecutor("test", 2)
	before := runtime.NumGoroutine()

	release := make(chan struct{})
	var started atomic.Int32
	for i := 0; i < 200; i++ {
		key := ""
		if i%2 == 0 {
			key = fmt.Sprintf("k%d", i%10)
		}
		e.submit(key, func() {
			started.Add(1)
			<-release
		})
	}
	for started.Load() < 2 {
		time.Sleep(time.Millisecond)
	}

	if extra := runtime.NumGoroutine() - before; extra > 2+5 {
		t.Errorf("%d goroutines for 200 queued jobs on 2 workers", extra)
	}
	if n := started.Load(); n != 2 {
		t.Errorf("%d jobs running, want 2", n)
	}

	close(release)
	e.close()
	if n := started.Load(); n != 200 {
		t.Errorf("ran %d jobs, want 200", n)
	}
}

func TestExecutorIdleHoldsNoGoroutines(t *testing.T) {
	e := newExecutor("test", 4)
	defer e.close()

	spawn(e, context.Background(), "k", func(context.Context) (int, error) { return 1, nil }).Wait()
	// the worker releases its slot after the job's result is delivered
	deadline := time.Now().Add(2 * time.Second)
	for !e.sem.TryAcquire(4) {
		if time.Now().After(deadline) {
			t.Fatal("worker did not exit once idle")
		}
		time.Sleep(time.Millisecond)
	}
	e.sem.Release(4)
}

func TestExecutorCloseDrainsAndRejects(t *testing.T) {
	e := newExecutor("test", 1)

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		e.submit("k", func() {
			time.Sleep(time.Millisecond)
			ran.Add(1)
		})
	}
	e.close()
	if ran.Load() != 5 {
		t.Errorf("ran = %d after close, want 5", ran.Load())
	}

	if e.submit("k", func() { t.Error("job ran after close") }) {
		t.Error("submit accepted work after close")
	}
	e.close()
	if e.running() {
		t.Error("executor reports running after close")
	}
}

func TestSpawnAfterCloseIsUnavailable(t *testing.T) {
	e := newExecutor("test", 1)
	e.close()

	_, err := spawn(e, context.Background(), "k", func(context.Context) (int, error) {
		return 1, nil
	}).Wait()
	if !apperrors.Is(err, apperrors.KindUnavailable) || err.Error() != apperrors.MsgRepositoryClosed {
		t.Errorf("error = %v", err)
	}
}

func TestSpawnRecoversPanics(t *testing.T) {
	e := newExecutor("test", 1)
	defer e.close()

	_, err := spawn(e, context.Background(), "k", func(context.Context) (int, error) {
		panic("boom")
	}).Wait()
	if !apperrors.Is(err, apperrors.KindStore) {
		t.Errorf("error = %v, want store kind", err)
	}

	// the key is free again
	v, err := spawn(e, context.Background(), "k", func(context.Context) (int, error) {
		return 7, nil
	}).Wait()
	if v != 7 || err != nil {
		t.Errorf("after panic: %d, %v", v, err)
	}
}

func TestSpawnIgnoresCallerCancellation(t *testing.T) {
	e := newExecutor("test", 1)
	defer e.close()

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	res := spawn(e, ctx, "k", func(ctx context.Context) (error, error) {
		close(started)
		time.Sleep(5 * time.Millisecond)
		return ctx.Err(), nil
	})
	<-started
	cancel()

	jobErr, _ := res.Wait()
	if jobErr != nil {
		t.Errorf("job saw cancellation: %v", jobErr)
	}
}
