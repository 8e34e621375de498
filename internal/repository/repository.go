// Package repository is the asynchronous data access layer. Every operation
// validates its input, hands the store work to a background executor and
// returns a Result immediately. Writes to the same record are serialized;
// snapshots of each family are pushed to watchers after every write.
package repository

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/julianstephens/pillbook/internal/clock"
	"github.com/julianstephens/pillbook/internal/constants"
	apperrors "github.com/julianstephens/pillbook/internal/errors"
	"github.com/julianstephens/pillbook/internal/logger"
	"github.com/julianstephens/pillbook/internal/storage"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	clock   clock.Clock
	workers int
}

// WithClock sets the time source used for timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithWorkers bounds how many store operations one repository runs at once.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{workers: constants.DefaultWorkers}
	for _, opt := range opts {
		opt(&o)
	}
	o.clock = clock.Or(o.clock)
	return o
}

// Repositories groups the repositories sharing one store.
type Repositories struct {
	Medications *MedicationRepository
	Intakes     *IntakeRecordRepository
	Diaries     *DiaryRepository
	Schedules   *ScheduleRepository
}

// New wires the repositories over store.
func New(store storage.Provider, opts ...Option) *Repositories {
	intakes := NewIntakeRecordRepository(store, opts...)
	schedules := NewScheduleRepository(store, opts...)
	meds := NewMedicationRepository(store, opts...)
	meds.intakes = intakes
	meds.schedules = schedules
	return &Repositories{
		Medications: meds,
		Intakes:     intakes,
		Diaries:     NewDiaryRepository(store, opts...),
		Schedules:   schedules,
	}
}

// Close drains and stops every repository. The store is left open.
func (r *Repositories) Close() {
	r.Medications.Cleanup()
	r.Intakes.Cleanup()
	r.Diaries.Cleanup()
	r.Schedules.Cleanup()
}

// Status returns one diagnostic line per repository.
func (r *Repositories) Status() []string {
	return []string{r.Medications.Status(), r.Intakes.Status(), r.Diaries.Status(), r.Schedules.Status()}
}

// base holds what every repository shares.
type base struct {
	name   string
	family string
	store  storage.Provider
	clock  clock.Clock
	exec   *executor
}

func newBase(name, family string, store storage.Provider, opts []Option) base {
	o := buildOptions(opts)
	return base{
		name:   name,
		family: family,
		store:  store,
		clock:  o.clock,
		exec:   newExecutor(name, o.workers),
	}
}

func (b *base) key(id int64) string {
	return fmt.Sprintf("%s:%d", b.family, id)
}

func (b *base) snapshotKey() string {
	return b.family + ":snapshot"
}

func (b *base) status(subscribers int) string {
	store := "disconnected"
	if b.store != nil {
		store = b.store.Describe()
	}
	exec := "stopped"
	if b.exec.running() {
		exec = "running"
	}
	return fmt.Sprintf("%s: store=%s, executor=%s, subscribers=%d", b.name, store, exec, subscribers)
}

// storeErr maps a store failure to the error delivered to callers. A missing
// row becomes not_found for entity id; errors that already carry a kind pass
// through.
func (b *base) storeErr(op, entity string, id int64, err error) error {
	var appErr *apperrors.Error
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, storage.ErrNotFound):
		return apperrors.NotFound(entity, id)
	default:
		return apperrors.Store(op, err)
	}
}

// exists turns the error of a Get into an existence check.
func exists(err error, op string) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, apperrors.Store(op, err)
	}
}

func cloneSlice[E any](s []E) []E {
	return slices.Clone(s)
}

// write runs fn as a keyed write and logs its outcome.
func write[T any](b *base, ctx context.Context, key, op string, id int64, fn func(context.Context) (T, error)) *Result[T] {
	opID := uuid.NewString()
	return spawn(b.exec, ctx, key, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		kv := []interface{}{"repo", b.family, "op", op, "id", id, "op_id", opID}
		switch {
		case err == nil:
			logger.Debug("write applied", kv...)
		case apperrors.Is(err, apperrors.KindStore):
			logger.Error("write failed", append(kv, "error", errors.Unwrap(err))...)
		default:
			logger.Debug("write rejected", append(kv, "error", err)...)
		}
		return v, err
	})
}

// read runs fn unkeyed.
func read[T any](b *base, ctx context.Context, fn func(context.Context) (T, error)) *Result[T] {
	return spawn(b.exec, ctx, "", fn)
}

// refresh re-queries a snapshot on the family's snapshot key and publishes
// it, provided someone is watching.
func refresh[T any](b *base, key string, bc *Broadcaster[T], load func(context.Context) (T, error)) {
	if !bc.invalidate() {
		return
	}
	b.exec.submit(key, func() {
		v, err := load(context.Background())
		if err != nil {
			logger.Warn("snapshot refresh failed", "repo", b.family, "error", err)
			return
		}
		bc.Publish(v)
	})
}
