package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/julianstephens/pillbook/internal/constants"
	apperrors "github.com/julianstephens/pillbook/internal/errors"
	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
	"github.com/julianstephens/pillbook/internal/validation"
)

const intakeEntity = "intake record"

// IntakeRecordRepository manages the intake history. Records are snapshots
// and are not tied to a stored medication.
type IntakeRecordRepository struct {
	base
	snap *Broadcaster[[]models.MedicationIntakeRecord]
}

func NewIntakeRecordRepository(store storage.Provider, opts ...Option) *IntakeRecordRepository {
	return &IntakeRecordRepository{
		base: newBase("IntakeRecordRepository", "intake", store, opts),
		snap: NewBroadcaster(cloneSlice[models.MedicationIntakeRecord]),
	}
}

// Create stores a record. A missing intake time means now.
func (r *IntakeRecordRepository) Create(ctx context.Context, rec models.MedicationIntakeRecord) *Result[models.MedicationIntakeRecord] {
	if err := validation.IntakeRecord(rec); err != nil {
		return Failed[models.MedicationIntakeRecord](err)
	}
	key := r.family + ":new:" + uuid.NewString()
	return write(&r.base, ctx, key, "create", 0, func(ctx context.Context) (models.MedicationIntakeRecord, error) {
		rec.ID = 0
		if rec.IntakeTime <= 0 {
			rec.IntakeTime = r.clock.NowMillis()
		}
		id, err := r.store.UpsertIntakeRecord(ctx, rec)
		if err != nil {
			return models.MedicationIntakeRecord{}, apperrors.Store("create intake record", err)
		}
		rec.ID = id
		r.refresh()
		return rec, nil
	})
}

func (r *IntakeRecordRepository) Update(ctx context.Context, rec models.MedicationIntakeRecord) *Result[models.MedicationIntakeRecord] {
	if err := validation.ID(rec.ID); err != nil {
		return Failed[models.MedicationIntakeRecord](err)
	}
	if err := validation.IntakeRecord(rec); err != nil {
		return Failed[models.MedicationIntakeRecord](err)
	}
	return write(&r.base, ctx, r.key(rec.ID), "update", rec.ID, func(ctx context.Context) (models.MedicationIntakeRecord, error) {
		stored, err := r.store.GetIntakeRecord(ctx, rec.ID)
		if err != nil {
			return models.MedicationIntakeRecord{}, r.storeErr("load intake record", intakeEntity, rec.ID, err)
		}
		if rec.IntakeTime <= 0 {
			rec.IntakeTime = stored.IntakeTime
		}
		if _, err := r.store.UpsertIntakeRecord(ctx, rec); err != nil {
			return models.MedicationIntakeRecord{}, apperrors.Store("update intake record", err)
		}
		r.refresh()
		return rec, nil
	})
}

func (r *IntakeRecordRepository) Delete(ctx context.Context, id int64) *Result[struct{}] {
	if err := validation.ID(id); err != nil {
		return Failed[struct{}](err)
	}
	return write(&r.base, ctx, r.key(id), "delete", id, func(ctx context.Context) (struct{}, error) {
		deleted, err := r.store.DeleteIntakeRecord(ctx, id)
		if err != nil {
			return struct{}{}, apperrors.Store("delete intake record", err)
		}
		if !deleted {
			return struct{}{}, apperrors.NotFound(intakeEntity, id)
		}
		r.refresh()
		return struct{}{}, nil
	})
}

func (r *IntakeRecordRepository) Get(ctx context.Context, id int64) *Result[models.MedicationIntakeRecord] {
	if err := validation.ID(id); err != nil {
		return Failed[models.MedicationIntakeRecord](err)
	}
	return read(&r.base, ctx, func(ctx context.Context) (models.MedicationIntakeRecord, error) {
		rec, err := r.store.GetIntakeRecord(ctx, id)
		return rec, r.storeErr("load intake record", intakeEntity, id, err)
	})
}

func (r *IntakeRecordRepository) Exists(ctx context.Context, id int64) *Result[bool] {
	if id <= 0 {
		return Resolved(false)
	}
	return read(&r.base, ctx, func(ctx context.Context) (bool, error) {
		_, err := r.store.GetIntakeRecord(ctx, id)
		return exists(err, "load intake record")
	})
}

// List returns matching records, newest first.
func (r *IntakeRecordRepository) List(ctx context.Context, f storage.IntakeFilter) *Result[[]models.MedicationIntakeRecord] {
	if f.From > 0 && f.To > 0 {
		if err := validation.TimeRange(f.From, f.To); err != nil {
			return Failed[[]models.MedicationIntakeRecord](err)
		}
	}
	return read(&r.base, ctx, func(ctx context.Context) ([]models.MedicationIntakeRecord, error) {
		list, err := r.store.ListIntakeRecords(ctx, f)
		if err != nil {
			return nil, apperrors.Store("list intake records", err)
		}
		return list, nil
	})
}

func (r *IntakeRecordRepository) Count(ctx context.Context, f storage.IntakeFilter) *Result[int] {
	return read(&r.base, ctx, func(ctx context.Context) (int, error) {
		n, err := r.store.CountIntakeRecords(ctx, f)
		if err != nil {
			return 0, apperrors.Store("count intake records", err)
		}
		return n, nil
	})
}

// Recent returns the latest limit records. A non-positive limit uses the
// default.
func (r *IntakeRecordRepository) Recent(ctx context.Context, limit int) *Result[[]models.MedicationIntakeRecord] {
	if limit <= 0 {
		limit = constants.DefaultRecentLimit
	}
	return r.List(ctx, storage.IntakeFilter{Limit: limit})
}

// Watch streams the full intake history, starting with the current one.
func (r *IntakeRecordRepository) Watch(ctx context.Context) *Subscription[[]models.MedicationIntakeRecord] {
	sub, stale := r.snap.subscribe(ctx)
	if stale {
		r.refresh()
	}
	return sub
}

func (r *IntakeRecordRepository) refresh() {
	refresh(&r.base, r.snapshotKey(), r.snap, func(ctx context.Context) ([]models.MedicationIntakeRecord, error) {
		return r.store.ListIntakeRecords(ctx, storage.IntakeFilter{})
	})
}

func (r *IntakeRecordRepository) Status() string {
	return r.status(r.snap.Len())
}

func (r *IntakeRecordRepository) Cleanup() {
	r.exec.close()
	r.snap.Close()
}
