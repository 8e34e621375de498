package repository

import (
	"context"
	"slices"
	"strings"

	"github.com/julianstephens/pillbook/internal/constants"
	apperrors "github.com/julianstephens/pillbook/internal/errors"
	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
	"github.com/julianstephens/pillbook/internal/validation"
)

const medicationEntity = "medication"

// CreateOptions adjusts Create.
type CreateOptions struct {
	// AllowDuplicate skips the case-insensitive duplicate name check.
	AllowDuplicate bool
}

// Consumption is the outcome of taking one dose: the medication after the
// stock decrement and the intake record written with it.
type Consumption struct {
	Medication models.MedicationInfo
	Record     models.MedicationIntakeRecord
}

type MedicationRepository struct {
	base
	snap      *Broadcaster[[]models.MedicationInfo]
	intakes   *IntakeRecordRepository
	schedules *ScheduleRepository
}

func NewMedicationRepository(store storage.Provider, opts ...Option) *MedicationRepository {
	return &MedicationRepository{
		base: newBase("MedicationRepository", medicationEntity, store, opts),
		snap: NewBroadcaster(cloneSlice[models.MedicationInfo]),
	}
}

// Create stores a new medication stamped now. A name already in use, compared
// case-insensitively, is a conflict unless opts allow duplicates.
func (r *MedicationRepository) Create(ctx context.Context, m models.MedicationInfo, opts CreateOptions) *Result[models.MedicationInfo] {
	if err := validation.Medication(m); err != nil {
		return Failed[models.MedicationInfo](err)
	}
	name := strings.ToLower(strings.TrimSpace(m.Name))
	return write(&r.base, ctx, medicationEntity+":name:"+name, "create", 0, func(ctx context.Context) (models.MedicationInfo, error) {
		if !opts.AllowDuplicate {
			n, err := r.store.CountMedications(ctx, storage.MedicationFilter{Name: m.Name})
			if err != nil {
				return models.MedicationInfo{}, apperrors.Store("check medication name", err)
			}
			if n > 0 {
				return models.MedicationInfo{}, apperrors.Conflict(apperrors.MsgDuplicateMedication)
			}
		}

		now := r.clock.NowMillis()
		m.ID = 0
		m.CreatedAt, m.UpdatedAt = now, now
		if m.Unit == "" {
			m.Unit = constants.DefaultUnit
		}
		id, err := r.store.UpsertMedication(ctx, m)
		if err != nil {
			return models.MedicationInfo{}, apperrors.Store("create medication", err)
		}
		m.ID = id
		r.refresh()
		return m, nil
	})
}

// Update replaces a stored medication. CreatedAt is kept from the stored row.
func (r *MedicationRepository) Update(ctx context.Context, m models.MedicationInfo) *Result[models.MedicationInfo] {
	if err := validation.ID(m.ID); err != nil {
		return Failed[models.MedicationInfo](err)
	}
	if err := validation.Medication(m); err != nil {
		return Failed[models.MedicationInfo](err)
	}
	return write(&r.base, ctx, r.key(m.ID), "update", m.ID, func(ctx context.Context) (models.MedicationInfo, error) {
		stored, err := r.store.GetMedication(ctx, m.ID)
		if err != nil {
			return models.MedicationInfo{}, r.storeErr("load medication", medicationEntity, m.ID, err)
		}
		m.CreatedAt = stored.CreatedAt
		m.Touch(r.clock.NowMillis())
		if _, err := r.store.UpsertMedication(ctx, m); err != nil {
			return models.MedicationInfo{}, apperrors.Store("update medication", err)
		}
		r.refresh()
		return m, nil
	})
}

// Delete removes a medication along with its schedules. Its intake history
// is kept.
func (r *MedicationRepository) Delete(ctx context.Context, id int64) *Result[struct{}] {
	if err := validation.ID(id); err != nil {
		return Failed[struct{}](err)
	}
	return write(&r.base, ctx, r.key(id), "delete", id, func(ctx context.Context) (struct{}, error) {
		deleted, err := r.store.DeleteMedication(ctx, id)
		if err != nil {
			return struct{}{}, apperrors.Store("delete medication", err)
		}
		if !deleted {
			return struct{}{}, apperrors.NotFound(medicationEntity, id)
		}
		r.refresh()
		if r.schedules != nil {
			r.schedules.refresh()
		}
		return struct{}{}, nil
	})
}

// Consume takes one dose: it lowers the remaining stock by the dosage per
// intake, never below zero, and records the intake. Both writes commit
// together. Once submitted the operation cannot be cancelled.
func (r *MedicationRepository) Consume(ctx context.Context, id int64) *Result[Consumption] {
	if err := validation.ID(id); err != nil {
		return Failed[Consumption](err)
	}
	return write(&r.base, ctx, r.key(id), "consume", id, func(ctx context.Context) (Consumption, error) {
		var out Consumption
		err := r.store.WithTx(ctx, func(tx storage.Tx) error {
			m, err := tx.GetMedication(ctx, id)
			if err != nil {
				return err
			}
			now := r.clock.NowMillis()
			m.RemainingQuantity = m.RemainingAfterDose(m.DosagePerIntake)
			m.Touch(now)
			if _, err := tx.UpsertMedication(ctx, m); err != nil {
				return err
			}

			rec := models.NewIntakeRecordAt(m.Name, now, m.DosagePerIntake)
			if rec.ID, err = tx.UpsertIntakeRecord(ctx, rec); err != nil {
				return err
			}
			out = Consumption{Medication: m, Record: rec}
			return nil
		})
		if err != nil {
			return Consumption{}, r.storeErr("consume medication", medicationEntity, id, err)
		}
		r.refresh()
		if r.intakes != nil {
			r.intakes.refresh()
		}
		return out, nil
	})
}

func (r *MedicationRepository) Get(ctx context.Context, id int64) *Result[models.MedicationInfo] {
	if err := validation.ID(id); err != nil {
		return Failed[models.MedicationInfo](err)
	}
	return read(&r.base, ctx, func(ctx context.Context) (models.MedicationInfo, error) {
		m, err := r.store.GetMedication(ctx, id)
		return m, r.storeErr("load medication", medicationEntity, id, err)
	})
}

func (r *MedicationRepository) Exists(ctx context.Context, id int64) *Result[bool] {
	if id <= 0 {
		return Resolved(false)
	}
	return read(&r.base, ctx, func(ctx context.Context) (bool, error) {
		_, err := r.store.GetMedication(ctx, id)
		return exists(err, "load medication")
	})
}

// List returns the medications matching f, ordered by name.
func (r *MedicationRepository) List(ctx context.Context, f storage.MedicationFilter) *Result[[]models.MedicationInfo] {
	return read(&r.base, ctx, func(ctx context.Context) ([]models.MedicationInfo, error) {
		list, err := r.store.ListMedications(ctx, f)
		if err != nil {
			return nil, apperrors.Store("list medications", err)
		}
		return list, nil
	})
}

func (r *MedicationRepository) Count(ctx context.Context, f storage.MedicationFilter) *Result[int] {
	return read(&r.base, ctx, func(ctx context.Context) (int, error) {
		n, err := r.store.CountMedications(ctx, f)
		if err != nil {
			return 0, apperrors.Store("count medications", err)
		}
		return n, nil
	})
}

// LowStock returns medications that are running low or out of stock.
func (r *MedicationRepository) LowStock(ctx context.Context) *Result[[]models.MedicationInfo] {
	return read(&r.base, ctx, func(ctx context.Context) ([]models.MedicationInfo, error) {
		list, err := r.store.ListMedications(ctx, storage.MedicationFilter{})
		if err != nil {
			return nil, apperrors.Store("list medications", err)
		}
		return slices.DeleteFunc(list, func(m models.MedicationInfo) bool {
			return m.Status() == models.StockSufficient
		}), nil
	})
}

// Watch streams the full medication list, starting with the current one.
func (r *MedicationRepository) Watch(ctx context.Context) *Subscription[[]models.MedicationInfo] {
	sub, stale := r.snap.subscribe(ctx)
	if stale {
		r.refresh()
	}
	return sub
}

func (r *MedicationRepository) refresh() {
	refresh(&r.base, r.snapshotKey(), r.snap, func(ctx context.Context) ([]models.MedicationInfo, error) {
		return r.store.ListMedications(ctx, storage.MedicationFilter{})
	})
}

func (r *MedicationRepository) Status() string {
	return r.status(r.snap.Len())
}

// Cleanup stops accepting work, lets queued work finish and ends every
// watch. It is idempotent.
func (r *MedicationRepository) Cleanup() {
	r.exec.close()
	r.snap.Close()
}
