package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/pillbook/internal/clock"
	apperrors "github.com/julianstephens/pillbook/internal/errors"
	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/reminder"
	"github.com/julianstephens/pillbook/internal/storage"
	"github.com/julianstephens/pillbook/internal/validation"
)

const scheduleEntity = "schedule"

// ScheduleRepository keeps the reminder schedules of medications. Every
// write recomputes the schedule's next reminder; a disabled schedule has
// none.
type ScheduleRepository struct {
	base
	snap *Broadcaster[[]models.MedicationSchedule]
}

func NewScheduleRepository(store storage.Provider, opts ...Option) *ScheduleRepository {
	return &ScheduleRepository{
		base: newBase("ScheduleRepository", scheduleEntity, store, opts),
		snap: NewBroadcaster(cloneSchedules),
	}
}

// Create stores a new schedule for an existing medication. A zero StartDate
// becomes today's local midnight.
func (r *ScheduleRepository) Create(ctx context.Context, s models.MedicationSchedule) *Result[models.MedicationSchedule] {
	s, err := normalizeSchedule(s)
	if err != nil {
		return Failed[models.MedicationSchedule](err)
	}
	key := fmt.Sprintf("%s:medication:%d", scheduleEntity, s.MedicationID)
	return write(&r.base, ctx, key, "create", 0, func(ctx context.Context) (models.MedicationSchedule, error) {
		err := r.store.WithTx(ctx, func(tx storage.Tx) error {
			if _, err := tx.GetMedication(ctx, s.MedicationID); err != nil {
				return r.storeErr("load medication", medicationEntity, s.MedicationID, err)
			}
			now := r.clock.NowMillis()
			s.ID = 0
			s.CreatedAt, s.UpdatedAt = now, now
			if s.StartDate == 0 {
				s.StartDate = startOfDayMillis(now)
			}
			s.NextReminderAt = reminder.NextReminderAt(s, now)

			id, err := tx.UpsertSchedule(ctx, s)
			s.ID = id
			return err
		})
		if err != nil {
			return models.MedicationSchedule{}, r.storeErr("create schedule", scheduleEntity, 0, err)
		}
		r.refresh()
		return s, nil
	})
}

// Update replaces a stored schedule. CreatedAt, and StartDate when s leaves
// it zero, are kept from the stored row. The schedule cannot move to another
// medication.
func (r *ScheduleRepository) Update(ctx context.Context, s models.MedicationSchedule) *Result[models.MedicationSchedule] {
	if err := validation.ID(s.ID); err != nil {
		return Failed[models.MedicationSchedule](err)
	}
	s, err := normalizeSchedule(s)
	if err != nil {
		return Failed[models.MedicationSchedule](err)
	}
	return r.modify(ctx, s.ID, "update", func(stored *models.MedicationSchedule) error {
		if stored.MedicationID != s.MedicationID {
			return apperrors.Validation(apperrors.MsgScheduleMedication)
		}
		s.CreatedAt = stored.CreatedAt
		if s.StartDate == 0 {
			s.StartDate = stored.StartDate
		}
		*stored = s
		return nil
	})
}

// SetEnabled switches reminders for a schedule on or off. Enabling
// recomputes the next reminder from now.
func (r *ScheduleRepository) SetEnabled(ctx context.Context, id int64, enabled bool) *Result[models.MedicationSchedule] {
	if err := validation.ID(id); err != nil {
		return Failed[models.MedicationSchedule](err)
	}
	op := "disable"
	if enabled {
		op = "enable"
	}
	return r.modify(ctx, id, op, func(stored *models.MedicationSchedule) error {
		stored.Enabled = enabled
		return nil
	})
}

func (r *ScheduleRepository) Disable(ctx context.Context, id int64) *Result[models.MedicationSchedule] {
	return r.SetEnabled(ctx, id, false)
}

func (r *ScheduleRepository) Enable(ctx context.Context, id int64) *Result[models.MedicationSchedule] {
	return r.SetEnabled(ctx, id, true)
}

// Advance moves a schedule's next reminder past now. Hosts call it once a
// reminder has been raised.
func (r *ScheduleRepository) Advance(ctx context.Context, id int64) *Result[models.MedicationSchedule] {
	if err := validation.ID(id); err != nil {
		return Failed[models.MedicationSchedule](err)
	}
	return r.modify(ctx, id, "advance", func(*models.MedicationSchedule) error { return nil })
}

// modify loads schedule id, applies change and saves it with a fresh next
// reminder, all as one keyed write.
func (r *ScheduleRepository) modify(ctx context.Context, id int64, op string, change func(*models.MedicationSchedule) error) *Result[models.MedicationSchedule] {
	return write(&r.base, ctx, r.key(id), op, id, func(ctx context.Context) (models.MedicationSchedule, error) {
		s, err := r.store.GetSchedule(ctx, id)
		if err != nil {
			return models.MedicationSchedule{}, r.storeErr("load schedule", scheduleEntity, id, err)
		}
		if err := change(&s); err != nil {
			return models.MedicationSchedule{}, err
		}
		now := r.clock.NowMillis()
		s.ID = id
		s.Touch(now)
		s.NextReminderAt = reminder.NextReminderAt(s, now)
		if _, err := r.store.UpsertSchedule(ctx, s); err != nil {
			return models.MedicationSchedule{}, r.storeErr(op+" schedule", scheduleEntity, id, err)
		}
		r.refresh()
		return s, nil
	})
}

func (r *ScheduleRepository) Delete(ctx context.Context, id int64) *Result[struct{}] {
	if err := validation.ID(id); err != nil {
		return Failed[struct{}](err)
	}
	return write(&r.base, ctx, r.key(id), "delete", id, func(ctx context.Context) (struct{}, error) {
		deleted, err := r.store.DeleteSchedule(ctx, id)
		if err != nil {
			return struct{}{}, apperrors.Store("delete schedule", err)
		}
		if !deleted {
			return struct{}{}, apperrors.NotFound(scheduleEntity, id)
		}
		r.refresh()
		return struct{}{}, nil
	})
}

func (r *ScheduleRepository) Get(ctx context.Context, id int64) *Result[models.MedicationSchedule] {
	if err := validation.ID(id); err != nil {
		return Failed[models.MedicationSchedule](err)
	}
	return read(&r.base, ctx, func(ctx context.Context) (models.MedicationSchedule, error) {
		s, err := r.store.GetSchedule(ctx, id)
		return s, r.storeErr("load schedule", scheduleEntity, id, err)
	})
}

func (r *ScheduleRepository) Exists(ctx context.Context, id int64) *Result[bool] {
	if id <= 0 {
		return Resolved(false)
	}
	return read(&r.base, ctx, func(ctx context.Context) (bool, error) {
		_, err := r.store.GetSchedule(ctx, id)
		return exists(err, "load schedule")
	})
}

// ListForMedication returns every schedule of one medication, soonest
// reminder first.
func (r *ScheduleRepository) ListForMedication(ctx context.Context, medicationID int64) *Result[[]models.MedicationSchedule] {
	if err := validation.ID(medicationID); err != nil {
		return Failed[[]models.MedicationSchedule](err)
	}
	return r.List(ctx, storage.ScheduleFilter{MedicationID: medicationID})
}

// Due returns the enabled schedules whose next reminder is at or before at.
func (r *ScheduleRepository) Due(ctx context.Context, at int64) *Result[[]models.MedicationSchedule] {
	if at <= 0 {
		return Resolved[[]models.MedicationSchedule](nil)
	}
	return r.List(ctx, storage.ScheduleFilter{DueBy: at})
}

func (r *ScheduleRepository) List(ctx context.Context, f storage.ScheduleFilter) *Result[[]models.MedicationSchedule] {
	return read(&r.base, ctx, func(ctx context.Context) ([]models.MedicationSchedule, error) {
		list, err := r.store.ListSchedules(ctx, f)
		if err != nil {
			return nil, apperrors.Store("list schedules", err)
		}
		return list, nil
	})
}

func (r *ScheduleRepository) Count(ctx context.Context, f storage.ScheduleFilter) *Result[int] {
	return read(&r.base, ctx, func(ctx context.Context) (int, error) {
		n, err := r.store.CountSchedules(ctx, f)
		if err != nil {
			return 0, apperrors.Store("count schedules", err)
		}
		return n, nil
	})
}

// Watch streams every schedule, soonest reminder first.
func (r *ScheduleRepository) Watch(ctx context.Context) *Subscription[[]models.MedicationSchedule] {
	sub, stale := r.snap.subscribe(ctx)
	if stale {
		r.refresh()
	}
	return sub
}

func (r *ScheduleRepository) refresh() {
	refresh(&r.base, r.snapshotKey(), r.snap, func(ctx context.Context) ([]models.MedicationSchedule, error) {
		return r.store.ListSchedules(ctx, storage.ScheduleFilter{})
	})
}

func (r *ScheduleRepository) Status() string {
	return r.status(r.snap.Len())
}

func (r *ScheduleRepository) Cleanup() {
	r.exec.close()
	r.snap.Close()
}

// normalizeSchedule validates s and rewrites its times and weekdays in
// canonical order.
func normalizeSchedule(s models.MedicationSchedule) (models.MedicationSchedule, error) {
	if err := validation.Schedule(s); err != nil {
		return s, err
	}
	s = s.Clone()
	times, err := models.NormalizeTimesOfDay(s.TimesOfDay)
	if err != nil {
		return s, apperrors.Validation(apperrors.MsgReminderTimes)
	}
	s.TimesOfDay = times
	s.Weekdays = models.SortWeekdays(s.Weekdays)
	return s, nil
}

func startOfDayMillis(ms int64) int64 {
	t := clock.Time(ms)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).UnixMilli()
}

func cloneSchedules(list []models.MedicationSchedule) []models.MedicationSchedule {
	if list == nil {
		return nil
	}
	out := make([]models.MedicationSchedule, len(list))
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}
