package sqlstore

import (
	"context"
	"strings"

	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

const scheduleColumns = "id, medication_id, cycle_type, times_of_day, days_of_week_mask, day_of_month, " +
	"interval_days, start_date, next_reminder_at, enabled, created_at, updated_at"

func (s *Store) UpsertSchedule(ctx context.Context, sc models.MedicationSchedule) (int64, error) {
	times := strings.Join(sc.TimesOfDay, ",")
	mask := models.WeekdayMask(sc.Weekdays)
	if sc.ID == 0 {
		return s.insertReturningID(ctx, `
			INSERT INTO medication_schedules (medication_id, cycle_type, times_of_day, days_of_week_mask,
				day_of_month, interval_days, start_date, next_reminder_at, enabled, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			sc.MedicationID, string(sc.CycleType), times, mask, sc.DayOfMonth, sc.IntervalDays,
			sc.StartDate, sc.NextReminderAt, sc.Enabled, sc.CreatedAt, sc.UpdatedAt,
		)
	}

	_, err := s.exec(ctx, `
		INSERT INTO medication_schedules (`+scheduleColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			medication_id = excluded.medication_id,
			cycle_type = excluded.cycle_type,
			times_of_day = excluded.times_of_day,
			days_of_week_mask = excluded.days_of_week_mask,
			day_of_month = excluded.day_of_month,
			interval_days = excluded.interval_days,
			start_date = excluded.start_date,
			next_reminder_at = excluded.next_reminder_at,
			enabled = excluded.enabled,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		sc.ID, sc.MedicationID, string(sc.CycleType), times, mask, sc.DayOfMonth, sc.IntervalDays,
		sc.StartDate, sc.NextReminderAt, sc.Enabled, sc.CreatedAt, sc.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return sc.ID, nil
}

func (s *Store) GetSchedule(ctx context.Context, id int64) (models.MedicationSchedule, error) {
	sc, err := scanSchedule(s.queryRow(ctx, "SELECT "+scheduleColumns+" FROM medication_schedules WHERE id = ?", id))
	if err != nil {
		return models.MedicationSchedule{}, notFound(err)
	}
	return sc, nil
}

func (s *Store) ListSchedules(ctx context.Context, f storage.ScheduleFilter) ([]models.MedicationSchedule, error) {
	w := scheduleWhere(f)
	q := "SELECT " + scheduleColumns + " FROM medication_schedules" + w.sql() +
		" ORDER BY CASE WHEN next_reminder_at = 0 THEN 1 ELSE 0 END, next_reminder_at, id" +
		s.dialect.limitOffset(f.Limit, 0)

	rows, err := s.query(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []models.MedicationSchedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, sc)
	}
	return schedules, rows.Err()
}

func (s *Store) DeleteSchedule(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "medication_schedules", id)
}

func (s *Store) CountSchedules(ctx context.Context, f storage.ScheduleFilter) (int, error) {
	return s.count(ctx, "medication_schedules", scheduleWhere(f))
}

func scheduleWhere(f storage.ScheduleFilter) where {
	var w where
	if f.MedicationID != 0 {
		w.add("medication_id = ?", f.MedicationID)
	}
	if f.EnabledOnly || f.DueBy != 0 {
		w.add("enabled = ?", true)
	}
	if f.DueBy != 0 {
		w.add("next_reminder_at > 0 AND next_reminder_at <= ?", f.DueBy)
	}
	return w
}

func scanSchedule(sc scanner) (models.MedicationSchedule, error) {
	var (
		s     models.MedicationSchedule
		cycle string
		times string
		mask  int
	)
	err := sc.Scan(&s.ID, &s.MedicationID, &cycle, &times, &mask, &s.DayOfMonth, &s.IntervalDays,
		&s.StartDate, &s.NextReminderAt, &s.Enabled, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return models.MedicationSchedule{}, err
	}
	s.CycleType = models.CycleType(cycle)
	if times != "" {
		s.TimesOfDay = strings.Split(times, ",")
	}
	s.Weekdays = models.WeekdaysFromMask(mask)
	return s, nil
}
