package sqlstore

import (
	"context"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

func TestUpsertScheduleStoresTimesAndMask(t *testing.T) {
	s, mock := newMock(t, Postgres)

	sc := models.NewMedicationSchedule(3, models.CycleWeekly, "08:00", "20:00")
	sc.Weekdays = []time.Weekday{time.Monday, time.Wednesday, time.Friday}
	sc.NextReminderAt = 500

	mock.ExpectQuery(`INSERT INTO medication_schedules .*VALUES \(\$1, \$2, \$3, \$4, \$5, \$6, \$7, \$8, \$9, \$10, \$11\)\s+RETURNING id`).
		WithArgs(int64(3), "weekly", "08:00,20:00", int64(84), int64(0), int64(0), int64(0), int64(500), true, int64(0), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	id, err := s.UpsertSchedule(context.Background(), sc)
	if err != nil {
		t.Fatalf("UpsertSchedule failed: %v", err)
	}
	if id != 4 {
		t.Errorf("id = %d, want 4", id)
	}
}

func TestListSchedulesFiltersAndScans(t *testing.T) {
	tests := []struct {
		name   string
		filter storage.ScheduleFilter
		query  string
		args   []driver.Value
	}{
		{
			"medication",
			storage.ScheduleFilter{MedicationID: 3},
			`FROM medication_schedules WHERE medication_id = \$1 ORDER BY`,
			[]driver.Value{int64(3)},
		},
		{
			"due",
			storage.ScheduleFilter{DueBy: 900, Limit: 5},
			`WHERE enabled = \$1 AND next_reminder_at > 0 AND next_reminder_at <= \$2 ORDER BY .* LIMIT 5`,
			[]driver.Value{true, int64(900)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMock(t, Postgres)

			rows := sqlmock.NewRows([]string{"id", "medication_id", "cycle_type", "times_of_day", "days_of_week_mask",
				"day_of_month", "interval_days", "start_date", "next_reminder_at", "enabled", "created_at", "updated_at"}).
				AddRow(1, 3, "weekly", "08:00,20:00", 84, 0, 0, 100, 800, true, 10, 20)
			mock.ExpectQuery(tt.query).WithArgs(tt.args...).WillReturnRows(rows)

			got, err := s.ListSchedules(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("ListSchedules failed: %v", err)
			}
			if len(got) != 1 {
				t.Fatalf("got %d schedules", len(got))
			}
			sc := got[0]
			if sc.CycleType != models.CycleWeekly || len(sc.TimesOfDay) != 2 || sc.TimesOfDay[1] != "20:00" {
				t.Errorf("schedule = %+v", sc)
			}
			if len(sc.Weekdays) != 3 || sc.Weekdays[0] != time.Monday || sc.Weekdays[2] != time.Friday {
				t.Errorf("weekdays = %v", sc.Weekdays)
			}
			if !sc.Enabled || sc.NextReminderAt != 800 || sc.StartDate != 100 {
				t.Errorf("schedule = %+v", sc)
			}
		})
	}
}
