package reminder

import (
	"testing"
	"time"

	"github.com/julianstephens/pillbook/internal/models"
)

func utc(y int, m time.Month, d, h, min int) time.Time {
	return time.Date(y, m, d, h, min, 0, 0, time.UTC)
}

func daily(times ...string) models.MedicationSchedule {
	return models.NewMedicationSchedule(1, models.CycleDaily, times...)
}

func weekly(days []time.Weekday, times ...string) models.MedicationSchedule {
	s := models.NewMedicationSchedule(1, models.CycleWeekly, times...)
	s.Weekdays = days
	return s
}

func monthly(day int, times ...string) models.MedicationSchedule {
	s := models.NewMedicationSchedule(1, models.CycleMonthly, times...)
	s.DayOfMonth = day
	return s
}

func everyXDays(interval int, start time.Time, times ...string) models.MedicationSchedule {
	s := models.NewMedicationSchedule(1, models.CycleEveryXDays, times...)
	s.IntervalDays = interval
	s.StartDate = start.UnixMilli()
	return s
}

func TestNextReminder(t *testing.T) {
	monWed := []time.Weekday{time.Monday, time.Wednesday}
	oct1 := utc(2026, 10, 1, 0, 0)

	startingLater := daily("08:00")
	startingLater.StartDate = utc(2026, 10, 20, 0, 0).UnixMilli()

	tests := []struct {
		name     string
		schedule models.MedicationSchedule
		now      time.Time
		want     time.Time
	}{
		// daily
		{"daily later today", daily("08:00", "20:00"), utc(2026, 10, 14, 10, 0), utc(2026, 10, 14, 20, 0)},
		{"daily exactly at a reminder", daily("08:00", "20:00"), utc(2026, 10, 14, 20, 0), utc(2026, 10, 15, 8, 0)},
		{"daily before first", daily("08:00", "20:00"), utc(2026, 10, 14, 7, 59), utc(2026, 10, 14, 8, 0)},
		{"daily unsorted times", daily("20:00", "08:00"), utc(2026, 10, 14, 21, 0), utc(2026, 10, 15, 8, 0)},
		{"daily waits for start date", startingLater, utc(2026, 10, 14, 9, 0), utc(2026, 10, 20, 8, 0)},

		// weekly; 2026-10-14 is a Wednesday
		{"weekly later today", weekly(monWed, "08:00", "20:00"), utc(2026, 10, 14, 10, 0), utc(2026, 10, 14, 20, 0)},
		{"weekly next matching day", weekly(monWed, "08:00", "20:00"), utc(2026, 10, 14, 21, 0), utc(2026, 10, 19, 8, 0)},
		{"weekly one day a week", weekly([]time.Weekday{time.Monday}, "08:00"), utc(2026, 10, 19, 9, 0), utc(2026, 10, 26, 8, 0)},
		{"weekly across new year", weekly([]time.Weekday{time.Monday}, "08:00"), utc(2026, 12, 31, 12, 0), utc(2027, 1, 4, 8, 0)},

		// monthly
		{"monthly 31st in february", monthly(31, "09:00"), utc(2026, 2, 10, 12, 0), utc(2026, 2, 28, 9, 0)},
		{"monthly 31st after february's last day", monthly(31, "09:00"), utc(2026, 2, 28, 10, 0), utc(2026, 3, 31, 9, 0)},
		{"monthly 31st in a 30-day month", monthly(31, "09:00"), utc(2026, 4, 1, 0, 0), utc(2026, 4, 30, 9, 0)},
		{"monthly 29th in a leap year", monthly(29, "09:00"), utc(2028, 2, 1, 0, 0), utc(2028, 2, 29, 9, 0)},
		{"monthly 30th in a common february", monthly(30, "09:00"), utc(2027, 2, 1, 0, 0), utc(2027, 2, 28, 9, 0)},
		{"monthly later today", monthly(15, "09:00"), utc(2026, 10, 15, 8, 0), utc(2026, 10, 15, 9, 0)},
		{"monthly next month", monthly(15, "09:00"), utc(2026, 10, 15, 10, 0), utc(2026, 11, 15, 9, 0)},
		{"monthly day 0 means the 1st", monthly(0, "09:00"), utc(2026, 10, 15, 10, 0), utc(2026, 11, 1, 9, 0)},

		// every x days from 2026-10-01: due on the 1st, 4th, 7th, 10th, 13th, 16th
		{"interval off day", everyXDays(3, oct1, "08:00"), utc(2026, 10, 14, 7, 0), utc(2026, 10, 16, 8, 0)},
		{"interval due day before time", everyXDays(3, oct1, "08:00"), utc(2026, 10, 13, 7, 0), utc(2026, 10, 13, 8, 0)},
		{"interval due day after time", everyXDays(3, oct1, "08:00"), utc(2026, 10, 13, 9, 0), utc(2026, 10, 16, 8, 0)},
		{"interval start in the future", everyXDays(3, utc(2026, 11, 1, 0, 0), "08:00"), utc(2026, 10, 14, 9, 0), utc(2026, 11, 1, 8, 0)},
		{"interval 0 means every day", everyXDays(0, oct1, "08:00"), utc(2026, 10, 14, 9, 0), utc(2026, 10, 15, 8, 0)},
		{"interval longer than a month", everyXDays(45, oct1, "08:00"), utc(2026, 10, 2, 0, 0), utc(2026, 11, 15, 8, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextReminder(tt.schedule, tt.now)
			if !ok {
				t.Fatal("NextReminder() found nothing")
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextReminder() = %s, want %s", got.Format(time.RFC3339), tt.want.Format(time.RFC3339))
			}
		})
	}
}

func TestNextReminderNeverFires(t *testing.T) {
	disabled := daily("08:00")
	disabled.Enabled = false

	tests := []struct {
		name     string
		schedule models.MedicationSchedule
	}{
		{"disabled", disabled},
		{"no times", daily()},
		{"invalid time", daily("25:00")},
		{"weekly without weekdays", weekly(nil, "08:00")},
		{"unknown cycle", models.NewMedicationSchedule(1, "hourly", "08:00")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got, ok := NextReminder(tt.schedule, utc(2026, 10, 14, 9, 0)); ok {
				t.Errorf("NextReminder() = %s, want none", got)
			}
			if got := NextReminderAt(tt.schedule, utc(2026, 10, 14, 9, 0).UnixMilli()); got != 0 {
				t.Errorf("NextReminderAt() = %d, want 0", got)
			}
		})
	}
}

func TestNextReminderAtUsesLocalTime(t *testing.T) {
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.Local)
	want := time.Date(2026, 10, 15, 8, 0, 0, 0, time.Local)
	if got := NextReminderAt(daily("08:00"), now.UnixMilli()); got != want.UnixMilli() {
		t.Errorf("NextReminderAt() = %d, want %d", got, want.UnixMilli())
	}
}

func TestShouldRemindOnRespectsStart(t *testing.T) {
	start := utc(2026, 10, 10, 0, 0)
	tests := []struct {
		schedule models.MedicationSchedule
		date     time.Time
		want     bool
	}{
		{daily("08:00"), utc(2026, 10, 9, 0, 0), false},
		{daily("08:00"), utc(2026, 10, 10, 0, 0), true},
		{everyXDays(2, start, "08:00"), utc(2026, 10, 11, 0, 0), false},
		{everyXDays(2, start, "08:00"), utc(2026, 10, 12, 0, 0), true},
		{monthly(31, "08:00"), utc(2026, 11, 30, 0, 0), true},
		{monthly(31, "08:00"), utc(2026, 12, 30, 0, 0), false},
	}
	for _, tt := range tests {
		if got := ShouldRemindOn(tt.schedule, tt.date, start); got != tt.want {
			t.Errorf("ShouldRemindOn(%s, %s) = %t, want %t", tt.schedule.Describe(), tt.date.Format("2006-01-02"), got, tt.want)
		}
	}
}
