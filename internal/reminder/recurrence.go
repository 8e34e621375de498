// Package reminder works out when a medication schedule next fires. It only
// computes times; raising alarms is left to the host.
package reminder

import (
	"time"

	"github.com/julianstephens/pillbook/internal/clock"
	"github.com/julianstephens/pillbook/internal/models"
)

// maxScanDays bounds the search for the next matching day. Every cycle
// matches at least once in this window: weekly within 7 days, monthly within
// 62 and every-x-days within the largest allowed interval.
const maxScanDays = 2 * 366

// NextReminder returns the first reminder strictly after now, in now's
// location. ok is false for a disabled schedule and for one that can never
// fire, such as a weekly schedule without weekdays or one without valid
// times.
func NextReminder(s models.MedicationSchedule, now time.Time) (time.Time, bool) {
	if !s.Enabled {
		return time.Time{}, false
	}
	times, err := models.ParseTimesOfDay(s.TimesOfDay)
	if err != nil || len(times) == 0 {
		return time.Time{}, false
	}
	if s.CycleType == models.CycleWeekly && len(s.Weekdays) == 0 {
		return time.Time{}, false
	}

	today := startOfDay(now)
	start := today
	if s.StartDate > 0 {
		start = startOfDay(time.UnixMilli(s.StartDate).In(now.Location()))
	}
	first := today
	if start.After(today) {
		first = start
	}

	for i := 0; i < maxScanDays; i++ {
		day := first.AddDate(0, 0, i)
		if !ShouldRemindOn(s, day, start) {
			continue
		}
		for _, t := range times {
			if at := t.On(day); at.After(now) {
				return at, true
			}
		}
	}
	return time.Time{}, false
}

// NextReminderAt is NextReminder on epoch milliseconds in local time. It
// returns 0 when no reminder is due.
func NextReminderAt(s models.MedicationSchedule, nowMillis int64) int64 {
	at, ok := NextReminder(s, clock.Time(nowMillis))
	if !ok {
		return 0
	}
	return at.UnixMilli()
}

// ShouldRemindOn reports whether s has reminders on the calendar day of date.
// start is the local midnight the schedule counts from; every-x-days
// schedules fire on start and every IntervalDays after it.
func ShouldRemindOn(s models.MedicationSchedule, date, start time.Time) bool {
	since := daysBetween(start, date)
	if since < 0 {
		return false
	}

	switch s.CycleType {
	case models.CycleDaily:
		return true
	case models.CycleWeekly:
		for _, wd := range s.Weekdays {
			if date.Weekday() == wd {
				return true
			}
		}
		return false
	case models.CycleMonthly:
		// a day past the end of the month falls on its last day
		day := min(max(s.DayOfMonth, 1), 31)
		return date.Day() == min(day, daysIn(date.Year(), date.Month()))
	case models.CycleEveryXDays:
		interval := max(s.IntervalDays, 1)
		return since%interval == 0
	default:
		return false
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b, ignoring clock changes.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
