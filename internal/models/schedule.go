package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/julianstephens/pillbook/internal/constants"
)

// CycleType is how often a reminder schedule repeats.
type CycleType string

const (
	CycleDaily      CycleType = "daily"
	CycleWeekly     CycleType = "weekly"
	CycleMonthly    CycleType = "monthly"
	CycleEveryXDays CycleType = "every_x_days"
)

// AllCycleTypes returns the known cycle types in display order.
func AllCycleTypes() []CycleType {
	return []CycleType{CycleDaily, CycleWeekly, CycleMonthly, CycleEveryXDays}
}

// ParseCycleType matches s case-insensitively against the known cycle types.
// Dashes are accepted in place of underscores.
func ParseCycleType(s string) (CycleType, error) {
	needle := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, c := range AllCycleTypes() {
		if string(c) == needle {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown cycle type: %q", s)
}

// MedicationSchedule is a recurring reminder to take one medication.
//
// TimesOfDay holds local wall-clock times as "HH:MM". Weekdays is used by
// weekly schedules, DayOfMonth by monthly ones (a day past the end of a
// month falls on its last day) and IntervalDays by every-x-days ones, which
// count from StartDate. No reminder falls before StartDate.
type MedicationSchedule struct {
	ID             int64          `json:"id"`
	MedicationID   int64          `json:"medication_id" validate:"gt=0"`
	CycleType      CycleType      `json:"cycle_type" validate:"oneof=daily weekly monthly every_x_days"`
	TimesOfDay     []string       `json:"times_of_day" validate:"min=1,dive,required"`
	Weekdays       []time.Weekday `json:"weekdays,omitempty"`
	DayOfMonth     int            `json:"day_of_month,omitempty"`
	IntervalDays   int            `json:"interval_days,omitempty"`
	StartDate      int64          `json:"start_date"`       // epoch ms of local midnight; 0 means the day it is saved
	NextReminderAt int64          `json:"next_reminder_at"` // epoch ms; 0 when nothing is due
	Enabled        bool           `json:"enabled"`
	CreatedAt      int64          `json:"created_at"` // epoch ms
	UpdatedAt      int64          `json:"updated_at"` // epoch ms
}

// NewMedicationSchedule returns an enabled schedule for medicationID.
func NewMedicationSchedule(medicationID int64, cycle CycleType, times ...string) MedicationSchedule {
	return MedicationSchedule{
		MedicationID: medicationID,
		CycleType:    cycle,
		TimesOfDay:   times,
		Enabled:      true,
	}
}

// Touch sets UpdatedAt to now.
func (s *MedicationSchedule) Touch(now int64) {
	s.UpdatedAt = now
}

// Clone returns a copy that shares no slices with s.
func (s MedicationSchedule) Clone() MedicationSchedule {
	s.TimesOfDay = slices.Clone(s.TimesOfDay)
	s.Weekdays = slices.Clone(s.Weekdays)
	return s
}

// Describe returns a human-readable summary such as "Weekly on Mon, Wed at 08:00".
func (s MedicationSchedule) Describe() string {
	at := "at " + strings.Join(s.TimesOfDay, ", ")
	switch s.CycleType {
	case CycleDaily:
		return "Daily " + at
	case CycleWeekly:
		sorted := SortWeekdays(s.Weekdays)
		days := make([]string, len(sorted))
		for i, wd := range sorted {
			days[i] = wd.String()[:3]
		}
		return fmt.Sprintf("Weekly on %s %s", strings.Join(days, ", "), at)
	case CycleMonthly:
		return fmt.Sprintf("Monthly on day %d %s", s.DayOfMonth, at)
	case CycleEveryXDays:
		if s.IntervalDays == 1 {
			return "Daily " + at
		}
		return fmt.Sprintf("Every %d days %s", s.IntervalDays, at)
	default:
		return "Unscheduled"
	}
}

func (s MedicationSchedule) String() string {
	return fmt.Sprintf("MedicationSchedule{id=%d, medicationId=%d, %s, enabled=%t, nextReminderAt=%d}",
		s.ID, s.MedicationID, s.Describe(), s.Enabled, s.NextReminderAt)
}

// TimeOfDay is a local wall-clock time with minute precision.
type TimeOfDay struct {
	Hour, Minute int
}

// ParseTimeOfDay parses "HH:MM" on a 24-hour clock. A single-digit hour
// such as "8:30" is accepted.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(constants.TimeFormat, strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q, want HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// On returns t on the calendar day of day, in day's location.
func (t TimeOfDay) On(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

// ParseTimesOfDay parses every entry and returns them sorted with
// duplicates removed.
func ParseTimesOfDay(times []string) ([]TimeOfDay, error) {
	out := make([]TimeOfDay, 0, len(times))
	for _, s := range times {
		t, err := ParseTimeOfDay(s)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b TimeOfDay) int {
		return (a.Hour*60 + a.Minute) - (b.Hour*60 + b.Minute)
	})
	return slices.Compact(out), nil
}

// NormalizeTimesOfDay rewrites times as sorted, unique, zero-padded "HH:MM".
func NormalizeTimesOfDay(times []string) ([]string, error) {
	parsed, err := ParseTimesOfDay(times)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(parsed))
	for i, t := range parsed {
		out[i] = t.String()
	}
	return out, nil
}

// SortWeekdays returns days Monday first, without duplicates.
func SortWeekdays(days []time.Weekday) []time.Weekday {
	out := slices.Clone(days)
	slices.SortFunc(out, func(a, b time.Weekday) int {
		return (int(a)+6)%7 - (int(b)+6)%7
	})
	return slices.Compact(out)
}

// WeekdayMask packs days into a bit mask, Monday in bit 6 down to Sunday in
// bit 0.
func WeekdayMask(days []time.Weekday) int {
	mask := 0
	for _, d := range days {
		if d >= time.Sunday && d <= time.Saturday {
			mask |= weekdayBit(d)
		}
	}
	return mask
}

// WeekdaysFromMask unpacks a WeekdayMask, Monday first.
func WeekdaysFromMask(mask int) []time.Weekday {
	var days []time.Weekday
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday} {
		if mask&weekdayBit(d) != 0 {
			days = append(days, d)
		}
	}
	return days
}

func weekdayBit(d time.Weekday) int {
	// Monday=6 ... Saturday=1, Sunday=0
	return 1 << ((7 - int(d)) % 7)
}

// ParseWeekday matches a full or three-letter English day name.
func ParseWeekday(s string) (time.Weekday, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if needle == name || (len(needle) >= 3 && strings.HasPrefix(name, needle)) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday: %q", s)
}
