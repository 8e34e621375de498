package storage

import (
	"errors"
	"strings"

	"github.com/julianstephens/pillbook/internal/models"
)

// ErrNotFound is returned by Get when no row has the requested id.
var ErrNotFound = errors.New("record not found")

// MedicationFilter narrows ListMedications and CountMedications. Empty
// fields do not filter. Results are ordered by name.
type MedicationFilter struct {
	// NameContains matches a case-insensitive substring of the name
	NameContains string
	// Name matches the whole name, case-insensitively, ignoring surrounding whitespace
	Name       string
	Color      string
	DosageForm string
}

func (f MedicationFilter) Match(m models.MedicationInfo) bool {
	if f.NameContains != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(f.NameContains)) {
		return false
	}
	if f.Name != "" && !strings.EqualFold(strings.TrimSpace(m.Name), strings.TrimSpace(f.Name)) {
		return false
	}
	if f.Color != "" && !strings.EqualFold(m.Color, f.Color) {
		return false
	}
	if f.DosageForm != "" && !strings.EqualFold(m.DosageForm, f.DosageForm) {
		return false
	}
	return true
}

// IntakeFilter narrows ListIntakeRecords and CountIntakeRecords. Results are
// ordered by intake time, newest first.
type IntakeFilter struct {
	MedicationName string
	From           int64 // inclusive, epoch ms; 0 means unbounded
	To             int64 // inclusive, epoch ms; 0 means unbounded
	Limit          int   // 0 means no limit; ignored by Count
}

func (f IntakeFilter) Match(r models.MedicationIntakeRecord) bool {
	if f.MedicationName != "" && r.MedicationName != f.MedicationName {
		return false
	}
	return inRange(r.IntakeTime, f.From, f.To)
}

// DiaryFilter narrows ListDiaries and CountDiaries. Results are ordered by
// creation time, newest first.
type DiaryFilter struct {
	UserID  int64  // 0 matches every owner
	Keyword string // case-insensitive substring of the content
	From    int64  // inclusive, epoch ms on CreatedAt; 0 means unbounded
	To      int64  // inclusive, epoch ms on CreatedAt; 0 means unbounded
	Limit   int    // 0 means no limit; ignored by Count
	Offset  int    // ignored by Count
}

func (f DiaryFilter) Match(d models.HealthDiary) bool {
	if f.UserID != 0 && d.UserID != f.UserID {
		return false
	}
	if f.Keyword != "" && !strings.Contains(strings.ToLower(d.Content()), strings.ToLower(f.Keyword)) {
		return false
	}
	return inRange(d.CreatedAt, f.From, f.To)
}

// ScheduleFilter narrows ListSchedules and CountSchedules. Results are
// ordered by next reminder, soonest first, with schedules that have none
// last.
type ScheduleFilter struct {
	MedicationID int64 // 0 matches every medication
	EnabledOnly  bool
	DueBy        int64 // epoch ms; when set, only enabled schedules with 0 < NextReminderAt <= DueBy
	Limit        int   // 0 means no limit; ignored by Count
}

func (f ScheduleFilter) Match(s models.MedicationSchedule) bool {
	if f.MedicationID != 0 && s.MedicationID != f.MedicationID {
		return false
	}
	if (f.EnabledOnly || f.DueBy != 0) && !s.Enabled {
		return false
	}
	if f.DueBy != 0 && (s.NextReminderAt <= 0 || s.NextReminderAt > f.DueBy) {
		return false
	}
	return true
}

// ScheduleLess orders schedules the way ListSchedules returns them.
func ScheduleLess(a, b models.MedicationSchedule) bool {
	if (a.NextReminderAt == 0) != (b.NextReminderAt == 0) {
		return b.NextReminderAt == 0
	}
	if a.NextReminderAt != b.NextReminderAt {
		return a.NextReminderAt < b.NextReminderAt
	}
	return a.ID < b.ID
}

func inRange(v, from, to int64) bool {
	if from != 0 && v < from {
		return false
	}
	if to != 0 && v > to {
		return false
	}
	return true
}
