package storage

import (
	"context"

	"github.com/julianstephens/pillbook/internal/models"
)

// MedicationStore persists medications. Upsert with ID 0 inserts and
// returns the new id; with ID > 0 it replaces that row.
type MedicationStore interface {
	UpsertMedication(ctx context.Context, m models.MedicationInfo) (int64, error)
	GetMedication(ctx context.Context, id int64) (models.MedicationInfo, error)
	ListMedications(ctx context.Context, f MedicationFilter) ([]models.MedicationInfo, error)
	DeleteMedication(ctx context.Context, id int64) (bool, error)
	CountMedications(ctx context.Context, f MedicationFilter) (int, error)
}

// IntakeRecordStore persists intake records.
type IntakeRecordStore interface {
	UpsertIntakeRecord(ctx context.Context, r models.MedicationIntakeRecord) (int64, error)
	GetIntakeRecord(ctx context.Context, id int64) (models.MedicationIntakeRecord, error)
	ListIntakeRecords(ctx context.Context, f IntakeFilter) ([]models.MedicationIntakeRecord, error)
	DeleteIntakeRecord(ctx context.Context, id int64) (bool, error)
	CountIntakeRecords(ctx context.Context, f IntakeFilter) (int, error)
}

// DiaryStore persists health diaries.
type DiaryStore interface {
	UpsertDiary(ctx context.Context, d models.HealthDiary) (int64, error)
	GetDiary(ctx context.Context, id int64) (models.HealthDiary, error)
	ListDiaries(ctx context.Context, f DiaryFilter) ([]models.HealthDiary, error)
	DeleteDiary(ctx context.Context, id int64) (bool, error)
	CountDiaries(ctx context.Context, f DiaryFilter) (int, error)
}

// ScheduleStore persists reminder schedules. Deleting a medication deletes
// its schedules.
type ScheduleStore interface {
	UpsertSchedule(ctx context.Context, s models.MedicationSchedule) (int64, error)
	GetSchedule(ctx context.Context, id int64) (models.MedicationSchedule, error)
	ListSchedules(ctx context.Context, f ScheduleFilter) ([]models.MedicationSchedule, error)
	DeleteSchedule(ctx context.Context, id int64) (bool, error)
	CountSchedules(ctx context.Context, f ScheduleFilter) (int, error)
}

// Tx is the full set of record operations, available both on a Provider
// and inside WithTx.
type Tx interface {
	MedicationStore
	IntakeRecordStore
	DiaryStore
	ScheduleStore
}

type Provider interface {
	Tx

	// Lifecycle
	Init() error
	Load() error
	Close() error

	// WithTx runs fn atomically: every write fn makes through the given Tx
	// commits together, or none does when fn returns an error or panics.
	WithTx(ctx context.Context, fn func(Tx) error) error

	// Describe returns a short, credential-free identifier of the backing
	// store for diagnostics.
	Describe() string
}
