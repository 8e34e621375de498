package memory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

func TestUpsertAssignsIDs(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, _ := s.UpsertMedication(ctx, models.MedicationInfo{Name: "A"})
	b, _ := s.UpsertMedication(ctx, models.MedicationInfo{Name: "B"})
	if a != 1 || b != 2 {
		t.Errorf("ids = %d, %d", a, b)
	}

	explicit, _ := s.UpsertMedication(ctx, models.MedicationInfo{ID: 10, Name: "C"})
	next, _ := s.UpsertMedication(ctx, models.MedicationInfo{Name: "D"})
	if explicit != 10 || next != 11 {
		t.Errorf("ids after explicit = %d, %d", explicit, next)
	}

	if _, err := s.GetMedication(ctx, 99); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetMedication(99) error = %v", err)
	}
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	id, _ := s.UpsertMedication(ctx, models.MedicationInfo{Name: "A", RemainingQuantity: 5})

	list, _ := s.ListMedications(ctx, storage.MedicationFilter{})
	list[0].RemainingQuantity = 0

	got, _ := s.GetMedication(ctx, id)
	if got.RemainingQuantity != 5 {
		t.Errorf("stored value changed through a read: %d", got.RemainingQuantity)
	}
}

func TestWithTxIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	s.FailNext("UpsertIntakeRecord", boom)
	err := s.WithTx(ctx, func(tx storage.Tx) error {
		if _, err := tx.UpsertMedication(ctx, models.MedicationInfo{Name: "A"}); err != nil {
			return err
		}
		_, err := tx.UpsertIntakeRecord(ctx, models.NewIntakeRecordAt("A", 1, 1))
		return err
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v", err)
	}

	if n, _ := s.CountMedications(ctx, storage.MedicationFilter{}); n != 0 {
		t.Errorf("medication leaked from failed transaction")
	}

	s.FailNext("Commit", boom)
	err = s.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.UpsertMedication(ctx, models.MedicationInfo{Name: "A"})
		return err
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx commit error = %v", err)
	}
	if n, _ := s.CountMedications(ctx, storage.MedicationFilter{}); n != 0 {
		t.Errorf("medication leaked from failed commit")
	}

	err = s.WithTx(ctx, func(tx storage.Tx) error {
		_, err := tx.UpsertMedication(ctx, models.MedicationInfo{Name: "A"})
		return err
	})
	if err != nil {
		t.Fatalf("WithTx failed: %v", err)
	}
	if n, _ := s.CountMedications(ctx, storage.MedicationFilter{}); n != 1 {
		t.Errorf("committed medication missing")
	}
}

func TestWithTxPanicDiscardsStagedData(t *testing.T) {
	ctx := context.Background()
	s := New()

	func() {
		defer func() { _ = recover() }()
		_ = s.WithTx(ctx, func(tx storage.Tx) error {
			_, _ = tx.UpsertDiary(ctx, models.RestoreHealthDiary(0, 1, "x", 1, 1))
			panic("boom")
		})
	}()

	if n, _ := s.CountDiaries(ctx, storage.DiaryFilter{}); n != 0 {
		t.Errorf("diary leaked from panicking transaction")
	}
	// lock released
	if _, err := s.UpsertDiary(ctx, models.RestoreHealthDiary(0, 1, "y", 1, 1)); err != nil {
		t.Fatalf("UpsertDiary failed: %v", err)
	}
}

func TestFailNextIsOneShot(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.FailNext("ListDiaries", errors.New("boom"))

	if _, err := s.ListDiaries(ctx, storage.DiaryFilter{}); err == nil {
		t.Error("expected injected failure")
	}
	if _, err := s.ListDiaries(ctx, storage.DiaryFilter{}); err != nil {
		t.Errorf("failure fired twice: %v", err)
	}
}

func TestListOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	s := New()

	for _, at := range []int64{100, 300, 200} {
		_, _ = s.UpsertIntakeRecord(ctx, models.NewIntakeRecordAt("A", at, 1))
		_, _ = s.UpsertDiary(ctx, models.RestoreHealthDiary(0, 1, "note", at, at))
	}

	records, _ := s.ListIntakeRecords(ctx, storage.IntakeFilter{Limit: 2})
	if len(records) != 2 || records[0].IntakeTime != 300 || records[1].IntakeTime != 200 {
		t.Errorf("records = %+v", records)
	}

	diaries, _ := s.ListDiaries(ctx, storage.DiaryFilter{UserID: 1, Offset: 1})
	if len(diaries) != 2 || diaries[0].CreatedAt != 200 {
		t.Errorf("diaries = %v", diaries)
	}
	if out, _ := s.ListDiaries(ctx, storage.DiaryFilter{Offset: 5}); len(out) != 0 {
		t.Errorf("offset past end returned %d", len(out))
	}
}

func TestConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.UpsertIntakeRecord(ctx, models.NewIntakeRecordAt("A", 1, 1))
			_, _ = s.CountIntakeRecords(ctx, storage.IntakeFilter{})
		}()
	}
	wg.Wait()

	if n, _ := s.CountIntakeRecords(ctx, storage.IntakeFilter{}); n != 20 {
		t.Errorf("count = %d, want 20", n)
	}
}

func TestSchedules(t *testing.T) {
	ctx := context.Background()
	s := New()
	aspirin, _ := s.UpsertMedication(ctx, models.MedicationInfo{Name: "Aspirin"})
	ibuprofen, _ := s.UpsertMedication(ctx, models.MedicationInfo{Name: "Ibuprofen"})

	schedule := func(med, next int64, enabled bool) models.MedicationSchedule {
		sc := models.NewMedicationSchedule(med, models.CycleDaily, "08:00")
		sc.NextReminderAt = next
		sc.Enabled = enabled
		return sc
	}
	for _, sc := range []models.MedicationSchedule{
		schedule(aspirin, 300, true),
		schedule(aspirin, 0, false),
		schedule(aspirin, 100, true),
		schedule(ibuprofen, 200, true),
	} {
		if _, err := s.UpsertSchedule(ctx, sc); err != nil {
			t.Fatalf("UpsertSchedule failed: %v", err)
		}
	}
	if _, err := s.UpsertSchedule(ctx, schedule(99, 100, true)); err == nil {
		t.Error("UpsertSchedule accepted a missing medication")
	}

	tests := []struct {
		name   string
		filter storage.ScheduleFilter
		want   []int64
	}{
		{"all", storage.ScheduleFilter{}, []int64{3, 4, 1, 2}},
		{"one medication", storage.ScheduleFilter{MedicationID: aspirin}, []int64{3, 1, 2}},
		{"enabled", storage.ScheduleFilter{MedicationID: aspirin, EnabledOnly: true}, []int64{3, 1}},
		{"due", storage.ScheduleFilter{DueBy: 200}, []int64{3, 4}},
		{"limit", storage.ScheduleFilter{Limit: 1}, []int64{3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListSchedules(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListSchedules failed: %v", err)
			}
			ids := make([]int64, len(got))
			for i, sc := range got {
				ids[i] = sc.ID
			}
			if len(ids) != len(tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
			for i := range ids {
				if ids[i] != tt.want[i] {
					t.Fatalf("ids = %v, want %v", ids, tt.want)
				}
			}
		})
	}

	got, _ := s.GetSchedule(ctx, 1)
	got.TimesOfDay[0] = "23:00"
	if again, _ := s.GetSchedule(ctx, 1); again.TimesOfDay[0] != "08:00" {
		t.Errorf("stored times changed through a read: %v", again.TimesOfDay)
	}

	if _, err := s.DeleteMedication(ctx, aspirin); err != nil {
		t.Fatalf("DeleteMedication failed: %v", err)
	}
	if n, _ := s.CountSchedules(ctx, storage.ScheduleFilter{}); n != 1 {
		t.Errorf("schedules after deleting their medication = %d, want 1", n)
	}
	if _, err := s.GetSchedule(ctx, 1); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("GetSchedule(1) error = %v", err)
	}
}
