// Package memory is an in-process storage.Provider. Nothing is persisted;
// it backs tests and ephemeral runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

type dataset struct {
	meds      map[int64]models.MedicationInfo
	intakes   map[int64]models.MedicationIntakeRecord
	diaries   map[int64]models.HealthDiary
	schedules map[int64]models.MedicationSchedule

	nextMed, nextIntake, nextDiary, nextSchedule int64
}

func newDataset() *dataset {
	return &dataset{
		meds:      make(map[int64]models.MedicationInfo),
		intakes:   make(map[int64]models.MedicationIntakeRecord),
		diaries:   make(map[int64]models.HealthDiary),
		schedules: make(map[int64]models.MedicationSchedule),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		meds:         make(map[int64]models.MedicationInfo, len(d.meds)),
		intakes:      make(map[int64]models.MedicationIntakeRecord, len(d.intakes)),
		diaries:      make(map[int64]models.HealthDiary, len(d.diaries)),
		schedules:    make(map[int64]models.MedicationSchedule, len(d.schedules)),
		nextMed:      d.nextMed,
		nextIntake:   d.nextIntake,
		nextDiary:    d.nextDiary,
		nextSchedule: d.nextSchedule,
	}
	for k, v := range d.meds {
		c.meds[k] = v
	}
	for k, v := range d.intakes {
		c.intakes[k] = v
	}
	for k, v := range d.diaries {
		c.diaries[k] = v
	}
	for k, v := range d.schedules {
		c.schedules[k] = v.Clone()
	}
	return c
}

// Store holds every record in maps guarded by one mutex. Transactions work
// on a private copy that replaces the live data only when they succeed.
type Store struct {
	mu   sync.Mutex
	data *dataset

	failMu   sync.Mutex
	failures map[string]error
}

var _ storage.Provider = (*Store)(nil)

func New() *Store {
	return &Store{
		data:     newDataset(),
		failures: make(map[string]error),
	}
}

func (s *Store) Init() error  { return nil }
func (s *Store) Load() error  { return nil }
func (s *Store) Close() error { return nil }

func (s *Store) Describe() string {
	return "memory"
}

// FailNext makes the next call of the named operation (a storage method
// name such as "UpsertIntakeRecord") return err, inside or outside a
// transaction.
func (s *Store) FailNext(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[op] = err
}

func (s *Store) takeFailure(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	err, ok := s.failures[op]
	if !ok {
		return nil
	}
	delete(s.failures, op)
	return err
}

// WithTx holds the store for the whole of fn. A panic in fn propagates and,
// like an error, discards the staged copy.
func (s *Store) WithTx(ctx context.Context, fn func(storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.data.clone()
	if err := fn(&view{d: staged, fail: s.takeFailure}); err != nil {
		return err
	}
	if err := s.takeFailure("Commit"); err != nil {
		return err
	}
	s.data = staged
	return nil
}

func (s *Store) live() *view {
	return &view{d: s.data, fail: s.takeFailure}
}

func (s *Store) UpsertMedication(ctx context.Context, m models.MedicationInfo) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().UpsertMedication(ctx, m)
}

func (s *Store) GetMedication(ctx context.Context, id int64) (models.MedicationInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().GetMedication(ctx, id)
}

func (s *Store) ListMedications(ctx context.Context, f storage.MedicationFilter) ([]models.MedicationInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().ListMedications(ctx, f)
}

func (s *Store) DeleteMedication(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().DeleteMedication(ctx, id)
}

func (s *Store) CountMedications(ctx context.Context, f storage.MedicationFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().CountMedications(ctx, f)
}

func (s *Store) UpsertIntakeRecord(ctx context.Context, r models.MedicationIntakeRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().UpsertIntakeRecord(ctx, r)
}

func (s *Store) GetIntakeRecord(ctx context.Context, id int64) (models.MedicationIntakeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().GetIntakeRecord(ctx, id)
}

func (s *Store) ListIntakeRecords(ctx context.Context, f storage.IntakeFilter) ([]models.MedicationIntakeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().ListIntakeRecords(ctx, f)
}

func (s *Store) DeleteIntakeRecord(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().DeleteIntakeRecord(ctx, id)
}

func (s *Store) CountIntakeRecords(ctx context.Context, f storage.IntakeFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().CountIntakeRecords(ctx, f)
}

func (s *Store) UpsertDiary(ctx context.Context, d models.HealthDiary) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().UpsertDiary(ctx, d)
}

func (s *Store) GetDiary(ctx context.Context, id int64) (models.HealthDiary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().GetDiary(ctx, id)
}

func (s *Store) ListDiaries(ctx context.Context, f storage.DiaryFilter) ([]models.HealthDiary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().ListDiaries(ctx, f)
}

func (s *Store) DeleteDiary(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().DeleteDiary(ctx, id)
}

func (s *Store) CountDiaries(ctx context.Context, f storage.DiaryFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().CountDiaries(ctx, f)
}

func (s *Store) UpsertSchedule(ctx context.Context, sc models.MedicationSchedule) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().UpsertSchedule(ctx, sc)
}

func (s *Store) GetSchedule(ctx context.Context, id int64) (models.MedicationSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().GetSchedule(ctx, id)
}

func (s *Store) ListSchedules(ctx context.Context, f storage.ScheduleFilter) ([]models.MedicationSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().ListSchedules(ctx, f)
}

func (s *Store) DeleteSchedule(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().DeleteSchedule(ctx, id)
}

func (s *Store) CountSchedules(ctx context.Context, f storage.ScheduleFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live().CountSchedules(ctx, f)
}

// view runs record operations against one dataset. The caller holds the
// store lock.
type view struct {
	d    *dataset
	fail func(op string) error
}

var _ storage.Tx = (*view)(nil)

func assignID(id int64, next *int64) int64 {
	if id == 0 {
		*next++
		return *next
	}
	if id > *next {
		*next = id
	}
	return id
}

func (v *view) UpsertMedication(_ context.Context, m models.MedicationInfo) (int64, error) {
	if err := v.fail("UpsertMedication"); err != nil {
		return 0, err
	}
	m.ID = assignID(m.ID, &v.d.nextMed)
	v.d.meds[m.ID] = m
	return m.ID, nil
}

func (v *view) GetMedication(_ context.Context, id int64) (models.MedicationInfo, error) {
	if err := v.fail("GetMedication"); err != nil {
		return models.MedicationInfo{}, err
	}
	m, ok := v.d.meds[id]
	if !ok {
		return models.MedicationInfo{}, storage.ErrNotFound
	}
	return m, nil
}

func (v *view) ListMedications(_ context.Context, f storage.MedicationFilter) ([]models.MedicationInfo, error) {
	if err := v.fail("ListMedications"); err != nil {
		return nil, err
	}
	var out []models.MedicationInfo
	for _, m := range v.d.meds {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if a != b {
			return a < b
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (v *view) DeleteMedication(_ context.Context, id int64) (bool, error) {
	if err := v.fail("DeleteMedication"); err != nil {
		return false, err
	}
	_, ok := v.d.meds[id]
	delete(v.d.meds, id)
	for sid, sc := range v.d.schedules {
		if sc.MedicationID == id {
			delete(v.d.schedules, sid)
		}
	}
	return ok, nil
}

func (v *view) CountMedications(_ context.Context, f storage.MedicationFilter) (int, error) {
	if err := v.fail("CountMedications"); err != nil {
		return 0, err
	}
	n := 0
	for _, m := range v.d.meds {
		if f.Match(m) {
			n++
		}
	}
	return n, nil
}

func (v *view) UpsertIntakeRecord(_ context.Context, r models.MedicationIntakeRecord) (int64, error) {
	if err := v.fail("UpsertIntakeRecord"); err != nil {
		return 0, err
	}
	r.ID = assignID(r.ID, &v.d.nextIntake)
	v.d.intakes[r.ID] = r
	return r.ID, nil
}

func (v *view) GetIntakeRecord(_ context.Context, id int64) (models.MedicationIntakeRecord, error) {
	if err := v.fail("GetIntakeRecord"); err != nil {
		return models.MedicationIntakeRecord{}, err
	}
	r, ok := v.d.intakes[id]
	if !ok {
		return models.MedicationIntakeRecord{}, storage.ErrNotFound
	}
	return r, nil
}

func (v *view) ListIntakeRecords(_ context.Context, f storage.IntakeFilter) ([]models.MedicationIntakeRecord, error) {
	if err := v.fail("ListIntakeRecords"); err != nil {
		return nil, err
	}
	var out []models.MedicationIntakeRecord
	for _, r := range v.d.intakes {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IntakeTime != out[j].IntakeTime {
			return out[i].IntakeTime > out[j].IntakeTime
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Limit, 0), nil
}

func (v *view) DeleteIntakeRecord(_ context.Context, id int64) (bool, error) {
	if err := v.fail("DeleteIntakeRecord"); err != nil {
		return false, err
	}
	_, ok := v.d.intakes[id]
	delete(v.d.intakes, id)
	return ok, nil
}

func (v *view) CountIntakeRecords(_ context.Context, f storage.IntakeFilter) (int, error) {
	if err := v.fail("CountIntakeRecords"); err != nil {
		return 0, err
	}
	n := 0
	for _, r := range v.d.intakes {
		if f.Match(r) {
			n++
		}
	}
	return n, nil
}

func (v *view) UpsertDiary(_ context.Context, d models.HealthDiary) (int64, error) {
	if err := v.fail("UpsertDiary"); err != nil {
		return 0, err
	}
	id := assignID(d.ID, &v.d.nextDiary)
	// stored diaries read back the same way as from SQL
	v.d.diaries[id] = models.RestoreHealthDiary(id, d.UserID, d.Content(), d.CreatedAt, d.UpdatedAt)
	return id, nil
}

func (v *view) GetDiary(_ context.Context, id int64) (models.HealthDiary, error) {
	if err := v.fail("GetDiary"); err != nil {
		return models.HealthDiary{}, err
	}
	d, ok := v.d.diaries[id]
	if !ok {
		return models.HealthDiary{}, storage.ErrNotFound
	}
	return d, nil
}

func (v *view) ListDiaries(_ context.Context, f storage.DiaryFilter) ([]models.HealthDiary, error) {
	if err := v.fail("ListDiaries"); err != nil {
		return nil, err
	}
	var out []models.HealthDiary
	for _, d := range v.d.diaries {
		if f.Match(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID > out[j].ID
	})
	return page(out, f.Limit, f.Offset), nil
}

func (v *view) DeleteDiary(_ context.Context, id int64) (bool, error) {
	if err := v.fail("DeleteDiary"); err != nil {
		return false, err
	}
	_, ok := v.d.diaries[id]
	delete(v.d.diaries, id)
	return ok, nil
}

func (v *view) CountDiaries(_ context.Context, f storage.DiaryFilter) (int, error) {
	if err := v.fail("CountDiaries"); err != nil {
		return 0, err
	}
	n := 0
	for _, d := range v.d.diaries {
		if f.Match(d) {
			n++
		}
	}
	return n, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (v *view) UpsertSchedule(_ context.Context, s models.MedicationSchedule) (int64, error) {
	if err := v.fail("UpsertSchedule"); err != nil {
		return 0, err
	}
	if _, ok := v.d.meds[s.MedicationID]; !ok {
		return 0, fmt.Errorf("schedule references missing medication %d", s.MedicationID)
	}
	s.ID = assignID(s.ID, &v.d.nextSchedule)
	s.Weekdays = models.WeekdaysFromMask(models.WeekdayMask(s.Weekdays))
	v.d.schedules[s.ID] = s.Clone()
	return s.ID, nil
}

func (v *view) GetSchedule(_ context.Context, id int64) (models.MedicationSchedule, error) {
	if err := v.fail("GetSchedule"); err != nil {
		return models.MedicationSchedule{}, err
	}
	s, ok := v.d.schedules[id]
	if !ok {
		return models.MedicationSchedule{}, storage.ErrNotFound
	}
	return s.Clone(), nil
}

func (v *view) ListSchedules(_ context.Context, f storage.ScheduleFilter) ([]models.MedicationSchedule, error) {
	if err := v.fail("ListSchedules"); err != nil {
		return nil, err
	}
	var out []models.MedicationSchedule
	for _, s := range v.d.schedules {
		if f.Match(s) {
			out = append(out, s.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return storage.ScheduleLess(out[i], out[j])
	})
	return page(out, f.Limit, 0), nil
}

func (v *view) DeleteSchedule(_ context.Context, id int64) (bool, error) {
	if err := v.fail("DeleteSchedule"); err != nil {
		return false, err
	}
	_, ok := v.d.schedules[id]
	delete(v.d.schedules, id)
	return ok, nil
}

func (v *view) CountSchedules(_ context.Context, f storage.ScheduleFilter) (int, error) {
	if err := v.fail("CountSchedules"); err != nil {
		return 0, err
	}
	n := 0
	for _, s := range v.d.schedules {
		if f.Match(s) {
			n++
		}
	}
	return n, nil
}
