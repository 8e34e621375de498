package sqlstore

import (
	"context"

	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

const intakeColumns = "id, medication_name, intake_time, dosage_taken"

func (s *Store) UpsertIntakeRecord(ctx context.Context, r models.MedicationIntakeRecord) (int64, error) {
	if r.ID == 0 {
		return s.insertReturningID(ctx, `
			INSERT INTO medication_intake_records (medication_name, intake_time, dosage_taken)
			VALUES (?, ?, ?)
			RETURNING id`,
			r.MedicationName, r.IntakeTime, r.DosageTaken,
		)
	}

	_, err := s.exec(ctx, `
		INSERT INTO medication_intake_records (`+intakeColumns+`)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			medication_name = excluded.medication_name,
			intake_time = excluded.intake_time,
			dosage_taken = excluded.dosage_taken`,
		r.ID, r.MedicationName, r.IntakeTime, r.DosageTaken,
	)
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

func (s *Store) GetIntakeRecord(ctx context.Context, id int64) (models.MedicationIntakeRecord, error) {
	var r models.MedicationIntakeRecord
	err := s.queryRow(ctx, "SELECT "+intakeColumns+" FROM medication_intake_records WHERE id = ?", id).
		Scan(&r.ID, &r.MedicationName, &r.IntakeTime, &r.DosageTaken)
	if err != nil {
		return models.MedicationIntakeRecord{}, notFound(err)
	}
	return r, nil
}

func (s *Store) ListIntakeRecords(ctx context.Context, f storage.IntakeFilter) ([]models.MedicationIntakeRecord, error) {
	w := intakeWhere(f)
	q := "SELECT " + intakeColumns + " FROM medication_intake_records" + w.sql() +
		" ORDER BY intake_time DESC, id DESC" + s.dialect.limitOffset(f.Limit, 0)

	rows, err := s.query(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.MedicationIntakeRecord
	for rows.Next() {
		var r models.MedicationIntakeRecord
		if err := rows.Scan(&r.ID, &r.MedicationName, &r.IntakeTime, &r.DosageTaken); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *Store) DeleteIntakeRecord(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "medication_intake_records", id)
}

func (s *Store) CountIntakeRecords(ctx context.Context, f storage.IntakeFilter) (int, error) {
	return s.count(ctx, "medication_intake_records", intakeWhere(f))
}

func intakeWhere(f storage.IntakeFilter) where {
	var w where
	if f.MedicationName != "" {
		w.add("medication_name = ?", f.MedicationName)
	}
	w.timeRange("intake_time", f.From, f.To)
	return w
}
