package sqlstore

import (
	"context"
	"strings"

	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

const medicationColumns = `id, name, color, dosage_form, total_quantity, remaining_quantity,
	dosage_per_intake, low_stock_threshold, unit, photo_path, created_at, updated_at`

func (s *Store) UpsertMedication(ctx context.Context, m models.MedicationInfo) (int64, error) {
	if m.ID == 0 {
		return s.insertReturningID(ctx, `
			INSERT INTO medications (name, color, dosage_form, total_quantity, remaining_quantity,
				dosage_per_intake, low_stock_threshold, unit, photo_path, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			RETURNING id`,
			m.Name, m.Color, m.DosageForm, m.TotalQuantity, m.RemainingQuantity,
			m.DosagePerIntake, m.LowStockThreshold, m.Unit, m.PhotoPath, m.CreatedAt, m.UpdatedAt,
		)
	}

	_, err := s.exec(ctx, `
		INSERT INTO medications (`+medicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			color = excluded.color,
			dosage_form = excluded.dosage_form,
			total_quantity = excluded.total_quantity,
			remaining_quantity = excluded.remaining_quantity,
			dosage_per_intake = excluded.dosage_per_intake,
			low_stock_threshold = excluded.low_stock_threshold,
			unit = excluded.unit,
			photo_path = excluded.photo_path,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		m.ID, m.Name, m.Color, m.DosageForm, m.TotalQuantity, m.RemainingQuantity,
		m.DosagePerIntake, m.LowStockThreshold, m.Unit, m.PhotoPath, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

func (s *Store) GetMedication(ctx context.Context, id int64) (models.MedicationInfo, error) {
	row := s.queryRow(ctx, "SELECT "+medicationColumns+" FROM medications WHERE id = ?", id)
	m, err := scanMedication(row)
	if err != nil {
		return models.MedicationInfo{}, notFound(err)
	}
	return m, nil
}

func (s *Store) ListMedications(ctx context.Context, f storage.MedicationFilter) ([]models.MedicationInfo, error) {
	w := medicationWhere(f)
	rows, err := s.query(ctx, "SELECT "+medicationColumns+" FROM medications"+w.sql()+" ORDER BY LOWER(name), id", w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var meds []models.MedicationInfo
	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

func (s *Store) DeleteMedication(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "medications", id)
}

func (s *Store) CountMedications(ctx context.Context, f storage.MedicationFilter) (int, error) {
	return s.count(ctx, "medications", medicationWhere(f))
}

func medicationWhere(f storage.MedicationFilter) where {
	var w where
	if f.NameContains != "" {
		w.add(`LOWER(name) LIKE ? ESCAPE '\'`, likePattern(f.NameContains))
	}
	if f.Name != "" {
		w.add("LOWER(TRIM(name)) = ?", strings.ToLower(strings.TrimSpace(f.Name)))
	}
	if f.Color != "" {
		w.add("LOWER(color) = ?", strings.ToLower(f.Color))
	}
	if f.DosageForm != "" {
		w.add("LOWER(dosage_form) = ?", strings.ToLower(f.DosageForm))
	}
	return w
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMedication(sc scanner) (models.MedicationInfo, error) {
	var m models.MedicationInfo
	err := sc.Scan(
		&m.ID, &m.Name, &m.Color, &m.DosageForm, &m.TotalQuantity, &m.RemainingQuantity,
		&m.DosagePerIntake, &m.LowStockThreshold, &m.Unit, &m.PhotoPath, &m.CreatedAt, &m.UpdatedAt,
	)
	return m, err
}
