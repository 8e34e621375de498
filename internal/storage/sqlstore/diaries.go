package sqlstore

import (
	"context"

	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

const diaryColumns = "id, user_id, content, created_at, updated_at"

func (s *Store) UpsertDiary(ctx context.Context, d models.HealthDiary) (int64, error) {
	if d.ID == 0 {
		return s.insertReturningID(ctx, `
			INSERT INTO health_diaries (user_id, content, created_at, updated_at)
			VALUES (?, ?, ?, ?)
			RETURNING id`,
			d.UserID, d.Content(), d.CreatedAt, d.UpdatedAt,
		)
	}

	_, err := s.exec(ctx, `
		INSERT INTO health_diaries (`+diaryColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			user_id = excluded.user_id,
			content = excluded.content,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`,
		d.ID, d.UserID, d.Content(), d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return d.ID, nil
}

func (s *Store) GetDiary(ctx context.Context, id int64) (models.HealthDiary, error) {
	d, err := scanDiary(s.queryRow(ctx, "SELECT "+diaryColumns+" FROM health_diaries WHERE id = ?", id))
	if err != nil {
		return models.HealthDiary{}, notFound(err)
	}
	return d, nil
}

func (s *Store) ListDiaries(ctx context.Context, f storage.DiaryFilter) ([]models.HealthDiary, error) {
	w := diaryWhere(f)
	q := "SELECT " + diaryColumns + " FROM health_diaries" + w.sql() +
		" ORDER BY created_at DESC, id DESC" + s.dialect.limitOffset(f.Limit, f.Offset)

	rows, err := s.query(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var diaries []models.HealthDiary
	for rows.Next() {
		d, err := scanDiary(rows)
		if err != nil {
			return nil, err
		}
		diaries = append(diaries, d)
	}
	return diaries, rows.Err()
}

func (s *Store) DeleteDiary(ctx context.Context, id int64) (bool, error) {
	return s.deleteByID(ctx, "health_diaries", id)
}

func (s *Store) CountDiaries(ctx context.Context, f storage.DiaryFilter) (int, error) {
	return s.count(ctx, "health_diaries", diaryWhere(f))
}

func diaryWhere(f storage.DiaryFilter) where {
	var w where
	if f.UserID != 0 {
		w.add("user_id = ?", f.UserID)
	}
	if f.Keyword != "" {
		w.add(`LOWER(content) LIKE ? ESCAPE '\'`, likePattern(f.Keyword))
	}
	w.timeRange("created_at", f.From, f.To)
	return w
}

func scanDiary(sc scanner) (models.HealthDiary, error) {
	var (
		id, userID, createdAt, updatedAt int64
		content                          string
	)
	if err := sc.Scan(&id, &userID, &content, &createdAt, &updatedAt); err != nil {
		return models.HealthDiary{}, err
	}
	return models.RestoreHealthDiary(id, userID, content, createdAt, updatedAt), nil
}
