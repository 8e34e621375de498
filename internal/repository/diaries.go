package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/julianstephens/pillbook/internal/errors"
	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
	"github.com/julianstephens/pillbook/internal/validation"
)

const diaryEntity = "diary"

// DiaryRepository manages health diaries. Every diary belongs to one owner;
// reads and watches are scoped to an owner, and a diary owned by someone else
// is reported as not found.
type DiaryRepository struct {
	base

	mu    sync.Mutex
	snaps map[int64]*Broadcaster[[]models.HealthDiary]
	done  bool
}

func NewDiaryRepository(store storage.Provider, opts ...Option) *DiaryRepository {
	return &DiaryRepository{
		base:  newBase("DiaryRepository", diaryEntity, store, opts),
		snaps: make(map[int64]*Broadcaster[[]models.HealthDiary]),
	}
}

// ValidateContent returns nil or a validation error with a fixed message.
func (r *DiaryRepository) ValidateContent(content string) error {
	return validation.DiaryContent(content)
}

// Create stores a new diary stamped now.
func (r *DiaryRepository) Create(ctx context.Context, d models.HealthDiary) *Result[models.HealthDiary] {
	if err := validation.DiaryOwner(d.UserID); err != nil {
		return Failed[models.HealthDiary](err)
	}
	if err := r.ValidateContent(d.Content()); err != nil {
		return Failed[models.HealthDiary](err)
	}
	key := r.family + ":new:" + uuid.NewString()
	return write(&r.base, ctx, key, "create", 0, func(ctx context.Context) (models.HealthDiary, error) {
		now := r.clock.NowMillis()
		out := models.RestoreHealthDiary(0, d.UserID, d.Content(), now, now)
		id, err := r.store.UpsertDiary(ctx, out)
		if err != nil {
			return models.HealthDiary{}, apperrors.Store("create diary", err)
		}
		out.ID = id
		r.refresh(d.UserID)
		return out, nil
	})
}

// Update replaces the content of a stored diary. The caller's UserID must
// own it. UpdatedAt always moves forward, even on a stalled clock.
func (r *DiaryRepository) Update(ctx context.Context, d models.HealthDiary) *Result[models.HealthDiary] {
	if err := validation.ID(d.ID); err != nil {
		return Failed[models.HealthDiary](err)
	}
	if err := validation.DiaryOwner(d.UserID); err != nil {
		return Failed[models.HealthDiary](err)
	}
	if err := r.ValidateContent(d.Content()); err != nil {
		return Failed[models.HealthDiary](err)
	}
	return write(&r.base, ctx, r.key(d.ID), "update", d.ID, func(ctx context.Context) (models.HealthDiary, error) {
		stored, err := r.owned(ctx, d.ID, d.UserID)
		if err != nil {
			return models.HealthDiary{}, err
		}
		stored = stored.WithClock(r.clock)
		stored.SetContent(d.Content())
		if _, err := r.store.UpsertDiary(ctx, stored); err != nil {
			return models.HealthDiary{}, apperrors.Store("update diary", err)
		}
		r.refresh(d.UserID)
		return stored.WithClock(nil), nil
	})
}

// Delete removes a diary owned by owner.
func (r *DiaryRepository) Delete(ctx context.Context, owner, id int64) *Result[struct{}] {
	if err := validation.ID(id); err != nil {
		return Failed[struct{}](err)
	}
	if err := validation.DiaryOwner(owner); err != nil {
		return Failed[struct{}](err)
	}
	return write(&r.base, ctx, r.key(id), "delete", id, func(ctx context.Context) (struct{}, error) {
		if _, err := r.owned(ctx, id, owner); err != nil {
			return struct{}{}, err
		}
		deleted, err := r.store.DeleteDiary(ctx, id)
		if err != nil {
			return struct{}{}, apperrors.Store("delete diary", err)
		}
		if !deleted {
			return struct{}{}, apperrors.NotFound(diaryEntity, id)
		}
		r.refresh(owner)
		return struct{}{}, nil
	})
}

// owned loads diary id and checks it belongs to owner.
func (r *DiaryRepository) owned(ctx context.Context, id, owner int64) (models.HealthDiary, error) {
	d, err := r.store.GetDiary(ctx, id)
	if err != nil {
		return models.HealthDiary{}, r.storeErr("load diary", diaryEntity, id, err)
	}
	if d.UserID != owner {
		return models.HealthDiary{}, apperrors.NotFound(diaryEntity, id)
	}
	return d, nil
}

// Get returns diary id if owner owns it.
func (r *DiaryRepository) Get(ctx context.Context, owner, id int64) *Result[models.HealthDiary] {
	if err := validation.ID(id); err != nil {
		return Failed[models.HealthDiary](err)
	}
	if err := validation.DiaryOwner(owner); err != nil {
		return Failed[models.HealthDiary](err)
	}
	return read(&r.base, ctx, func(ctx context.Context) (models.HealthDiary, error) {
		return r.owned(ctx, id, owner)
	})
}

func (r *DiaryRepository) Exists(ctx context.Context, owner, id int64) *Result[bool] {
	if id <= 0 || owner <= 0 {
		return Resolved(false)
	}
	return read(&r.base, ctx, func(ctx context.Context) (bool, error) {
		_, err := r.owned(ctx, id, owner)
		if apperrors.Is(err, apperrors.KindNotFound) {
			return false, nil
		}
		return err == nil, err
	})
}

// ListForOwner returns f.UserID's diaries matching f, newest first.
func (r *DiaryRepository) ListForOwner(ctx context.Context, f storage.DiaryFilter) *Result[[]models.HealthDiary] {
	if err := validation.DiaryOwner(f.UserID); err != nil {
		return Failed[[]models.HealthDiary](err)
	}
	return r.list(ctx, f)
}

func (r *DiaryRepository) list(ctx context.Context, f storage.DiaryFilter) *Result[[]models.HealthDiary] {
	return read(&r.base, ctx, func(ctx context.Context) ([]models.HealthDiary, error) {
		list, err := r.store.ListDiaries(ctx, f)
		if err != nil {
			return nil, apperrors.Store("list diaries", err)
		}
		return list, nil
	})
}

func (r *DiaryRepository) CountForOwner(ctx context.Context, owner int64) *Result[int] {
	if err := validation.DiaryOwner(owner); err != nil {
		return Failed[int](err)
	}
	return read(&r.base, ctx, func(ctx context.Context) (int, error) {
		n, err := r.store.CountDiaries(ctx, storage.DiaryFilter{UserID: owner})
		if err != nil {
			return 0, apperrors.Store("count diaries", err)
		}
		return n, nil
	})
}

// Search returns owner's diaries containing keyword, case-insensitively.
func (r *DiaryRepository) Search(ctx context.Context, owner int64, keyword string) *Result[[]models.HealthDiary] {
	if err := validation.Keyword(keyword); err != nil {
		return Failed[[]models.HealthDiary](err)
	}
	return r.ListForOwner(ctx, storage.DiaryFilter{UserID: owner, Keyword: keyword})
}

// Range returns owner's diaries created within [from, to].
func (r *DiaryRepository) Range(ctx context.Context, owner, from, to int64) *Result[[]models.HealthDiary] {
	if err := validation.TimeRange(from, to); err != nil {
		return Failed[[]models.HealthDiary](err)
	}
	return r.ListForOwner(ctx, storage.DiaryFilter{UserID: owner, From: from, To: to})
}

// Latest returns owner's most recent diaries. A non-positive limit returns
// all of them.
func (r *DiaryRepository) Latest(ctx context.Context, owner int64, limit int) *Result[[]models.HealthDiary] {
	if limit < 0 {
		limit = 0
	}
	return r.ListForOwner(ctx, storage.DiaryFilter{UserID: owner, Limit: limit})
}

// Watch streams owner's diaries, starting with the current list. Without a
// valid owner the subscription starts closed.
func (r *DiaryRepository) Watch(ctx context.Context, owner int64) *Subscription[[]models.HealthDiary] {
	if owner <= 0 {
		bc := NewBroadcaster[[]models.HealthDiary](nil)
		bc.Close()
		return bc.Subscribe(ctx)
	}

	// subscribing under mu keeps a pruning pass from dropping the
	// broadcaster between lookup and registration
	r.mu.Lock()
	r.prune()
	bc, ok := r.snaps[owner]
	if !ok {
		bc = NewBroadcaster(cloneSlice[models.HealthDiary])
		if r.done {
			bc.Close()
		} else {
			r.snaps[owner] = bc
		}
	}
	sub, stale := bc.subscribe(ctx)
	r.mu.Unlock()

	if stale {
		r.refresh(owner)
	}
	return sub
}

// prune drops broadcasters nobody subscribes to any more. Callers hold mu.
func (r *DiaryRepository) prune() {
	for owner, bc := range r.snaps {
		if bc.Len() == 0 {
			delete(r.snaps, owner)
		}
	}
}

func (r *DiaryRepository) refresh(owner int64) {
	r.mu.Lock()
	bc := r.snaps[owner]
	if bc != nil && bc.Len() == 0 {
		delete(r.snaps, owner)
		bc = nil
	}
	r.mu.Unlock()
	if bc == nil {
		return
	}

	key := fmt.Sprintf("%s:%d", r.snapshotKey(), owner)
	refresh(&r.base, key, bc, func(ctx context.Context) ([]models.HealthDiary, error) {
		return r.store.ListDiaries(ctx, storage.DiaryFilter{UserID: owner})
	})
}

func (r *DiaryRepository) Status() string {
	r.mu.Lock()
	n := 0
	for _, bc := range r.snaps {
		n += bc.Len()
	}
	r.mu.Unlock()
	return r.status(n)
}

func (r *DiaryRepository) Cleanup() {
	r.exec.close()

	r.mu.Lock()
	r.done = true
	snaps := r.snaps
	r.snaps = make(map[int64]*Broadcaster[[]models.HealthDiary])
	r.mu.Unlock()

	for _, bc := range snaps {
		bc.Close()
	}
}
