package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/julianstephens/pillbook/internal/clock"
	"github.com/julianstephens/pillbook/internal/constants"
)

// HealthDiary is one free-text health note owned by a user.
//
// Content is only reachable through SetContent so every edit refreshes
// UpdatedAt and marks the diary modified. Validity is a query: an invalid
// diary can exist in memory and is rejected by the repository on write.
type HealthDiary struct {
	ID        int64
	UserID    int64
	CreatedAt int64 // epoch ms
	UpdatedAt int64 // epoch ms

	content  string
	modified bool
	clk      clock.Clock
}

// NewHealthDiary returns an empty diary stamped now.
func NewHealthDiary(clk clock.Clock) HealthDiary {
	clk = clock.Or(clk)
	now := clk.NowMillis()
	return HealthDiary{CreatedAt: now, UpdatedAt: now, clk: clk}
}

// NewHealthDiaryFor returns a diary for userID holding content, stamped now.
// Construction does not count as a modification.
func NewHealthDiaryFor(clk clock.Clock, userID int64, content string) HealthDiary {
	d := NewHealthDiary(clk)
	d.UserID = userID
	d.content = content
	return d
}

// RestoreHealthDiary rebuilds a persisted diary. It is modified when it has
// been edited since creation.
func RestoreHealthDiary(id, userID int64, content string, createdAt, updatedAt int64) HealthDiary {
	return HealthDiary{
		ID:        id,
		UserID:    userID,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		content:   content,
		modified:  updatedAt > createdAt,
	}
}

// WithClock returns a copy of d that reads time from clk.
func (d HealthDiary) WithClock(clk clock.Clock) HealthDiary {
	d.clk = clk
	return d
}

func (d HealthDiary) Content() string {
	return d.content
}

// SetContent replaces the content, bumps UpdatedAt and marks the diary
// modified, even when the content is unchanged.
func (d *HealthDiary) SetContent(content string) {
	d.content = content
	d.MarkAsUpdated()
}

// MarkAsUpdated bumps UpdatedAt and marks the diary modified without
// touching the content. UpdatedAt always strictly increases.
func (d *HealthDiary) MarkAsUpdated() {
	now := clock.Or(d.clk).NowMillis()
	if now <= d.UpdatedAt {
		now = d.UpdatedAt + 1
	}
	d.UpdatedAt = now
	d.modified = true
}

// IsModified reports whether the diary changed after construction.
func (d HealthDiary) IsModified() bool {
	return d.modified
}

// IsContentValid reports whether content is non-blank and at most 5000
// characters.
func (d HealthDiary) IsContentValid() bool {
	return strings.TrimSpace(d.content) != "" && d.ContentLength() <= constants.MaxDiaryContentLength
}

// ContentLength returns the number of characters in the content.
func (d HealthDiary) ContentLength() int {
	return utf8.RuneCountInString(d.content)
}

// ContentPreview returns the content unchanged when it fits in maxLen
// characters, otherwise its first maxLen characters followed by "...".
func (d HealthDiary) ContentPreview(maxLen int) string {
	if maxLen < 0 {
		maxLen = 0
	}
	runes := []rune(d.content)
	if len(runes) <= maxLen {
		return d.content
	}
	return string(runes[:maxLen]) + constants.PreviewEllipsis
}

// DefaultPreview is ContentPreview with the list-view length.
func (d HealthDiary) DefaultPreview() string {
	return d.ContentPreview(constants.DefaultPreviewLength)
}

func (d HealthDiary) FormattedCreatedDate() string {
	return clock.Time(d.CreatedAt).Format(constants.DateTimeFormat)
}

func (d HealthDiary) FormattedUpdatedDate() string {
	return clock.Time(d.UpdatedAt).Format(constants.DateTimeFormat)
}

func (d HealthDiary) ShortCreatedDate() string {
	return clock.Time(d.CreatedAt).Format(constants.ShortDateFormat)
}

// IsCreatedToday reports whether the diary was created within the 24 hours
// before now (epoch ms).
func (d HealthDiary) IsCreatedToday(now int64) bool {
	const day = 24 * 60 * 60 * 1000
	return now-d.CreatedAt < day
}

// Equal compares id, owner, content and both timestamps.
func (d HealthDiary) Equal(other HealthDiary) bool {
	return d.ID == other.ID &&
		d.UserID == other.UserID &&
		d.content == other.content &&
		d.CreatedAt == other.CreatedAt &&
		d.UpdatedAt == other.UpdatedAt
}

type diaryIdentity struct {
	ID        int64
	UserID    int64
	Content   string
	CreatedAt int64
	UpdatedAt int64
}

// Hash is a structural hash over the fields compared by Equal.
func (d HealthDiary) Hash() uint64 {
	h, err := hashstructure.Hash(diaryIdentity{
		ID:        d.ID,
		UserID:    d.UserID,
		Content:   d.content,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, hashstructure.FormatV2, nil)
	if err != nil {
		// plain structs of ints and strings always hash
		panic(err)
	}
	return h
}

func (d HealthDiary) String() string {
	return fmt.Sprintf("HealthDiary{id=%d, userId=%d, content=%q, createdAt=%s, updatedAt=%s, modified=%t}",
		d.ID, d.UserID, d.ContentPreview(50), d.FormattedCreatedDate(), d.FormattedUpdatedDate(), d.modified)
}
