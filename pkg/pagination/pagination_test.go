package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+50))
	assert.Equal(t, 7, NormalizeLimit(7))
	assert.Equal(t, 10, NormalizeLimitWithDefault(0, 10))
	assert.Equal(t, DefaultLimit, NormalizeLimitWithDefault(-1, 0))
}

func TestCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 123, time.UTC), ID: uuid.New()}

	got, err := ParseCursor(EncodeCursor(want))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.ID, got.ID)

	empty, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, empty)

	_, err = ParseCursor("not-base64!")
	assert.ErrorIs(t, err, ErrBadCursor)

	_, err = ParseCursor(base64.RawURLEncoding.EncodeToString([]byte(`{"t":"2026-03-01T00:00:00Z"}`)))
	assert.ErrorIs(t, err, ErrBadCursor)
}

type entry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
}

func TestAfterWalksNewestFirst(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file:page_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&entry{}))

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.Create(&entry{ID: uuid.New(), CreatedAt: base.Add(time.Duration(i) * time.Minute)}).Error)
	}
	cursorOf := func(e entry) Cursor { return Cursor{CreatedAt: e.CreatedAt, ID: e.ID} }

	var seen []time.Time
	var cursor *Cursor
	for pages := 0; pages < 5; pages++ {
		var rows []entry
		require.NoError(t, conn.Scopes(After(cursor, 2+1)).Find(&rows).Error)
		page, next := Page(rows, 2, cursorOf)
		for _, e := range page {
			seen = append(seen, e.CreatedAt.UTC())
		}
		if next == "" {
			break
		}
		cursor, err = ParseCursor(next)
		require.NoError(t, err)
	}

	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		assert.True(t, seen[i].Before(seen[i-1]), "rows must be newest first")
	}
}

func TestPageTrimsBufferRow(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	type row struct {
		at time.Time
		id uuid.UUID
	}
	rows := []row{{base, uuid.New()}, {base.Add(-time.Minute), uuid.New()}, {base.Add(-2 * time.Minute), uuid.New()}}
	cursorOf := func(r row) Cursor { return Cursor{CreatedAt: r.at, ID: r.id} }

	page, next := Page(rows, 2, cursorOf)
	require.Len(t, page, 2)
	require.NotEmpty(t, next)
	parsed, err := ParseCursor(next)
	require.NoError(t, err)
	assert.Equal(t, rows[1].id, parsed.ID)

	page, next = Page(rows, 5, cursorOf)
	assert.Len(t, page, 3)
	assert.Empty(t, next)
}
