// Package pagination implements newest-first keyset paging over
// (created_at, id).
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DefaultLimit = 25
	MaxLimit     = 100
)

// Params is the raw paging input from a request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor points at the last row of the previous page.
type Cursor struct {
	CreatedAt time.Time `json:"t"`
	ID        uuid.UUID `json:"id"`
}

var ErrBadCursor = errors.New("invalid cursor")

func NormalizeLimit(limit int) int {
	return NormalizeLimitWithDefault(limit, DefaultLimit)
}

// NormalizeLimitWithDefault clamps limit to MaxLimit and substitutes
// fallback (itself clamped) for non-positive values.
func NormalizeLimitWithDefault(limit, fallback int) int {
	switch {
	case limit > MaxLimit:
		return MaxLimit
	case limit > 0:
		return limit
	case fallback > 0 && fallback <= MaxLimit:
		return fallback
	default:
		return DefaultLimit
	}
}

// After is a GORM scope that orders newest first and resumes past cursor.
// Callers ask for one row more than the page size so Page can tell whether
// another page exists.
func After(cursor *Cursor, limit int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cursor != nil {
			db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
		}
		return db.Order("created_at DESC").Order("id DESC").Limit(limit)
	}
}

// Page drops the lookahead row fetched by After and returns the cursor for
// the next page, or "" on the last page.
func Page[T any](rows []T, limit int, cursorOf func(T) Cursor) ([]T, string) {
	if limit <= 0 || len(rows) <= limit {
		return rows, ""
	}
	rows = rows[:limit]
	return rows, EncodeCursor(cursorOf(rows[limit-1]))
}

func EncodeCursor(c Cursor) string {
	c.CreatedAt = c.CreatedAt.UTC()
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

// ParseCursor returns nil for a blank value.
func ParseCursor(value string) (*Cursor, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCursor, err)
	}
	if c.ID == uuid.Nil || c.CreatedAt.IsZero() {
		return nil, ErrBadCursor
	}
	return &c, nil
}
