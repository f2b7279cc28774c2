package store

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Status values for a todo. The numeric values are part of the wire
// contract — the browser client indexes its status labels by them.
const (
	StatusOpen       = 0
	StatusInProgress = 1
	StatusDone       = 2
)

// minTitleLen is the minimum title length after trimming, in runes.
const minTitleLen = 3

// Todo is the single persisted entity. ID is assigned by the store on
// Insert and immutable afterwards. The wire name "_id" is what the
// browser client expects.
type Todo struct {
	ID     string    `json:"_id,omitempty" gorm:"primaryKey"`
	Title  string    `json:"title" gorm:"not null"`
	Due    time.Time `json:"due"`
	Status int       `json:"status"`
}

// Validate checks the writable fields before a write is attempted.
// It trims Title in place so the stored document never carries
// surrounding whitespace.
func (t *Todo) Validate() error {
	t.Title = strings.TrimSpace(t.Title)
	if utf8.RuneCountInString(t.Title) < minTitleLen {
		return fmt.Errorf("title must be at least %d characters", minTitleLen)
	}
	if t.Status < StatusOpen || t.Status > StatusDone {
		return fmt.Errorf("status must be %d (open), %d (in progress) or %d (done)",
			StatusOpen, StatusInProgress, StatusDone)
	}
	return nil
}
