package domain

import (
	"fmt"
	"time"
)

// Cursor marks the last model whose positions were fully collected.
// An empty Year means the traversal starts from the beginning.
type Cursor struct {
	Year  string `json:"year,omitempty"`
	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`
}

func (c Cursor) IsZero() bool {
	return c.Year == "" && c.Make == "" && c.Model == ""
}

// Label returns the cursor label recorded for a level, if any.
func (c Cursor) Label(l Level) string {
	switch l {
	case LevelYear:
		return c.Year
	case LevelMake:
		return c.Make
	case LevelModel:
		return c.Model
	default:
		return ""
	}
}

// Validate checks that deeper labels are only set together with all shallower ones.
func (c Cursor) Validate() error {
	if c.Model != "" && (c.Make == "" || c.Year == "") {
		return fmt.Errorf("cursor model %q set without year and make", c.Model)
	}
	if c.Make != "" && c.Year == "" {
		return fmt.Errorf("cursor make %q set without year", c.Make)
	}
	return nil
}

// Normalize truncates the cursor to its deepest consistent prefix.
func (c Cursor) Normalize() Cursor {
	if c.Year == "" {
		return Cursor{}
	}
	if c.Make == "" {
		return Cursor{Year: c.Year}
	}
	return c
}

func (c Cursor) String() string {
	if c.IsZero() {
		return "<start>"
	}
	s := c.Year
	if c.Make != "" {
		s += " / " + c.Make
	}
	if c.Model != "" {
		s += " / " + c.Model
	}
	return s
}

// Snapshot is the full resumable state written by the checkpoint store.
type Snapshot struct {
	Records []FitmentRecord
	Cursor  Cursor
	SavedAt time.Time
}
