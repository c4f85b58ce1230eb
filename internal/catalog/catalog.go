// Package catalog turns the raw <option> lists of the bulb finder form into
// selectable entries.
package catalog

import (
	"strconv"
	"strings"

	"bulbfinder/harvester/internal/domain"
)

const DefaultPlaceholder = "Please Select"

type Catalog struct {
	placeholder string
	minYear     int
	maxYear     int
}

// New returns a Catalog keeping years within [minYear, maxYear].
func New(placeholder string, minYear, maxYear int) *Catalog {
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	return &Catalog{
		placeholder: placeholder,
		minYear:     minYear,
		maxYear:     maxYear,
	}
}

// Options filters raw options for a level, preserving the control's order.
func (c *Catalog) Options(level domain.Level, raw []domain.RawOption) []domain.OptionEntry {
	entries := make([]domain.OptionEntry, 0, len(raw))
	for _, opt := range raw {
		code := strings.TrimSpace(opt.Value)
		label := strings.TrimSpace(opt.Text)
		if code == "" || label == "" || label == c.placeholder {
			continue
		}
		if level == domain.LevelYear && !c.inYearRange(label) {
			continue
		}
		entries = append(entries, domain.OptionEntry{Code: code, Label: label})
	}
	return entries
}

func (c *Catalog) inYearRange(label string) bool {
	year, err := strconv.Atoi(label)
	if err != nil {
		return false
	}
	return year >= c.minYear && year <= c.maxYear
}
