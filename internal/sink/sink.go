// Package sink accumulates emitted fitment records for a run.
package sink

import "bulbfinder/harvester/internal/domain"

// Sink keeps every emitted record in arrival order. Duplicates are kept until
// Flush; a resumed branch legitimately re-emits records from a previous session.
// The navigator is the only writer, the finalize step the only reader.
type Sink struct {
	records []domain.FitmentRecord
}

func New() *Sink {
	return &Sink{}
}

// Seed restores records loaded from a checkpoint.
func (s *Sink) Seed(records []domain.FitmentRecord) {
	s.records = append(s.records, records...)
}

func (s *Sink) Emit(record domain.FitmentRecord) {
	s.records = append(s.records, record)
}

// Len returns the raw number of emitted records, duplicates included.
func (s *Sink) Len() int {
	return len(s.records)
}

// Flush returns the unique records in first-seen order.
func (s *Sink) Flush() []domain.FitmentRecord {
	return domain.Unique(s.records)
}
