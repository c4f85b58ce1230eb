// Package checkpoint persists the resumable state of a harvest: the records
// collected so far and the cursor of the last completed model.
package checkpoint

import (
	"context"
	"errors"
	"time"

	"bulbfinder/harvester/internal/domain"
	"bulbfinder/harvester/internal/export"

	log "github.com/sirupsen/logrus"
)

type Store struct {
	backend  Backend
	exporter export.Exporter
	now      func() time.Time
}

// NewStore returns a Store over backend. When exporter is non-nil every save
// also refreshes the tabular export as a backup.
func NewStore(backend Backend, exporter export.Exporter) *Store {
	return &Store{
		backend:  backend,
		exporter: exporter,
		now:      time.Now,
	}
}

// Load returns the stored snapshot, or nil when there is nothing usable to
// resume from. A missing or corrupt checkpoint is never an error.
func (s *Store) Load(ctx context.Context) *domain.Snapshot {
	data, err := s.backend.Read(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Errorf("❌ Error loading progress from %s: %v", s.backend.Location(), err)
		}
		return nil
	}

	snap, err := decodeSnapshot(data)
	if err != nil {
		log.Errorf("❌ Ignoring corrupt checkpoint %s: %v", s.backend.Location(), err)
		return nil
	}

	if err := snap.Cursor.Validate(); err != nil {
		normalized := snap.Cursor.Normalize()
		log.Warnf("⚠️ Inconsistent checkpoint cursor (%v), resuming from %s", err, normalized)
		snap.Cursor = normalized
	}

	log.Infof("📂 Loaded %d records from previous session (last processed: %s)", len(snap.Records), snap.Cursor)
	return snap
}

// Save writes the whole snapshot. Cancellation of ctx does not interrupt the write.
func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	ctx = context.WithoutCancel(ctx)

	if snap.SavedAt.IsZero() {
		snap.SavedAt = s.now()
	}

	data, err := encodeSnapshot(snap)
	if err != nil {
		return err
	}

	if err := s.backend.Write(ctx, data); err != nil {
		return err
	}
	log.Debugf("Checkpoint saved to %s: %d records, cursor %s", s.backend.Location(), len(snap.Records), snap.Cursor)

	if s.exporter != nil {
		if err := s.exporter.Export(snap.Records); err != nil {
			log.Errorf("❌ Error saving backup export: %v", err)
		}
	}
	return nil
}

// Clear removes the checkpoint after a fully successful run.
func (s *Store) Clear(ctx context.Context) error {
	err := s.backend.Remove(ctx)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	log.Info("🧹 Cleaned up progress checkpoint")
	return nil
}

// Location describes where the checkpoint lives.
func (s *Store) Location() string {
	return s.backend.Location()
}
