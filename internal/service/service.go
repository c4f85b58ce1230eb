// Package service runs a complete harvest: resume, traverse, persist.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bulbfinder/harvester/internal/browser"
	"bulbfinder/harvester/internal/catalog"
	"bulbfinder/harvester/internal/domain"
	"bulbfinder/harvester/internal/export"
	"bulbfinder/harvester/internal/navigator"
	"bulbfinder/harvester/internal/repository"
	"bulbfinder/harvester/internal/sink"

	log "github.com/sirupsen/logrus"
)

type CheckpointStore interface {
	Load(ctx context.Context) *domain.Snapshot
	Save(ctx context.Context, snap domain.Snapshot) error
	Clear(ctx context.Context) error
}

// Summary describes a finished or interrupted harvest.
type Summary struct {
	navigator.Report
	Resumed bool
	Raw     int
	Unique  int
	Elapsed time.Duration
	// CheckpointKept is true when the run left a checkpoint to resume from.
	CheckpointKept bool
}

type Service struct {
	newSession  browser.Factory
	checkpoints CheckpointStore
	exporter    export.Exporter
	repository  repository.FitmentRepository
	catalog     *catalog.Catalog
	pacer       navigator.Pacer
	opts        navigator.Options
	now         func() time.Time
}

// NewService wires a harvest. repository may be nil when database export is disabled.
func NewService(
	newSession browser.Factory,
	checkpoints CheckpointStore,
	exporter export.Exporter,
	repository repository.FitmentRepository,
	catalog *catalog.Catalog,
	pacer navigator.Pacer,
	opts navigator.Options,
) *Service {
	return &Service{
		newSession:  newSession,
		checkpoints: checkpoints,
		exporter:    exporter,
		repository:  repository,
		catalog:     catalog,
		pacer:       pacer,
		opts:        opts,
		now:         time.Now,
	}
}

// Harvest traverses the bulb finder, resuming from the stored checkpoint.
// On cancellation it persists what was collected and returns ctx's error.
func (s *Service) Harvest(ctx context.Context) (*Summary, error) {
	started := s.now()
	records := sink.New()
	summary := &Summary{}

	var cursor domain.Cursor
	if snap := s.checkpoints.Load(ctx); snap != nil {
		records.Seed(snap.Records)
		cursor = snap.Cursor
		summary.Resumed = true
		log.Infof("🔄 Resuming after %s with %d records", cursor, len(snap.Records))
	}
	summary.Cursor = cursor
	summary.Resume = cursor

	defer func() {
		summary.Raw = records.Len()
		summary.Elapsed = s.now().Sub(started)
	}()

	session, err := s.newSession(ctx)
	if err != nil {
		summary.CheckpointKept = s.persist(ctx, records, cursor)
		return summary, fmt.Errorf("failed to start browser session: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warnf("⚠️ Failed to close browser session: %v", err)
		}
	}()

	nav := navigator.New(session, s.catalog, records, s.checkpoints, s.pacer, s.opts)
	report, runErr := nav.Run(ctx, cursor)
	summary.Report = report
	summary.Unique = len(records.Flush())

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
			log.Warn("🛑 Harvest interrupted, saving progress")
		} else {
			log.Errorf("❌ Harvest failed: %v", runErr)
		}
		summary.CheckpointKept = s.persist(ctx, records, report.Resume)
		return summary, runErr
	}

	if err := s.finalize(ctx, records, summary); err != nil {
		summary.CheckpointKept = s.persist(ctx, records, report.Resume)
		return summary, err
	}
	return summary, nil
}

// finalize writes the final export and clears the checkpoint when every year
// was traversed.
func (s *Service) finalize(ctx context.Context, records *sink.Sink, summary *Summary) error {
	ctx = context.WithoutCancel(ctx)
	unique := records.Flush()

	if err := s.exporter.Export(unique); err != nil {
		return fmt.Errorf("failed to export records: %w", err)
	}

	if s.repository != nil && len(unique) > 0 {
		saved, err := s.repository.SaveFitments(ctx, unique)
		if err != nil {
			return fmt.Errorf("failed to store records in database: %w", err)
		}
		log.Infof("🗄️ Stored %d records in database", saved)
	}

	if !summary.Complete() {
		log.Warnf("⚠️ Years %v were not fully traversed, next run resumes at %s", summary.AbortedYears, summary.Resume)
		summary.CheckpointKept = s.persist(ctx, records, summary.Resume)
		return nil
	}

	if err := s.checkpoints.Clear(ctx); err != nil {
		log.Warnf("⚠️ Failed to clean up checkpoint: %v", err)
		summary.CheckpointKept = true
	}

	log.Infof("🎉 Harvest completed: %d unique records from %d models", len(unique), summary.Models)
	return nil
}

// persist saves a checkpoint of everything collected so far. Nothing is
// written for an empty run.
func (s *Service) persist(ctx context.Context, records *sink.Sink, cursor domain.Cursor) bool {
	if records.Len() == 0 && cursor.IsZero() {
		return false
	}

	snap := domain.Snapshot{Records: records.Flush(), Cursor: cursor}
	if err := s.checkpoints.Save(context.WithoutCancel(ctx), snap); err != nil {
		log.Errorf("❌ Error saving progress: %v", err)
		return false
	}
	log.Infof("💾 Progress saved: %d records, last processed %s", len(snap.Records), cursor)
	return true
}
