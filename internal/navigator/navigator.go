// Package navigator walks the bulb finder's dependent selects
// (year → make → model → position) and turns every leaf into a fitment record.
package navigator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bulbfinder/harvester/internal/browser"
	"bulbfinder/harvester/internal/catalog"
	"bulbfinder/harvester/internal/config"
	"bulbfinder/harvester/internal/domain"
	"bulbfinder/harvester/internal/sink"

	log "github.com/sirupsen/logrus"
)

// ErrPageLoad means the form never became usable; the run cannot proceed.
var ErrPageLoad = errors.New("bulb finder page failed to load")

type Checkpointer interface {
	Save(ctx context.Context, snap domain.Snapshot) error
}

type Options struct {
	BaseURL         string
	Controls        domain.ControlNames
	OptionTimeout   time.Duration
	MinOptions      int
	SelectAttempts  int
	SelectBackoff   time.Duration
	ModelExtraDelay time.Duration
}

func OptionsFromConfig(cfg config.ScraperConfig) Options {
	controls := domain.DefaultControlNames()
	for _, level := range domain.Levels {
		if name := cfg.Controls[level.String()]; name != "" {
			controls[level] = name
		}
	}
	return Options{
		BaseURL:         cfg.BaseURL,
		Controls:        controls,
		OptionTimeout:   config.Seconds(cfg.OptionTimeout),
		MinOptions:      cfg.MinOptions,
		SelectAttempts:  cfg.SelectAttempts,
		SelectBackoff:   config.Seconds(cfg.SelectBackoff),
		ModelExtraDelay: config.Seconds(cfg.ModelExtraDelay),
	}
}

// Report summarizes a traversal.
type Report struct {
	Models          int
	Records         int
	SkippedBranches int
	AbortedYears    []string
	Cursor          domain.Cursor // last completed model
	// Resume is where the next run has to start so nothing is left out. It
	// trails Cursor and stays inside the first abandoned year once one exists.
	Resume domain.Cursor
}

// Complete reports whether every year was traversed without being abandoned.
func (r Report) Complete() bool {
	return len(r.AbortedYears) == 0
}

type Navigator struct {
	session     browser.Session
	catalog     *catalog.Catalog
	sink        *sink.Sink
	checkpoints Checkpointer
	pacer       Pacer
	opts        Options

	state  traversalState
	resume *resumePlan
	report Report
}

func New(
	session browser.Session,
	catalog *catalog.Catalog,
	sink *sink.Sink,
	checkpoints Checkpointer,
	pacer Pacer,
	opts Options,
) *Navigator {
	if opts.SelectAttempts < 1 {
		opts.SelectAttempts = 1
	}
	if opts.MinOptions < 1 {
		opts.MinOptions = 2
	}
	if opts.Controls == nil {
		opts.Controls = domain.DefaultControlNames()
	}
	return &Navigator{
		session:     session,
		catalog:     catalog,
		sink:        sink,
		checkpoints: checkpoints,
		pacer:       pacer,
		opts:        opts,
	}
}

// Run traverses the whole tree, resuming after cursor. It returns ErrPageLoad
// when the form cannot be reached and ctx's error when cancelled; branch level
// failures are skipped and counted in the report.
func (n *Navigator) Run(ctx context.Context, cursor domain.Cursor) (Report, error) {
	n.state = traversalState{}
	n.resume = newResumePlan(cursor)
	n.report = Report{Cursor: cursor.Normalize(), Resume: cursor.Normalize()}

	err := n.run(ctx)
	if err != nil {
		n.state.transition(StateAborted)
	} else {
		n.state.transition(StateDone)
	}
	return n.report, err
}

func (n *Navigator) run(ctx context.Context) error {
	log.Infof("🌐 Loading bulb finder page %s", n.opts.BaseURL)
	if err := n.session.Navigate(ctx, n.opts.BaseURL); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	years, err := n.openLevel(ctx, domain.LevelYear)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	log.Infof("✅ Page loaded, found %d target years to scrape", len(years))

	start := n.resume.startIndex(domain.LevelYear, nil, years)
	for i := start; i < len(years); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		year := years[i]
		log.Infof("📅 Processing year: %s (%d/%d)", year.Label, i+1, len(years))
		if err := n.visitYear(ctx, year); err != nil {
			return err
		}
		log.Infof("✅ Completed year %s", year.Label)
	}
	return nil
}

func (n *Navigator) visitYear(ctx context.Context, year domain.OptionEntry) error {
	n.state.enter(domain.LevelYear, year)
	if err := n.choose(ctx, domain.LevelYear, year); err != nil {
		return n.skip(ctx, err, "failed to select year")
	}

	makes, err := n.openLevel(ctx, domain.LevelMake)
	if err != nil {
		return n.skip(ctx, err, "make options did not load")
	}
	log.Infof("Found %d makes for year %s", len(makes), year.Label)

	start := n.resume.startIndex(domain.LevelMake, n.state.labels(), makes)
	for i := start; i < len(makes); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		vehicleMake := makes[i]
		log.Infof("  🚗 Processing make: %s (%d/%d)", vehicleMake.Label, i+1, len(makes))
		if err := n.visitMake(ctx, vehicleMake); err != nil {
			return err
		}

		if i == len(makes)-1 {
			break
		}
		if err := n.recover(ctx, year); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.WithFields(n.state.fields()).Errorf("❌ Failed to refresh page, abandoning year %s: %v", year.Label, err)
			n.abandon(year)
			return nil
		}
	}
	return nil
}

func (n *Navigator) visitMake(ctx context.Context, vehicleMake domain.OptionEntry) error {
	n.state.enter(domain.LevelMake, vehicleMake)
	if err := n.choose(ctx, domain.LevelMake, vehicleMake); err != nil {
		return n.skip(ctx, err, "failed to select make")
	}

	models, err := n.openLevel(ctx, domain.LevelModel)
	if err != nil {
		return n.skip(ctx, err, "model options did not load")
	}
	log.Infof("    Found %d models for %s", len(models), vehicleMake.Label)

	start := n.resume.startIndex(domain.LevelModel, n.state.labels(), models)
	for i := start; i < len(models); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		model := models[i]
		log.Infof("    Processing model: %s (%d/%d)", model.Label, i+1, len(models))
		if err := n.visitModel(ctx, model); err != nil {
			return err
		}
	}
	return nil
}

func (n *Navigator) visitModel(ctx context.Context, model domain.OptionEntry) error {
	n.state.enter(domain.LevelModel, model)
	if err := n.choose(ctx, domain.LevelModel, model); err != nil {
		return n.skip(ctx, err, "failed to select model")
	}

	positions, err := n.openLevel(ctx, domain.LevelPosition)
	if err != nil {
		return n.skip(ctx, err, "position options did not load")
	}

	n.state.transition(StateAtPosition)
	for _, position := range positions {
		record := n.record(position)
		n.sink.Emit(record)
		n.report.Records++
		log.Debugf("      Added: %s %s %s - %s", record.Year, record.Make, record.Model, record.Position)
	}
	log.Infof("      Found %d positions for %s", len(positions), model.Label)

	n.report.Models++
	n.checkpoint(ctx)

	return n.pacer.Pause(ctx, n.opts.ModelExtraDelay)
}

// recover reloads the page and drives it back to the make select of year.
func (n *Navigator) recover(ctx context.Context, year domain.OptionEntry) error {
	log.Debug("🔄 Reloading page before next make")
	if err := n.session.Reload(ctx); err != nil {
		return err
	}

	n.state.enter(domain.LevelYear, year)
	if err := n.choose(ctx, domain.LevelYear, year); err != nil {
		return err
	}

	makeControl, err := n.session.FindControl(ctx, n.control(domain.LevelMake))
	if err != nil {
		return err
	}
	if err := n.session.WaitForOptionCount(ctx, makeControl, n.opts.MinOptions, n.opts.OptionTimeout); err != nil {
		return err
	}
	n.state.transition(StateAtMake)
	return nil
}

// openLevel locates the control for level, waits for its options to load
// (all levels but the year) and returns the selectable entries.
func (n *Navigator) openLevel(ctx context.Context, level domain.Level) ([]domain.OptionEntry, error) {
	control, err := n.session.FindControl(ctx, n.control(level))
	if err != nil {
		return nil, err
	}

	if level != domain.LevelYear {
		if err := n.session.WaitForOptionCount(ctx, control, n.opts.MinOptions, n.opts.OptionTimeout); err != nil {
			return nil, err
		}
	}

	raw, err := n.session.ListOptions(ctx, control)
	if err != nil {
		return nil, err
	}
	return n.catalog.Options(level, raw), nil
}

// choose selects entry at level, retrying with backoff, then paces.
// Each attempt locates the control again.
func (n *Navigator) choose(ctx context.Context, level domain.Level, entry domain.OptionEntry) error {
	var err error
	for attempt := 1; attempt <= n.opts.SelectAttempts; attempt++ {
		if err = n.selectOnce(ctx, level, entry.Code); err == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.WithFields(n.state.fields()).Warnf("⚠️ Attempt %d failed to select %s %q: %v", attempt, level, entry.Label, err)
		if attempt < n.opts.SelectAttempts {
			if err := sleep(ctx, n.opts.SelectBackoff); err != nil {
				return err
			}
		}
	}
	if err != nil {
		return fmt.Errorf("failed to select %s %q after %d attempts: %w", level, entry.Label, n.opts.SelectAttempts, err)
	}

	return n.pacer.Pause(ctx, 0)
}

func (n *Navigator) selectOnce(ctx context.Context, level domain.Level, code string) error {
	control, err := n.session.FindControl(ctx, n.control(level))
	if err != nil {
		return err
	}
	return n.session.Select(ctx, control, code)
}

func (n *Navigator) checkpoint(ctx context.Context) {
	path := n.state.path
	cursor := domain.Cursor{Year: path[0].Label, Make: path[1].Label, Model: path[2].Label}
	n.report.Cursor = cursor
	if n.report.Complete() {
		n.report.Resume = cursor
	}

	if n.checkpoints == nil {
		return
	}
	snap := domain.Snapshot{Records: n.sink.Flush(), Cursor: n.report.Resume}
	if err := n.checkpoints.Save(context.WithoutCancel(ctx), snap); err != nil {
		log.WithFields(n.state.fields()).Errorf("❌ Error saving progress: %v", err)
	}
}

func (n *Navigator) record(position domain.OptionEntry) domain.FitmentRecord {
	path := n.state.path
	return domain.FitmentRecord{
		Year:         path[0].Label,
		Make:         path[1].Label,
		Model:        path[2].Label,
		Position:     position.Label,
		YearCode:     path[0].Code,
		MakeCode:     path[1].Code,
		ModelCode:    path[2].Code,
		PositionCode: position.Code,
	}
}

// abandon records year as not fully traversed. The first abandoned year pins
// the resume cursor to its last completed model, or to the year itself when
// none of its models completed.
func (n *Navigator) abandon(year domain.OptionEntry) {
	if n.report.Complete() && n.report.Resume.Year != year.Label {
		n.report.Resume = domain.Cursor{Year: year.Label}
	}
	n.report.AbortedYears = append(n.report.AbortedYears, year.Label)
}

// skip turns a branch failure into a logged skip, unless the run was cancelled.
func (n *Navigator) skip(ctx context.Context, err error, what string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	n.report.SkippedBranches++
	log.WithFields(n.state.fields()).Warnf("⚠️ Skipping branch, %s: %v", what, err)
	return nil
}

func (n *Navigator) control(level domain.Level) string {
	return n.opts.Controls.For(level)
}
