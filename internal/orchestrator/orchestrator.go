// Package orchestrator drives the roster through fixed-size, rate-paced batches.
//
// Each batch runs one worker per company, joins them, persists the successes in
// roster order, then advances the checkpoint. At most one batch starts per
// rate-limit window.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/company-enricher/internal/enricher"
	"github.com/JakeFAU/company-enricher/internal/logging"
	"github.com/JakeFAU/company-enricher/internal/metrics"
)

// Defaults applied when Config fields are zero.
const (
	DefaultBatchSize = 13
	DefaultWindow    = 60 * time.Second
)

// Processor enriches one company. Implementations report failures through the
// Outcome and must not return early without filling it.
type Processor interface {
	Process(ctx context.Context, index int, company enricher.Company) enricher.Outcome
}

// Config controls batching and pacing.
type Config struct {
	BatchSize int
	// Window is the minimum spacing between batch starts.
	Window time.Duration
}

// Deps bundles the collaborators of an Orchestrator. Notifier is optional.
type Deps struct {
	Roster     enricher.RosterSource
	Processor  Processor
	Sink       enricher.SummarySink
	Checkpoint enricher.CheckpointStore
	Notifier   enricher.Notifier
	Clock      enricher.Clock
	IDs        enricher.IDGenerator
}

// Orchestrator runs the batch loop.
type Orchestrator struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger

	mu       sync.RWMutex
	progress Progress
}

// New validates deps and applies defaults.
func New(deps Deps, cfg Config, logger *zap.Logger) (*Orchestrator, error) {
	switch {
	case deps.Roster == nil:
		return nil, errors.New("orchestrator: roster source is required")
	case deps.Processor == nil:
		return nil, errors.New("orchestrator: processor is required")
	case deps.Sink == nil:
		return nil, errors.New("orchestrator: summary sink is required")
	case deps.Checkpoint == nil:
		return nil, errors.New("orchestrator: checkpoint store is required")
	case deps.Clock == nil:
		return nil, errors.New("orchestrator: clock is required")
	case deps.IDs == nil:
		return nil, errors.New("orchestrator: id generator is required")
	}
	if cfg.BatchSize < 0 || cfg.Window < 0 {
		return nil, fmt.Errorf("orchestrator: invalid config %+v", cfg)
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	return &Orchestrator{
		deps:     deps,
		cfg:      cfg,
		logger:   logging.OrNop(logger).Named("orchestrator"),
		progress: Progress{State: StateIdle},
	}, nil
}

// Run processes every company from the checkpoint to the end of the roster.
// Per-company failures are logged and skipped; a persistence or checkpoint
// failure aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (enricher.RunSummary, error) {
	runStart := o.deps.Clock.Now()
	runID, err := o.deps.IDs.NewID()
	if err != nil {
		return enricher.RunSummary{}, fmt.Errorf("generate run id: %w", err)
	}
	summary := enricher.RunSummary{RunID: runID}
	logger := o.logger.With(zap.String("run_id", runID))
	o.update(func(p *Progress) {
		*p = Progress{RunID: runID, State: StateLoading, StartedAt: runStart}
	})

	finish := func(err error) (enricher.RunSummary, error) {
		summary.Duration = o.deps.Clock.Now().Sub(runStart)
		state := StateDone
		if err != nil {
			state = StateFailed
		}
		o.update(func(p *Progress) { p.State = state })
		return summary, err
	}

	roster, err := o.deps.Roster.ListCompanies(ctx)
	if err != nil {
		return finish(fmt.Errorf("load roster: %w", err))
	}
	idx, err := o.deps.Checkpoint.Load(ctx)
	if err != nil {
		return finish(fmt.Errorf("load checkpoint: %w", err))
	}
	summary.Checkpoint = idx
	metrics.SetCheckpoint(idx)
	o.update(func(p *Progress) {
		p.RosterSize = len(roster)
		p.Checkpoint = idx
		p.State = StateProcessing
	})

	if idx >= len(roster) {
		logger.Info("nothing to process", zap.Int("checkpoint", idx), zap.Int("roster_size", len(roster)))
		return finish(nil)
	}
	logger.Info("starting run",
		zap.Int("checkpoint", idx),
		zap.Int("roster_size", len(roster)),
		zap.Int("batch_size", o.cfg.BatchSize),
		zap.Duration("window", o.cfg.Window),
	)

	for idx < len(roster) {
		batchStart := o.deps.Clock.Now()
		end := min(idx+o.cfg.BatchSize, len(roster))
		summary.Batches++
		batchLogger := logger.With(logging.Batch(summary.Batches, idx, end)...)

		outcomes := o.dispatch(ctx, idx, roster[idx:end])
		if err := ctx.Err(); err != nil {
			batchLogger.Warn("run canceled; batch discarded before persistence", zap.Error(err))
			return finish(fmt.Errorf("batch %d: %w", summary.Batches, err))
		}

		succeeded, err := o.persist(ctx, runID, outcomes, batchLogger)
		if err != nil {
			return finish(err)
		}
		failed := len(outcomes) - succeeded
		summary.Processed += len(outcomes)
		summary.Succeeded += succeeded
		summary.Failed += failed

		idx = end
		if err := o.deps.Checkpoint.Save(ctx, idx); err != nil {
			return finish(fmt.Errorf("save checkpoint %d: %w", idx, err))
		}
		summary.Checkpoint = idx
		metrics.SetCheckpoint(idx)
		o.update(func(p *Progress) {
			p.Checkpoint = idx
			p.Batches = summary.Batches
			p.Succeeded = summary.Succeeded
			p.Failed = summary.Failed
		})

		elapsed := o.deps.Clock.Now().Sub(batchStart)
		metrics.ObserveBatch(elapsed)
		wait := time.Duration(0)
		if idx < len(roster) {
			wait = o.cfg.Window - elapsed
		}
		batchLogger.Info("batch complete",
			zap.Int("succeeded", succeeded),
			zap.Int("failed", failed),
			zap.Duration("elapsed", elapsed),
			zap.Duration("wait", max(wait, 0)),
		)
		if wait > 0 {
			o.update(func(p *Progress) { p.State = StatePacing })
			metrics.ObservePacingWait(wait)
			if err := o.deps.Clock.Sleep(ctx, wait); err != nil {
				return finish(fmt.Errorf("pacing wait: %w", err))
			}
			o.update(func(p *Progress) { p.State = StateProcessing })
		}
	}

	logger.Info("run complete",
		zap.Int("batches", summary.Batches),
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Int("checkpoint", summary.Checkpoint),
	)
	return finish(nil)
}

// dispatch runs one worker per company. Each goroutine owns exactly one slot.
func (o *Orchestrator) dispatch(ctx context.Context, offset int, batch []enricher.Company) []enricher.Outcome {
	slots := make([]enricher.Outcome, len(batch))
	var g errgroup.Group
	for i, company := range batch {
		g.Go(func() error {
			slots[i] = o.deps.Processor.Process(ctx, offset+i, company)
			return nil
		})
	}
	// Workers never return an error; Wait is only the join barrier.
	_ = g.Wait()
	return slots
}

// persist writes successes in ascending roster order and returns how many were stored.
func (o *Orchestrator) persist(
	ctx context.Context,
	runID string,
	outcomes []enricher.Outcome,
	logger *zap.Logger,
) (int, error) {
	stored := 0
	for _, out := range outcomes {
		fields := logging.Company(out.CompanyID, out.CompanyName, out.URL)
		if !out.Succeeded {
			logger.Info("company skipped", append(fields, zap.Error(out.Err))...)
			continue
		}
		row, err := enricher.NormalizeProfile(out.CompanyID, out.CompanyName, out.Profile)
		if err != nil {
			logger.Warn("company skipped: profile not storable", append(fields, zap.Error(err))...)
			continue
		}
		if err := o.deps.Sink.Insert(ctx, row); err != nil {
			var pe *enricher.PersistenceError
			if !errors.As(err, &pe) {
				err = &enricher.PersistenceError{CompanyID: out.CompanyID, Cause: err}
			}
			logger.Error("persist summary failed", append(fields, zap.Error(err))...)
			return stored, err
		}
		stored++
		o.notify(ctx, runID, out, logger)
	}
	return stored, nil
}

func (o *Orchestrator) notify(ctx context.Context, runID string, out enricher.Outcome, logger *zap.Logger) {
	if o.deps.Notifier == nil {
		return
	}
	event := enricher.EnrichedEvent{
		RunID:       runID,
		CompanyID:   out.CompanyID,
		CompanyName: out.CompanyName,
		Timestamp:   o.deps.Clock.Now(),
	}
	if _, err := o.deps.Notifier.Publish(ctx, event); err != nil {
		logger.Warn("publish enriched event failed",
			append(logging.Company(out.CompanyID, out.CompanyName, out.URL), zap.Error(err))...)
	}
}
