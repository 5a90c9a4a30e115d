// Package worker runs fetch and extract for a single company.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/company-enricher/internal/enricher"
	"github.com/JakeFAU/company-enricher/internal/logging"
	"github.com/JakeFAU/company-enricher/internal/metrics"
)

// DefaultRetryDelay separates attempts when Config.RetryDelay is zero.
const DefaultRetryDelay = 2 * time.Second

// Outcome labels recorded by the companies counter.
const (
	OutcomeSuccess      = "success"
	OutcomeFetchError   = "fetch_error"
	OutcomeExtractError = "extract_error"
	OutcomeParseError   = "parse_error"
	OutcomeMissingURL   = "missing_url"
	OutcomeCanceled     = "canceled"
	OutcomePanic        = "panic"
	OutcomeError        = "error"
)

// ErrMissingWebsite marks a roster entry without a website.
var ErrMissingWebsite = errors.New("company has no website")

// Config controls Worker behavior.
type Config struct {
	// MaxRetries is the number of extra attempts after the first one fails.
	MaxRetries int
	RetryDelay time.Duration
}

// Worker fetches a company website and extracts its profile.
type Worker struct {
	fetcher   enricher.Fetcher
	extractor enricher.Extractor
	clock     enricher.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Worker.
func New(
	fetcher enricher.Fetcher,
	extractor enricher.Extractor,
	clock enricher.Clock,
	cfg Config,
	logger *zap.Logger,
) (*Worker, error) {
	if fetcher == nil {
		return nil, errors.New("worker: fetcher is required")
	}
	if extractor == nil {
		return nil, errors.New("worker: extractor is required")
	}
	if clock == nil {
		return nil, errors.New("worker: clock is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("worker: max retries must be >= 0, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}
	return &Worker{
		fetcher:   fetcher,
		extractor: extractor,
		clock:     clock,
		cfg:       cfg,
		logger:    logging.OrNop(logger),
	}, nil
}

// Process enriches one company. It never returns an error: every failure,
// including a panic in a collaborator, is reported through the Outcome.
func (w *Worker) Process(ctx context.Context, index int, company enricher.Company) (outcome enricher.Outcome) {
	url := enricher.NormalizeURL(company.Website)
	outcome = enricher.Outcome{
		Index:       index,
		CompanyID:   company.ID,
		CompanyName: enricher.DisplayName(company.Website),
		URL:         url,
	}
	fields := logging.Company(outcome.CompanyID, outcome.CompanyName, url)
	logger := w.logger.With(fields...)

	metrics.IncActiveWorkers()
	defer metrics.DecActiveWorkers()
	defer func() {
		if r := recover(); r != nil {
			outcome.Succeeded = false
			outcome.Profile = nil
			outcome.Err = fmt.Errorf("worker panic: %v", r)
			logger.Error("worker panicked", zap.Any("panic", r))
			metrics.ObserveCompany(url, OutcomePanic)
		}
	}()

	if url == "" {
		outcome.Err = &enricher.FetchError{Cause: ErrMissingWebsite}
		logger.Warn("skipping company without website")
		metrics.ObserveCompany(url, OutcomeMissingURL)
		return outcome
	}

	logger.Info("processing company")
	maxAttempts := w.cfg.MaxRetries + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		outcome.Attempts = attempt
		profile, err := w.attempt(ctx, url)
		if err == nil {
			outcome.Profile = profile
			outcome.Succeeded = true
			outcome.Err = nil
			logger.Info("company enriched", zap.Int("attempt", attempt))
			metrics.ObserveCompany(url, OutcomeSuccess)
			return outcome
		}
		outcome.Err = err
		logger.Warn("attempt failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err),
		)
		if attempt == maxAttempts || ctx.Err() != nil {
			break
		}
		if err := w.clock.Sleep(ctx, w.cfg.RetryDelay); err != nil {
			break
		}
	}

	label := classify(ctx, outcome.Err)
	logger.Error("skipping company after exhausted retries",
		zap.Int("attempts", outcome.Attempts),
		zap.String("reason", label),
		zap.Error(outcome.Err),
	)
	metrics.ObserveCompany(url, label)
	return outcome
}

func (w *Worker) attempt(ctx context.Context, url string) (enricher.Profile, error) {
	body, err := w.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	profile, err := w.extractor.Extract(ctx, body, url)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func classify(ctx context.Context, err error) string {
	var (
		fetchErr   *enricher.FetchError
		extractErr *enricher.ExtractionError
		parseErr   *enricher.ParseError
	)
	switch {
	case ctx.Err() != nil:
		return OutcomeCanceled
	case errors.As(err, &fetchErr):
		return OutcomeFetchError
	case errors.As(err, &parseErr):
		return OutcomeParseError
	case errors.As(err, &extractErr):
		return OutcomeExtractError
	default:
		return OutcomeError
	}
}
