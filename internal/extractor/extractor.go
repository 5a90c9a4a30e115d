package extractor

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/company-enricher/internal/enricher"
	"github.com/JakeFAU/company-enricher/internal/llm"
	"github.com/JakeFAU/company-enricher/internal/logging"
	"github.com/JakeFAU/company-enricher/internal/metrics"
)

// Config controls prompt assembly.
type Config struct {
	MaxContentChars int
	// StripHTML reduces the page to visible text before truncation.
	StripHTML bool
}

// Extractor implements enricher.Extractor on top of an llm.Generator.
type Extractor struct {
	gen    llm.Generator
	cfg    Config
	logger *zap.Logger
}

var _ enricher.Extractor = (*Extractor)(nil)

// New builds an Extractor.
func New(gen llm.Generator, cfg Config, logger *zap.Logger) (*Extractor, error) {
	if gen == nil {
		return nil, errors.New("generator is required")
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = DefaultMaxContentChars
	}
	return &Extractor{gen: gen, cfg: cfg, logger: logging.OrNop(logger).Named("extractor")}, nil
}

// Extract prompts the model with the page content and parses its reply.
// The returned profile is not validated against any schema.
func (e *Extractor) Extract(ctx context.Context, content, sourceURL string) (enricher.Profile, error) {
	if e.cfg.StripHTML {
		text, err := VisibleText(content)
		if err != nil {
			e.logger.Warn("html strip failed, using raw content", zap.String("url", sourceURL), zap.Error(err))
		} else {
			content = text
		}
	}

	start := time.Now()
	reply, err := e.gen.Generate(ctx, BuildPrompt(content, sourceURL, e.cfg.MaxContentChars))
	if err != nil {
		metrics.ObserveAttempt("extract", "error", time.Since(start))
		return nil, err
	}

	profile, err := ParseProfile(reply)
	if err != nil {
		metrics.ObserveAttempt("extract", "parse_error", time.Since(start))
		e.logger.Debug("model reply is not a JSON object", zap.String("url", sourceURL), zap.Error(err))
		return nil, err
	}
	metrics.ObserveAttempt("extract", "success", time.Since(start))
	return profile, nil
}
