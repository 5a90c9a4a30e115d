package enricher

import (
	"context"
	"time"
)

// RosterSource lists every company that should be enriched, in roster order.
type RosterSource interface {
	ListCompanies(ctx context.Context) ([]Company, error)
}

// Fetcher retrieves the raw body of an absolute URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor turns raw page content into a Profile.
type Extractor interface {
	Extract(ctx context.Context, content string, sourceURL string) (Profile, error)
}

// SummarySink appends one summary row per call.
type SummarySink interface {
	Insert(ctx context.Context, row SummaryRow) error
}

// CheckpointStore persists the roster offset of the next unprocessed company.
type CheckpointStore interface {
	Load(ctx context.Context) (int, error)
	Save(ctx context.Context, index int) error
}

// Notifier announces persisted profiles to downstream consumers.
type Notifier interface {
	Publish(ctx context.Context, event EnrichedEvent) (string, error)
}

// Clock returns the current time and waits between batches (useful for testing).
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
