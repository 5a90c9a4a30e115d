// Package enricher defines core types shared across the enrichment pipeline.
package enricher

import "time"

// Company is a roster entry. It is read-only to the enricher.
type Company struct {
	ID      int64  `json:"id"`
	Website string `json:"website"`
}

// Profile is the loosely-typed object returned by the extraction model.
type Profile map[string]any

// Recognized profile keys.
const (
	FieldDepartment             = "department"
	FieldProducts               = "products"
	FieldServices               = "services"
	FieldCustomerSegments       = "customer_segments"
	FieldSummary                = "summary"
	FieldKeyTechnologies        = "key_technologies"
	FieldTargetMarket           = "target_market"
	FieldUniqueValueProposition = "unique_value_proposition"
	FieldPainPoints             = "pain_points"
)

// Outcome is the result of processing a single company within a batch.
type Outcome struct {
	// Index is the company's position in the full roster.
	Index       int
	CompanyID   int64
	CompanyName string
	URL         string
	Profile     Profile
	Succeeded   bool
	Attempts    int
	Err         error
}

// SummaryRow is the persisted record for one enriched company.
// Nil pointers are stored as NULL.
type SummaryRow struct {
	CompanyID              int64
	CompanyName            string
	Summary                *string
	Department             *string
	Products               *string
	Services               *string
	CustomerSegments       *string
	KeyTechnologies        *string
	TargetMarket           *string
	UniqueValueProposition *string
	PainPoints             *string
}

// RunSummary reports what a single orchestrator run did.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	Batches    int           `json:"batches"`
	Processed  int           `json:"processed"`
	Succeeded  int           `json:"succeeded"`
	Failed     int           `json:"failed"`
	Checkpoint int           `json:"checkpoint"`
	Duration   time.Duration `json:"duration"`
}

// EnrichedEvent is published after a summary row has been written.
type EnrichedEvent struct {
	RunID       string    `json:"run_id"`
	CompanyID   int64     `json:"company_id"`
	CompanyName string    `json:"company_name"`
	Timestamp   time.Time `json:"timestamp"`
}
