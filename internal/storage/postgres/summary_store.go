package postgres

import (
	"context"
	"fmt"

	"github.com/JakeFAU/company-enricher/internal/enricher"
	"github.com/JakeFAU/company-enricher/internal/metrics"
)

// DefaultSummaryTable is used when no table name is configured.
const DefaultSummaryTable = "summary"

// SummaryStore appends summary rows. It never updates or deduplicates.
type SummaryStore struct {
	db    execer
	table string
}

var _ enricher.SummarySink = (*SummaryStore)(nil)

// NewSummaryStore builds a store over db, usually a *pgxpool.Pool.
func NewSummaryStore(db execer, table string) (*SummaryStore, error) {
	if missingDB(db) {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := checkTable(table, DefaultSummaryTable)
	if err != nil {
		return nil, err
	}
	return &SummaryStore{db: db, table: table}, nil
}

// Insert writes one row; any storage error is returned as *enricher.PersistenceError.
func (s *SummaryStore) Insert(ctx context.Context, row enricher.SummaryRow) error {
	query := fmt.Sprintf(`
INSERT INTO %s (
	company_id,
	company_name,
	summary,
	department,
	products,
	services,
	customer_segments,
	key_technologies,
	target_market,
	unique_value_proposition,
	pain_points
) VALUES (
	$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
)`, s.table)

	args := []any{
		row.CompanyID,
		row.CompanyName,
		row.Summary,
		row.Department,
		row.Products,
		row.Services,
		row.CustomerSegments,
		row.KeyTechnologies,
		row.TargetMarket,
		row.UniqueValueProposition,
		row.PainPoints,
	}
	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		return &enricher.PersistenceError{CompanyID: row.CompanyID, Cause: fmt.Errorf("insert summary: %w", err)}
	}
	metrics.IncRowsInserted()
	return nil
}
