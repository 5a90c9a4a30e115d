package postgres

import (
	"context"
	"fmt"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

// DefaultRosterTable is used when no table name is configured.
const DefaultRosterTable = "companies"

// RosterStore reads the company roster.
type RosterStore struct {
	db    querier
	table string
}

var _ enricher.RosterSource = (*RosterStore)(nil)

// NewRosterStore builds a roster reader over db, usually a *pgxpool.Pool.
func NewRosterStore(db querier, table string) (*RosterStore, error) {
	if missingDB(db) {
		return nil, fmt.Errorf("pool is required")
	}
	table, err := checkTable(table, DefaultRosterTable)
	if err != nil {
		return nil, err
	}
	return &RosterStore{db: db, table: table}, nil
}

// ListCompanies returns every company ordered by id. A NULL website is
// returned as an empty string.
func (s *RosterStore) ListCompanies(ctx context.Context) ([]enricher.Company, error) {
	query := fmt.Sprintf(`SELECT id, COALESCE(website, '') FROM %s ORDER BY id`, s.table)
	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	var companies []enricher.Company
	for rows.Next() {
		var c enricher.Company
		if err := rows.Scan(&c.ID, &c.Website); err != nil {
			return nil, fmt.Errorf("scan company row: %w", err)
		}
		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}
