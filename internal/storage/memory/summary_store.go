// Package memory holds in-process roster and summary stores for development
// runs and tests.
package memory

import (
	"context"
	"sync"

	"github.com/JakeFAU/company-enricher/internal/enricher"
	"github.com/JakeFAU/company-enricher/internal/metrics"
)

// SummaryStore appends rows to a slice, preserving insertion order.
type SummaryStore struct {
	mu     sync.RWMutex
	rows   []enricher.SummaryRow
	failOn map[int64]error
}

var _ enricher.SummarySink = (*SummaryStore)(nil)

// NewSummaryStore constructs an empty SummaryStore.
func NewSummaryStore() *SummaryStore {
	return &SummaryStore{failOn: make(map[int64]error)}
}

// FailOn makes inserts for companyID fail with err. Used by tests to
// simulate storage failures.
func (s *SummaryStore) FailOn(companyID int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[companyID] = err
}

// Insert appends row.
func (s *SummaryStore) Insert(_ context.Context, row enricher.SummaryRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failOn[row.CompanyID]; ok {
		return &enricher.PersistenceError{CompanyID: row.CompanyID, Cause: err}
	}
	s.rows = append(s.rows, row)
	metrics.IncRowsInserted()
	return nil
}

// Rows returns a copy of every inserted row in insertion order.
func (s *SummaryStore) Rows() []enricher.SummaryRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]enricher.SummaryRow(nil), s.rows...)
}
