// Package memory contains an in-memory notifier for tests and dry runs.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

// Publisher stores published events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []enricher.EnrichedEvent
	err    error
}

var _ enricher.Notifier = (*Publisher)(nil)

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// FailWith makes every subsequent Publish return err. Used by tests to
// simulate an unavailable topic.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Publish records the event and returns a pseudo ID.
func (p *Publisher) Publish(_ context.Context, event enricher.EnrichedEvent) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return "", p.err
	}
	p.events = append(p.events, event)
	return fmt.Sprintf("memory-%d", len(p.events)), nil
}

// Events returns the recorded events.
func (p *Publisher) Events() []enricher.EnrichedEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]enricher.EnrichedEvent, len(p.events))
	copy(out, p.events)
	return out
}
