package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

func TestPublisherStoresEvents(t *testing.T) {
	t.Parallel()

	pub := New()
	id1, err := pub.Publish(context.Background(), enricher.EnrichedEvent{CompanyID: 1})
	if err != nil || id1 != "memory-1" {
		t.Fatalf("unexpected publish result id=%s err=%v", id1, err)
	}
	id2, err := pub.Publish(context.Background(), enricher.EnrichedEvent{CompanyID: 2})
	if err != nil || id2 != "memory-2" {
		t.Fatalf("unexpected publish result id=%s err=%v", id2, err)
	}

	events := pub.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].CompanyID != 1 || events[1].CompanyID != 2 {
		t.Fatalf("events not recorded in order: %+v", events)
	}

	events[0].CompanyID = 99
	if pub.Events()[0].CompanyID == 99 {
		t.Fatal("expected Events() to return a copy")
	}
}

func TestPublisherFailWith(t *testing.T) {
	t.Parallel()

	pub := New()
	boom := errors.New("topic deleted")
	pub.FailWith(boom)

	if _, err := pub.Publish(context.Background(), enricher.EnrichedEvent{}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if len(pub.Events()) != 0 {
		t.Fatal("failed publish must not be recorded")
	}
}
