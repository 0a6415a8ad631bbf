package events_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bionicotaku/lingo-services-feed/internal/models/events"
	"github.com/google/uuid"
	json "github.com/goccy/go-json"
)

func TestNewEngagementEvent(t *testing.T) {
	now := time.Date(2025, 10, 24, 12, 0, 0, 0, time.FixedZone("UTC+8", 8*3600))
	evtID := uuid.New()

	evt, err := events.NewEngagementEvent(events.KindLiked, "user-1", evtID, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evt.Type != "feed.content.liked" {
		t.Fatalf("unexpected event type: %s", evt.Type)
	}
	if evt.OccurredAt.Location() != time.UTC {
		t.Fatalf("occurred_at should be UTC: %s", evt.OccurredAt)
	}
	if !evt.OccurredAt.Equal(now) {
		t.Fatalf("occurred_at mismatch: got %s want %s", evt.OccurredAt, now)
	}
}

func TestNewEngagementEventValidation(t *testing.T) {
	now := time.Now()
	if _, err := events.NewEngagementEvent(events.KindUnknown, "u", uuid.New(), now); !errors.Is(err, events.ErrUnknownEventKind) {
		t.Fatalf("expected ErrUnknownEventKind, got %v", err)
	}
	if _, err := events.NewEngagementEvent(events.KindWatched, "u", uuid.Nil, now); !errors.Is(err, events.ErrInvalidEventID) {
		t.Fatalf("expected ErrInvalidEventID, got %v", err)
	}
	if _, err := events.NewEngagementEvent(events.KindWatched, "", uuid.New(), now); !errors.Is(err, events.ErrMissingUser) {
		t.Fatalf("expected ErrMissingUser, got %v", err)
	}
}

func TestKindStringCoversAllKinds(t *testing.T) {
	seen := map[string]events.Kind{}
	for k := events.KindFollowed; k <= events.KindSessionReset; k++ {
		name := k.String()
		if name == "feed.unknown" {
			t.Fatalf("kind %d has no name", k)
		}
		if prev, dup := seen[name]; dup {
			t.Fatalf("kinds %d and %d share name %s", prev, k, name)
		}
		seen[name] = k
	}
}

func TestBuildAttributesAndPayload(t *testing.T) {
	evt, err := events.NewEngagementEvent(events.KindWatched, "user-9", uuid.New(), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	evt.ContentID = "v1"
	evt.Delta = 30 * time.Second

	attrs := events.BuildAttributes(evt, "", "trace-abc")
	if attrs["schema_version"] != events.SchemaVersionV1 {
		t.Fatalf("unexpected schema version: %s", attrs["schema_version"])
	}
	if attrs["aggregate_id"] != "user-9" || attrs["event_type"] != "feed.content.watched" {
		t.Fatalf("unexpected attributes: %+v", attrs)
	}
	if attrs["trace_id"] != "trace-abc" {
		t.Fatalf("trace id missing")
	}
	if attrs["occurred_at"] != "2025-01-01T00:00:00Z" {
		t.Fatalf("unexpected occurred_at: %s", attrs["occurred_at"])
	}

	payload, err := events.MarshalPayload(evt)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if decoded["content_id"] != "v1" {
		t.Fatalf("content_id missing from payload: %s", payload)
	}
	if _, ok := decoded["creator_id"]; ok {
		t.Fatalf("empty creator_id should be omitted: %s", payload)
	}
}

func TestTraceIDFromContextWithoutSpan(t *testing.T) {
	if got := events.TraceIDFromContext(context.Background()); got != "" {
		t.Fatalf("expected empty trace id, got %s", got)
	}
}
