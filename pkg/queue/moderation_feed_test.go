package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func newTestFeed(t *testing.T) *RedisModerationFeed {
	t.Helper()
	mr := miniredis.RunT(t)
	feed, err := NewRedisModerationFeed(ModerationFeedConfig{Addr: mr.Addr()})
	if err != nil {
		t.Fatalf("new feed: %v", err)
	}
	return feed
}

func TestModerationFeedPublishAndRecent(t *testing.T) {
	feed := newTestFeed(t)
	ctx := context.Background()

	events := []ModerationEvent{
		{BookID: "b1", OwnerID: "u1", ActorID: "u1", Action: ActionSubmitted},
		{BookID: "b1", OwnerID: "u1", ActorID: "admin-1", Action: ActionRejected, Reason: "blurry cover"},
		{BookID: "b1", OwnerID: "u1", ActorID: "u1", Action: ActionResubmitted},
	}
	for _, event := range events {
		if err := feed.Publish(ctx, event); err != nil {
			t.Fatalf("publish %s: %v", event.Action, err)
		}
	}

	recent, err := feed.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 events, got %d", len(recent))
	}
	// Newest first.
	if recent[0].Action != ActionResubmitted || recent[2].Action != ActionSubmitted {
		t.Fatalf("unexpected ordering: %+v", recent)
	}
	if recent[1].Reason != "blurry cover" {
		t.Fatalf("rejection reason should round-trip, got %q", recent[1].Reason)
	}
	for _, event := range recent {
		if event.ID == "" || event.OccurredAt.IsZero() {
			t.Fatalf("event should carry id and timestamp: %+v", event)
		}
		if time.Since(event.OccurredAt) > time.Minute {
			t.Fatalf("timestamp should be recent: %+v", event)
		}
	}
}

func TestModerationFeedValidation(t *testing.T) {
	feed := newTestFeed(t)
	ctx := context.Background()
	if err := feed.Publish(ctx, ModerationEvent{Action: ActionSubmitted}); err == nil {
		t.Fatalf("missing book id should fail")
	}
	if err := feed.Publish(ctx, ModerationEvent{BookID: "b1"}); err == nil {
		t.Fatalf("missing action should fail")
	}
	if _, err := NewRedisModerationFeed(ModerationFeedConfig{}); err == nil {
		t.Fatalf("missing addr should fail")
	}
}

func TestModerationFeedRecentZeroCount(t *testing.T) {
	feed := newTestFeed(t)
	events, err := feed.Recent(context.Background(), 0)
	if err != nil || len(events) != 0 {
		t.Fatalf("zero count should return empty slice, got %v err=%v", events, err)
	}
}
