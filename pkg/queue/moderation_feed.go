package queue

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"bookdesk/internal/util"
)

// Moderation actions recorded on the feed.
const (
	ActionSubmitted   = "submitted"
	ActionResubmitted = "resubmitted"
	ActionApproved    = "approved"
	ActionRejected    = "rejected"
	ActionDeleted     = "deleted"
)

const (
	defaultStream = "bookdesk:moderation"
	defaultMaxLen = 10000
)

// ModerationEvent is one entry in the moderation audit feed.
type ModerationEvent struct {
	ID         string    `json:"id"`
	BookID     string    `json:"bookId"`
	OwnerID    string    `json:"ownerId"`
	ActorID    string    `json:"actorId"`
	Action     string    `json:"action"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ModerationFeedConfig configures the Redis Stream feed.
type ModerationFeedConfig struct {
	Addr     string
	Password string
	Stream   string
	MaxLen   int64
}

// RedisModerationFeed publishes moderation events to a capped Redis Stream.
type RedisModerationFeed struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisModerationFeed builds the feed publisher.
func NewRedisModerationFeed(cfg ModerationFeedConfig) (*RedisModerationFeed, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("redis addr required")
	}
	stream := strings.TrimSpace(cfg.Stream)
	if stream == "" {
		stream = defaultStream
	}
	maxLen := cfg.MaxLen
	if maxLen <= 0 {
		maxLen = defaultMaxLen
	}
	return &RedisModerationFeed{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: cfg.Password,
		}),
		stream: stream,
		maxLen: maxLen,
	}, nil
}

// Publish appends the event to the stream.
func (f *RedisModerationFeed) Publish(ctx context.Context, event ModerationEvent) error {
	if strings.TrimSpace(event.BookID) == "" {
		return errors.New("book id required")
	}
	if strings.TrimSpace(event.Action) == "" {
		return errors.New("action required")
	}
	if event.ID == "" {
		event.ID = util.NewID()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	values := map[string]any{
		"id":          event.ID,
		"book_id":     event.BookID,
		"owner_id":    event.OwnerID,
		"actor_id":    event.ActorID,
		"action":      event.Action,
		"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
	}
	if event.Reason != "" {
		values["reason"] = event.Reason
	}
	return f.client.XAdd(ctx, &redis.XAddArgs{
		Stream: f.stream,
		MaxLen: f.maxLen,
		Approx: true,
		Values: values,
	}).Err()
}

// Recent returns up to count newest events, newest first.
func (f *RedisModerationFeed) Recent(ctx context.Context, count int64) ([]ModerationEvent, error) {
	if count <= 0 {
		return []ModerationEvent{}, nil
	}
	msgs, err := f.client.XRevRangeN(ctx, f.stream, "+", "-", count).Result()
	if err != nil {
		return nil, err
	}
	events := make([]ModerationEvent, 0, len(msgs))
	for _, msg := range msgs {
		events = append(events, eventFromValues(msg.Values))
	}
	return events, nil
}

func eventFromValues(values map[string]any) ModerationEvent {
	event := ModerationEvent{
		ID:      stringValue(values["id"]),
		BookID:  stringValue(values["book_id"]),
		OwnerID: stringValue(values["owner_id"]),
		ActorID: stringValue(values["actor_id"]),
		Action:  stringValue(values["action"]),
		Reason:  stringValue(values["reason"]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, stringValue(values["occurred_at"])); err == nil {
		event.OccurredAt = ts
	}
	return event
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}
