package repository

import (
	"context"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
)

// MessageStore is the append-only per-scope message log. Keys and timestamps
// are assigned by the backend on append; per-scope append order is preserved
// and surfaced unmodified to subscribers.
type MessageStore interface {
	// Append inserts the message and returns its server-assigned key. The
	// submitted message must not pre-set ID or Timestamp.
	Append(ctx context.Context, scope entity.Scope, message *entity.Message) (string, error)

	// SubscribeNew delivers the last tailLimit existing messages, then every
	// newly appended one, in append order, until ctx is cancelled. The
	// returned channel is closed on cancellation; in-flight deliveries after
	// cancel are discarded.
	SubscribeNew(ctx context.Context, scope entity.Scope, tailLimit int) (<-chan entity.Message, error)

	// FetchRecent returns the most recent limit messages, oldest first.
	FetchRecent(ctx context.Context, scope entity.Scope, limit int) ([]entity.Message, error)

	// MarkRead flags the given messages as read by viewerID. Idempotent; a
	// no-op for already-read ids.
	MarkRead(ctx context.Context, scope entity.Scope, viewerID string, messageIDs []string) error
}

// SummaryEvent is one change observed on a user's conversation list.
type SummaryEvent struct {
	ConversationID string
	Summary        entity.ConversationSummary
}

// ConversationRepository keeps the denormalized per-user conversation
// summaries. Increments must be commutative at the store layer so concurrent
// writers (other devices, the other participant) stay correct.
type ConversationRepository interface {
	UpsertSummary(ctx context.Context, ownerID, conversationID string, summary entity.ConversationSummary) error

	// IncrementUnread applies an atomic server-side increment to the owner's
	// unread counter for the conversation.
	IncrementUnread(ctx context.Context, ownerID, conversationID string, delta int) error

	// ResetUnread zeroes the persisted counter. Safe when already zero.
	ResetUnread(ctx context.Context, ownerID, conversationID string) error

	ListSummaries(ctx context.Context, ownerID string) (map[string]entity.ConversationSummary, error)

	// WatchSummaries streams summary changes for the owner's conversation
	// list until ctx is cancelled.
	WatchSummaries(ctx context.Context, ownerID string) (<-chan SummaryEvent, error)
}
