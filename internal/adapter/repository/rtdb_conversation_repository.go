package repository

import (
	"context"
	"time"

	"firebase.google.com/go/v4/db"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/logger"
)

type rtdbConversationRepository struct {
	client       *db.Client
	pollInterval time.Duration
}

func NewRTDBConversationRepository(client *db.Client, pollInterval time.Duration) repository.ConversationRepository {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &rtdbConversationRepository{
		client:       client,
		pollInterval: pollInterval,
	}
}

func summaryRef(c *db.Client, ownerID, conversationID string) *db.Ref {
	return c.NewRef("userConversations/" + ownerID + "/" + conversationID)
}

func (r *rtdbConversationRepository) UpsertSummary(ctx context.Context, ownerID, conversationID string, summary entity.ConversationSummary) error {
	// Field-wise update, never a whole-record set: the unread counter lives
	// next to these fields and is owned by concurrent increments.
	updates := map[string]interface{}{
		"lastMessage":     summary.LastMessage,
		"lastMessageTime": serverTimestamp,
	}
	if summary.OtherUserID != "" {
		updates["otherUserId"] = summary.OtherUserID
		updates["otherUserName"] = summary.OtherUserName
		updates["otherUserProfilePic"] = summary.OtherUserProfilePic
	}

	if err := summaryRef(r.client, ownerID, conversationID).Update(ctx, updates); err != nil {
		return mapStoreError("update conversation summary", err)
	}
	return nil
}

func (r *rtdbConversationRepository) IncrementUnread(ctx context.Context, ownerID, conversationID string, delta int) error {
	updates := map[string]interface{}{
		"unreadCount": serverIncrement(delta),
	}
	if err := summaryRef(r.client, ownerID, conversationID).Update(ctx, updates); err != nil {
		return mapStoreError("increment unread counter", err)
	}
	return nil
}

func (r *rtdbConversationRepository) ResetUnread(ctx context.Context, ownerID, conversationID string) error {
	updates := map[string]interface{}{
		"unreadCount": 0,
	}
	if err := summaryRef(r.client, ownerID, conversationID).Update(ctx, updates); err != nil {
		return mapStoreError("reset unread counter", err)
	}
	return nil
}

func (r *rtdbConversationRepository) ListSummaries(ctx context.Context, ownerID string) (map[string]entity.ConversationSummary, error) {
	var summaries map[string]entity.ConversationSummary
	if err := r.client.NewRef("userConversations/"+ownerID).Get(ctx, &summaries); err != nil {
		return nil, mapStoreError("list conversation summaries", err)
	}
	if summaries == nil {
		summaries = make(map[string]entity.ConversationSummary)
	}
	return summaries, nil
}

// WatchSummaries polls the owner's conversation list and emits an event per
// changed entry. This is what surfaces brand-new inbound conversations to a
// running session.
func (r *rtdbConversationRepository) WatchSummaries(ctx context.Context, ownerID string) (<-chan repository.SummaryEvent, error) {
	out := make(chan repository.SummaryEvent, 16)

	go func() {
		defer close(out)

		known := make(map[string]entity.ConversationSummary)

		ticker := time.NewTicker(r.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			summaries, err := r.ListSummaries(ctx, ownerID)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("Summary poll failed for user %s: %v", ownerID, err)
				continue
			}

			for id, s := range summaries {
				if prev, ok := known[id]; ok && prev == s {
					continue
				}
				known[id] = s
				select {
				case out <- repository.SummaryEvent{ConversationID: id, Summary: s}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
