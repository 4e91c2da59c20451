package repository

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/db"
	"firebase.google.com/go/v4/errorutils"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/logger"
)

// serverTimestamp and serverIncrement are RTDB server values: the backend
// resolves them atomically at write time, which keeps concurrent writers
// commutative without read-modify-write.
var serverTimestamp = map[string]interface{}{".sv": "timestamp"}

func serverIncrement(delta int) map[string]interface{} {
	return map[string]interface{}{".sv": map[string]interface{}{"increment": delta}}
}

type rtdbMessageStore struct {
	client       *db.Client
	pollInterval time.Duration
}

func NewRTDBMessageStore(client *db.Client, pollInterval time.Duration) repository.MessageStore {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &rtdbMessageStore{
		client:       client,
		pollInterval: pollInterval,
	}
}

func scopePath(scope entity.Scope) string {
	switch scope.Kind {
	case entity.ScopePrivate:
		return "privateMessages/" + scope.ID
	case entity.ScopeGroup:
		return "groupMessages/" + scope.ID
	default:
		return "messages/global"
	}
}

func (s *rtdbMessageStore) Append(ctx context.Context, scope entity.Scope, message *entity.Message) (string, error) {
	if message.ID != "" || message.Timestamp != 0 {
		return "", errors.BadRequest("Message key and timestamp are assigned by the store", nil)
	}
	if err := message.Validate(); err != nil {
		return "", errors.BadRequest("Invalid message", err)
	}

	payload := map[string]interface{}{
		"senderId":   message.SenderID,
		"senderName": message.SenderName,
		"message":    message.Body,
		"type":       string(message.Type),
		"timestamp":  serverTimestamp,
	}
	if message.SenderProfilePicture != "" {
		payload["senderProfilePicture"] = message.SenderProfilePicture
	}
	if message.LinkPreview != nil {
		payload["linkPreview"] = message.LinkPreview
	}
	if scope.Kind == entity.ScopePrivate {
		payload["receiverId"] = message.ReceiverID
		payload["read"] = false
	}

	ref, err := s.client.NewRef(scopePath(scope)).Push(ctx, payload)
	if err != nil {
		return "", mapStoreError("append message", err)
	}

	return ref.Key, nil
}

func (s *rtdbMessageStore) FetchRecent(ctx context.Context, scope entity.Scope, limit int) ([]entity.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	nodes, err := s.client.NewRef(scopePath(scope)).OrderByKey().LimitToLast(limit).GetOrdered(ctx)
	if err != nil {
		return nil, mapStoreError("fetch recent messages", err)
	}

	messages := make([]entity.Message, 0, len(nodes))
	for _, node := range nodes {
		var m entity.Message
		if err := node.Unmarshal(&m); err != nil {
			logger.Warn("Skipping malformed message %s in %s: %v", node.Key(), scope.Key(), err)
			continue
		}
		m.ID = node.Key()
		if err := m.Validate(); err != nil {
			logger.Warn("Skipping invalid message %s in %s: %v", m.ID, scope.Key(), err)
			continue
		}
		messages = append(messages, m)
	}

	return messages, nil
}

// SubscribeNew polls the scope's log in append (push key) order. The admin
// SDK has no streaming listener, so the live tail is a StartAt(lastKey)
// query on a fixed interval.
func (s *rtdbMessageStore) SubscribeNew(ctx context.Context, scope entity.Scope, tailLimit int) (<-chan entity.Message, error) {
	if tailLimit <= 0 {
		tailLimit = 50
	}

	out := make(chan entity.Message, tailLimit)

	go func() {
		defer close(out)

		lastKey := ""
		seed, err := s.FetchRecent(ctx, scope, tailLimit)
		if err != nil {
			logger.Warn("Initial load failed for %s: %v", scope.Key(), err)
		}
		for _, m := range seed {
			select {
			case out <- m:
				lastKey = m.ID
			case <-ctx.Done():
				return
			}
		}

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			query := s.client.NewRef(scopePath(scope)).OrderByKey()
			if lastKey != "" {
				query = query.StartAt(lastKey)
			} else {
				query = query.LimitToLast(tailLimit)
			}

			nodes, err := query.GetOrdered(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				logger.Warn("Poll failed for %s: %v", scope.Key(), err)
				continue
			}

			for _, node := range nodes {
				if node.Key() == lastKey {
					continue
				}
				var m entity.Message
				if err := node.Unmarshal(&m); err != nil {
					logger.Warn("Skipping malformed message %s in %s: %v", node.Key(), scope.Key(), err)
					lastKey = node.Key()
					continue
				}
				m.ID = node.Key()
				if err := m.Validate(); err != nil {
					logger.Warn("Skipping invalid message %s in %s: %v", m.ID, scope.Key(), err)
					lastKey = m.ID
					continue
				}
				select {
				case out <- m:
					lastKey = m.ID
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *rtdbMessageStore) MarkRead(ctx context.Context, scope entity.Scope, viewerID string, messageIDs []string) error {
	if len(messageIDs) == 0 || scope.Kind == entity.ScopeGlobal {
		return nil
	}

	// One multi-path update: setting read=true (or readBy/<viewer>=true) is
	// idempotent, so re-marking already-read ids is harmless.
	updates := make(map[string]interface{}, len(messageIDs))
	for _, id := range messageIDs {
		switch scope.Kind {
		case entity.ScopePrivate:
			updates[fmt.Sprintf("%s/read", id)] = true
		case entity.ScopeGroup:
			updates[fmt.Sprintf("%s/readBy/%s", id, viewerID)] = true
		}
	}

	if err := s.client.NewRef(scopePath(scope)).Update(ctx, updates); err != nil {
		return mapStoreError("mark messages read", err)
	}
	return nil
}

func mapStoreError(op string, err error) error {
	switch {
	case errorutils.IsPermissionDenied(err) || errorutils.IsUnauthenticated(err):
		return errors.PermissionDenied(fmt.Sprintf("Backend rejected %s", op), err)
	case errorutils.IsNotFound(err):
		return errors.NotFound("Record", err)
	default:
		return errors.StoreUnavailable(fmt.Sprintf("Failed to %s", op), err)
	}
}
