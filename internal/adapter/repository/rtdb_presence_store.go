package repository

import (
	"context"
	"sort"

	"firebase.google.com/go/v4/db"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
)

type rtdbPresenceStore struct {
	client *db.Client
}

func NewRTDBPresenceStore(client *db.Client) repository.PresenceStore {
	return &rtdbPresenceStore{client: client}
}

func (s *rtdbPresenceStore) SetOnline(ctx context.Context, userID string, online bool) error {
	updates := map[string]interface{}{
		"isOnline": online,
		"lastSeen": serverTimestamp,
	}
	if err := s.client.NewRef("status/"+userID).Update(ctx, updates); err != nil {
		return mapStoreError("write presence", err)
	}
	return nil
}

func (s *rtdbPresenceStore) ListOnline(ctx context.Context) ([]string, error) {
	nodes, err := s.client.NewRef("status").OrderByChild("isOnline").EqualTo(true).GetOrdered(ctx)
	if err != nil {
		return nil, mapStoreError("list online users", err)
	}

	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.Key())
	}
	sort.Strings(ids)
	return ids, nil
}
