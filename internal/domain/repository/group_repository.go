package repository

import (
	"context"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
)

type GroupRepository interface {
	Create(ctx context.Context, group *entity.Group) error
	GetByID(ctx context.Context, id string) (*entity.Group, error)
	AddMember(ctx context.Context, groupID, userID string, member entity.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID string) error
	ListByMember(ctx context.Context, userID string) ([]*entity.Group, error)

	// Per-member group summaries, mirroring the private-conversation rollups.
	UpsertSummary(ctx context.Context, ownerID, groupID string, summary entity.GroupSummary) error
	IncrementUnread(ctx context.Context, ownerID, groupID string, delta int) error
	ResetUnread(ctx context.Context, ownerID, groupID string) error
}
