package repository

import (
	"context"
	"time"

	"firebase.google.com/go/v4/db"
	"github.com/google/uuid"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
)

type rtdbGroupRepository struct {
	client *db.Client
}

func NewRTDBGroupRepository(client *db.Client) repository.GroupRepository {
	return &rtdbGroupRepository{client: client}
}

func (r *rtdbGroupRepository) Create(ctx context.Context, group *entity.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().UnixMilli()
	}

	if err := r.client.NewRef("groups/"+group.ID).Set(ctx, group); err != nil {
		return mapStoreError("create group", err)
	}
	return nil
}

func (r *rtdbGroupRepository) GetByID(ctx context.Context, id string) (*entity.Group, error) {
	var group entity.Group
	if err := r.client.NewRef("groups/"+id).Get(ctx, &group); err != nil {
		return nil, mapStoreError("get group", err)
	}
	if group.Name == "" && group.CreatedBy == "" {
		return nil, errors.NotFound("Group", nil)
	}
	group.ID = id
	return &group, nil
}

func (r *rtdbGroupRepository) AddMember(ctx context.Context, groupID, userID string, member entity.GroupMember) error {
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().UnixMilli()
	}
	if err := r.client.NewRef("groups/"+groupID+"/members/"+userID).Set(ctx, member); err != nil {
		return mapStoreError("add group member", err)
	}
	return nil
}

func (r *rtdbGroupRepository) RemoveMember(ctx context.Context, groupID, userID string) error {
	if err := r.client.NewRef("groups/" + groupID + "/members/" + userID).Delete(ctx); err != nil {
		return mapStoreError("remove group member", err)
	}
	return nil
}

func (r *rtdbGroupRepository) ListByMember(ctx context.Context, userID string) ([]*entity.Group, error) {
	// Membership lives inside each group record; RTDB cannot index into the
	// member map across groups, so this filters the directory client side.
	var all map[string]entity.Group
	if err := r.client.NewRef("groups").Get(ctx, &all); err != nil {
		return nil, mapStoreError("list groups", err)
	}

	var groups []*entity.Group
	for id, g := range all {
		if _, ok := g.Members[userID]; !ok {
			continue
		}
		g := g
		g.ID = id
		groups = append(groups, &g)
	}
	return groups, nil
}

func groupSummaryRef(c *db.Client, ownerID, groupID string) *db.Ref {
	return c.NewRef("userGroupConversations/" + ownerID + "/" + groupID)
}

func (r *rtdbGroupRepository) UpsertSummary(ctx context.Context, ownerID, groupID string, summary entity.GroupSummary) error {
	updates := map[string]interface{}{
		"groupName":       summary.GroupName,
		"lastMessage":     summary.LastMessage,
		"lastMessageTime": serverTimestamp,
	}
	if err := groupSummaryRef(r.client, ownerID, groupID).Update(ctx, updates); err != nil {
		return mapStoreError("update group summary", err)
	}
	return nil
}

func (r *rtdbGroupRepository) IncrementUnread(ctx context.Context, ownerID, groupID string, delta int) error {
	updates := map[string]interface{}{
		"unreadCount": serverIncrement(delta),
	}
	if err := groupSummaryRef(r.client, ownerID, groupID).Update(ctx, updates); err != nil {
		return mapStoreError("increment group unread counter", err)
	}
	return nil
}

func (r *rtdbGroupRepository) ResetUnread(ctx context.Context, ownerID, groupID string) error {
	updates := map[string]interface{}{
		"unreadCount": 0,
	}
	if err := groupSummaryRef(r.client, ownerID, groupID).Update(ctx, updates); err != nil {
		return mapStoreError("reset group unread counter", err)
	}
	return nil
}
