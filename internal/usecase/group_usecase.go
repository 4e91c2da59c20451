package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
)

// GroupUseCase manages study group membership.
type GroupUseCase struct {
	groupRepo repository.GroupRepository
	userRepo  repository.UserRepository
}

func NewGroupUseCase(groupRepo repository.GroupRepository, userRepo repository.UserRepository) *GroupUseCase {
	return &GroupUseCase{groupRepo: groupRepo, userRepo: userRepo}
}

type CreateGroupInput struct {
	Name        string `json:"name" validate:"required,min=2,max=80"`
	Description string `json:"description" validate:"max=500"`
}

// Create makes a new group with the creator as its sole admin.
func (uc *GroupUseCase) Create(ctx context.Context, creatorID string, input CreateGroupInput) (*entity.Group, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.BadRequest("Group name is required", nil)
	}

	creator, err := uc.userRepo.GetByID(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	group := &entity.Group{
		Name:        name,
		Description: strings.TrimSpace(input.Description),
		CreatedBy:   creatorID,
		Members: map[string]entity.GroupMember{
			creatorID: {
				Name:     creator.DisplayName,
				Role:     entity.GroupRoleAdmin,
				JoinedAt: time.Now().UnixMilli(),
			},
		},
	}

	if err := uc.groupRepo.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

func (uc *GroupUseCase) Get(ctx context.Context, groupID string) (*entity.Group, error) {
	return uc.groupRepo.GetByID(ctx, groupID)
}

func (uc *GroupUseCase) ListForUser(ctx context.Context, userID string) ([]*entity.Group, error) {
	return uc.groupRepo.ListByMember(ctx, userID)
}

// Join adds the user to an existing group as a regular member. Joining a
// group you already belong to is a no-op.
func (uc *GroupUseCase) Join(ctx context.Context, groupID, userID string) error {
	group, err := uc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.IsMember(userID) {
		return nil
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	return uc.groupRepo.AddMember(ctx, groupID, userID, entity.GroupMember{
		Name:     user.DisplayName,
		Role:     entity.GroupRoleMember,
		JoinedAt: time.Now().UnixMilli(),
	})
}

// Leave removes the user from the group. The last admin cannot leave
// while other members remain.
func (uc *GroupUseCase) Leave(ctx context.Context, groupID, userID string) error {
	group, err := uc.groupRepo.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsMember(userID) {
		return errors.NotFound("group membership", nil)
	}

	if group.IsAdmin(userID) && len(group.Members) > 1 {
		admins := 0
		for _, m := range group.Members {
			if m.Role == entity.GroupRoleAdmin {
				admins++
			}
		}
		if admins == 1 {
			return errors.Forbidden("Promote another admin before leaving", nil)
		}
	}

	return uc.groupRepo.RemoveMember(ctx, groupID, userID)
}
