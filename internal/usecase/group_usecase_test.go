package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
)

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	ctx := context.Background()
	groupRepo := newFakeGroupRepo()
	userRepo := newFakeUserRepo(entity.User{ID: "alice", DisplayName: "Alice"})
	uc := NewGroupUseCase(groupRepo, userRepo)

	group, err := uc.Create(ctx, "alice", CreateGroupInput{Name: "Turma TRT"})
	require.NoError(t, err)
	require.NotEmpty(t, group.ID)
	assert.Equal(t, "alice", group.CreatedBy)
	assert.True(t, group.IsAdmin("alice"))
}

func TestCreateGroupRejectsBlankName(t *testing.T) {
	uc := NewGroupUseCase(newFakeGroupRepo(), newFakeUserRepo())

	_, err := uc.Create(context.Background(), "alice", CreateGroupInput{Name: "   "})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestJoinGroupIsIdempotent(t *testing.T) {
	ctx := context.Background()
	groupRepo := newFakeGroupRepo()
	userRepo := newFakeUserRepo(
		entity.User{ID: "alice", DisplayName: "Alice"},
		entity.User{ID: "bob", DisplayName: "Bob"},
	)
	uc := NewGroupUseCase(groupRepo, userRepo)

	group, err := uc.Create(ctx, "alice", CreateGroupInput{Name: "Turma TRT"})
	require.NoError(t, err)

	require.NoError(t, uc.Join(ctx, group.ID, "bob"))
	require.NoError(t, uc.Join(ctx, group.ID, "bob"))

	got, err := uc.Get(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, got.Members, 2)
	assert.Equal(t, entity.GroupRoleMember, got.Members["bob"].Role)
}

func TestLastAdminCannotLeaveOccupiedGroup(t *testing.T) {
	ctx := context.Background()
	groupRepo := newFakeGroupRepo()
	userRepo := newFakeUserRepo(
		entity.User{ID: "alice", DisplayName: "Alice"},
		entity.User{ID: "bob", DisplayName: "Bob"},
	)
	uc := NewGroupUseCase(groupRepo, userRepo)

	group, err := uc.Create(ctx, "alice", CreateGroupInput{Name: "Turma TRT"})
	require.NoError(t, err)
	require.NoError(t, uc.Join(ctx, group.ID, "bob"))

	err = uc.Leave(ctx, group.ID, "alice")
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	// Once the other member leaves, the admin can too.
	require.NoError(t, uc.Leave(ctx, group.ID, "bob"))
	require.NoError(t, uc.Leave(ctx, group.ID, "alice"))
}
