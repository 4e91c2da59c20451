package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuthenticator struct {
	created []string
}

func (a *fakeAuthenticator) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	a.created = append(a.created, email)
	return "uid-" + email, nil
}

func (a *fakeAuthenticator) GenerateToken(ctx context.Context, uid string) (string, error) {
	return "token-" + uid, nil
}

func TestRegisterCreatesAccountAndProfile(t *testing.T) {
	ctx := context.Background()
	userRepo := newFakeUserRepo()
	auth := &fakeAuthenticator{}
	uc := NewAuthUseCase(userRepo, auth)

	out, err := uc.Register(ctx, RegisterInput{
		Email:       "  Maria@Example.com ",
		Password:    "hunter2hunter2",
		DisplayName: "Maria",
	})
	require.NoError(t, err)

	assert.Equal(t, "maria@example.com", out.User.Email)
	assert.Equal(t, "uid-maria@example.com", out.User.ID)
	assert.Equal(t, "token-uid-maria@example.com", out.Token)

	stored, err := userRepo.GetByID(ctx, out.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", stored.DisplayName)
}
