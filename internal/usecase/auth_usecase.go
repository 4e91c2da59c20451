package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
)

// Authenticator is the identity provider surface the auth flow needs.
type Authenticator interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	GenerateToken(ctx context.Context, uid string) (string, error)
}

// AuthUseCase registers accounts with the identity provider and keeps the
// profile record in step.
type AuthUseCase struct {
	userRepo repository.UserRepository
	auth     Authenticator
}

func NewAuthUseCase(userRepo repository.UserRepository, auth Authenticator) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, auth: auth}
}

type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"displayName" validate:"required,min=2,max=60"`
}

type RegisterOutput struct {
	User  *entity.User `json:"user"`
	Token string       `json:"token"`
}

// Register creates the identity-provider account, the profile record, and
// returns a sign-in token for the new user.
func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*RegisterOutput, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	displayName := strings.TrimSpace(input.DisplayName)

	uid, err := uc.auth.CreateUser(ctx, email, input.Password, displayName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		ID:          uid,
		Email:       email,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	token, err := uc.auth.GenerateToken(ctx, uid)
	if err != nil {
		return nil, err
	}

	return &RegisterOutput{User: user, Token: token}, nil
}
