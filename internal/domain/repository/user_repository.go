package repository

import (
	"context"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) error

	// Search matches the query case-insensitively against display name and
	// email, capped at limit results.
	Search(ctx context.Context, query string, limit int) ([]*entity.User, error)
}
