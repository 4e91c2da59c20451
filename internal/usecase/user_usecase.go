package usecase

import (
	"context"
	"io"
	"strings"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
)

// PictureUploader stores a profile picture and returns its public URL.
type PictureUploader interface {
	UploadProfilePicture(ctx context.Context, userID string, file io.Reader, contentType string) (string, error)
}

// UserUseCase manages profile records.
type UserUseCase struct {
	userRepo repository.UserRepository
	uploader PictureUploader
}

func NewUserUseCase(userRepo repository.UserRepository, uploader PictureUploader) *UserUseCase {
	return &UserUseCase{userRepo: userRepo, uploader: uploader}
}

func (uc *UserUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

type UpdateProfileInput struct {
	DisplayName string `json:"displayName" validate:"omitempty,min=2,max=60"`
}

func (uc *UserUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(input.DisplayName); name != "" {
		user.DisplayName = name
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// UpdateProfilePicture uploads the image and stores its URL on the profile.
func (uc *UserUseCase) UpdateProfilePicture(ctx context.Context, userID string, file io.Reader, contentType string) (*entity.User, error) {
	if uc.uploader == nil {
		return nil, errors.Internal("Picture storage is not configured", nil)
	}

	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := uc.uploader.UploadProfilePicture(ctx, userID, file, contentType)
	if err != nil {
		return nil, err
	}

	user.ProfilePicture = url
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
