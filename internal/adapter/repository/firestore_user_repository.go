package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/entity"
	"github.com/DanielDss030225/mindfulness-sub001/internal/domain/repository"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/errors"
)

type firestoreUserRepository struct {
	client *firestore.Client
}

func NewFirestoreUserRepository(client *firestore.Client) repository.UserRepository {
	return &firestoreUserRepository{
		client: client,
	}
}

// searchDoc adds the lowercased name field the search scan orders by.
func searchDoc(user *entity.User) map[string]interface{} {
	return map[string]interface{}{
		"id":             user.ID,
		"email":          user.Email,
		"displayName":    user.DisplayName,
		"nameLower":      strings.ToLower(user.DisplayName),
		"profilePicture": user.ProfilePicture,
		"createdAt":      user.CreatedAt,
		"updatedAt":      time.Now(),
	}
}

func (r *firestoreUserRepository) Create(ctx context.Context, user *entity.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := r.client.Collection("users").Doc(user.ID).Set(ctx, searchDoc(user)); err != nil {
		return errors.Internal("Failed to create user", err)
	}
	return nil
}

func (r *firestoreUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	doc, err := r.client.Collection("users").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.StoreUnavailable("Failed to get user", err)
	}

	var user entity.User
	if err := doc.DataTo(&user); err != nil {
		return nil, errors.Internal("Failed to parse user data", err)
	}
	user.ID = doc.Ref.ID

	return &user, nil
}

func (r *firestoreUserRepository) Update(ctx context.Context, user *entity.User) error {
	user.UpdatedAt = time.Now()
	if _, err := r.client.Collection("users").Doc(user.ID).Set(ctx, searchDoc(user), firestore.MergeAll); err != nil {
		return errors.Internal("Failed to update user", err)
	}
	return nil
}

// searchScanLimit caps how many directory documents one search reads.
const searchScanLimit = 1000

// Search scans the user directory in name order and keeps case-insensitive
// substring matches on name or email. Firestore has no substring operator,
// so the match runs in memory over a capped scan.
func (r *firestoreUserRepository) Search(ctx context.Context, query string, limit int) ([]*entity.User, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	iter := r.client.Collection("users").
		OrderBy("nameLower", firestore.Asc).
		Limit(searchScanLimit).
		Documents(ctx)
	defer iter.Stop()

	var users []*entity.User
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.StoreUnavailable("Failed to search users", err)
		}

		var user entity.User
		if err := doc.DataTo(&user); err != nil {
			continue
		}
		user.ID = doc.Ref.ID

		if !userMatchesQuery(&user, q) {
			continue
		}
		users = append(users, &user)
		if len(users) >= limit {
			break
		}
	}

	return users, nil
}

// userMatchesQuery reports whether the lowercased query occurs anywhere in
// the user's display name or email.
func userMatchesQuery(u *entity.User, q string) bool {
	return strings.Contains(strings.ToLower(u.DisplayName), q) ||
		strings.Contains(strings.ToLower(u.Email), q)
}
