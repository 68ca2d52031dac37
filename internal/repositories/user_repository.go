package repositories

import (
	"context"

	"github.com/photofriends/backend/internal/models"
)

// UserRepository defines the data access contract for users.
type UserRepository interface {
	Create(ctx context.Context, user models.User) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
	Search(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	UpdateAccount(ctx context.Context, id int64, email, passwordHash string) (models.User, error)
	UpdatePersonalData(ctx context.Context, id int64, data models.PersonalData) (models.User, error)
	// Delete removes the user, its friendships and its posts in one transaction
	// and returns the metadata of the removed posts.
	Delete(ctx context.Context, id int64) ([]models.Post, error)
}
