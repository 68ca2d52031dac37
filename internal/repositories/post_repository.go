package repositories

import (
	"context"

	"github.com/photofriends/backend/internal/models"
)

// PostRepository exposes data access for image posts.
type PostRepository interface {
	Create(ctx context.Context, post models.Post) (models.Post, error)
	FindByID(ctx context.Context, id int64) (models.Post, error)
	FindContent(ctx context.Context, id int64) (models.PostFile, error)
	Delete(ctx context.Context, id int64) (models.Post, error)
	ListByOwners(ctx context.Context, ownerIDs []int64) ([]models.Post, error)
	MarkAssetReady(ctx context.Context, postID int64, location string) error
	MarkAssetFailed(ctx context.Context, postID int64) error
}
