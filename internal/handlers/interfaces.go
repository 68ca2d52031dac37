package handlers

import (
	"context"

	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/social"
)

// UserService captures the user lifecycle operations required by UserHandler.
type UserService interface {
	Register(ctx context.Context, username, email, password string) (models.User, error)
	Get(ctx context.Context, userID int64) (models.User, error)
	Search(ctx context.Context, filter models.UserFilter) ([]models.User, error)
	Delete(ctx context.Context, userID int64) error
	ModifyAccount(ctx context.Context, userID int64, email, password string) (models.User, error)
	ModifyPersonalData(ctx context.Context, userID int64, data models.PersonalData) (models.User, error)
}

// RelationshipService captures friendship graph operations.
type RelationshipService interface {
	AddFriend(ctx context.Context, userID, friendID int64) (models.Relationship, error)
	RemoveFriend(ctx context.Context, userID, friendID int64) error
	ListFriends(ctx context.Context, userID int64) (models.Relationship, error)
}

// PostService captures post storage operations.
type PostService interface {
	Create(ctx context.Context, userID int64, input social.NewPost) (models.Post, error)
	Get(ctx context.Context, postID int64) (models.Post, error)
	Content(ctx context.Context, postID int64) (models.PostFile, error)
	Delete(ctx context.Context, postID int64) error
}

// FeedService resolves the friends feed of a user.
type FeedService interface {
	ListFriendsFeed(ctx context.Context, userID int64) ([]models.Post, error)
}

// HealthChecker reports whether a backing dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}
