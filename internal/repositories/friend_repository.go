package repositories

import (
	"context"

	"github.com/photofriends/backend/internal/models"
)

// FriendRepository owns every write to the friendships table.
type FriendRepository interface {
	// Link stores the edge between both users and returns the friends of userID.
	Link(ctx context.Context, userID, friendID int64) ([]models.UserSummary, error)
	Unlink(ctx context.Context, userID, friendID int64) error
	ListFriends(ctx context.Context, userID int64) ([]models.UserSummary, error)
	ListFriendIDs(ctx context.Context, userID int64) ([]int64, error)
}
