package social

import (
	"context"
	"errors"

	"github.com/photofriends/backend/internal/logging"
	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/repositories"
)

// RelationshipManager owns every mutation of the friendship graph.
type RelationshipManager struct {
	friends repositories.FriendRepository
}

func NewRelationshipManager(friends repositories.FriendRepository) *RelationshipManager {
	return &RelationshipManager{friends: friends}
}

// AddFriend links both users and returns the friends of userID. Adding an
// existing friendship is a no-op.
func (m *RelationshipManager) AddFriend(ctx context.Context, userID, friendID int64) (models.Relationship, error) {
	if userID == friendID {
		return models.Relationship{}, &SameEntityError{}
	}

	ctx, span := logging.StartSpan(ctx, "relationships.add")
	defer span.End()

	friends, err := m.friends.Link(ctx, userID, friendID)
	if err != nil {
		return models.Relationship{}, userError(err, userID)
	}

	logging.FromContext(ctx).Info("friendship stored", "userId", userID, "friendId", friendID)
	return models.Relationship{UserID: userID, Friends: friends}, nil
}

// RemoveFriend unlinks both users.
func (m *RelationshipManager) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	ctx, span := logging.StartSpan(ctx, "relationships.remove")
	defer span.End()

	if err := m.friends.Unlink(ctx, userID, friendID); err != nil {
		if errors.Is(err, repositories.ErrNoEdge) {
			return &NoSuchRelationshipError{UserID: userID, FriendID: friendID}
		}
		return userError(err, userID)
	}

	logging.FromContext(ctx).Info("friendship removed", "userId", userID, "friendId", friendID)
	return nil
}

// ListFriends returns the friend summaries of userID ordered by id.
func (m *RelationshipManager) ListFriends(ctx context.Context, userID int64) (models.Relationship, error) {
	friends, err := m.friends.ListFriends(ctx, userID)
	if err != nil {
		return models.Relationship{}, userError(err, userID)
	}
	return models.Relationship{UserID: userID, Friends: friends}, nil
}
