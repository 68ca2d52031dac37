package social

import (
	"cmp"
	"context"
	"slices"

	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/repositories"
)

// FeedService assembles the posts of a user's friends.
type FeedService struct {
	friends repositories.FriendRepository
	posts   repositories.PostRepository
}

func NewFeedService(friends repositories.FriendRepository, posts repositories.PostRepository) *FeedService {
	return &FeedService{friends: friends, posts: posts}
}

// ListFriendsFeed returns every post of userID's current friends, newest
// first. Posts with equal timestamps are ordered by descending id.
func (s *FeedService) ListFriendsFeed(ctx context.Context, userID int64) ([]models.Post, error) {
	ids, err := s.friends.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, userError(err, userID)
	}

	if len(ids) == 0 {
		return []models.Post{}, nil
	}

	posts, err := s.posts.ListByOwners(ctx, ids)
	if err != nil {
		return nil, err
	}

	sortFeed(posts)
	return posts, nil
}

func sortFeed(posts []models.Post) {
	slices.SortFunc(posts, func(a, b models.Post) int {
		if c := b.PostedAt.Compare(a.PostedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}
