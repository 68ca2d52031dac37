package social

import (
	"context"
	"errors"
	"strings"

	"github.com/photofriends/backend/internal/logging"
	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/repositories"
)

// AssetPublisher mirrors post images to external storage.
type AssetPublisher interface {
	AssetRemover
	Publish(ctx context.Context, post models.Post) error
}

// NewPost carries the client supplied fields of a post. File is nil when no
// file part was uploaded.
type NewPost struct {
	Title       string
	Description string
	File        *models.PostFile
}

// PostService stores and serves image posts.
type PostService struct {
	posts  repositories.PostRepository
	clock  Clock
	assets AssetPublisher
}

// NewPostService constructs a PostService. assets may be nil, in which case
// posts are only kept in the database.
func NewPostService(posts repositories.PostRepository, clock Clock, assets AssetPublisher) *PostService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &PostService{posts: posts, clock: clock, assets: assets}
}

// Create validates and stores a post owned by userID. The returned post does
// not carry the file bytes.
func (s *PostService) Create(ctx context.Context, userID int64, input NewPost) (models.Post, error) {
	ctx, span := logging.StartSpan(ctx, "posts.create")
	defer span.End()

	if strings.TrimSpace(input.Title) == "" {
		return models.Post{}, invalid("The title must not be blank or null.")
	}
	if input.File == nil || len(input.File.Content) == 0 {
		return models.Post{}, invalid("A photo must be uploaded with the post.")
	}
	if err := ValidateFile(input.File.Filename, input.File.MimeType); err != nil {
		return models.Post{}, err
	}

	status := models.AssetStatusNone
	if s.assets != nil {
		status = models.AssetStatusPending
	}

	created, err := s.posts.Create(ctx, models.Post{
		UserID:      userID,
		Title:       input.Title,
		Description: input.Description,
		File:        *input.File,
		PostedAt:    s.clock.Now(),
		AssetStatus: status,
	})
	if err != nil {
		return models.Post{}, userError(err, userID)
	}

	logger := logging.FromContext(ctx)
	if s.assets != nil {
		job := created
		job.File.Content = input.File.Content
		if err := s.assets.Publish(ctx, job); err != nil {
			logger.Warn("asset publication not scheduled", "postId", created.ID, "error", err)
			if markErr := s.posts.MarkAssetFailed(ctx, created.ID); markErr != nil {
				logger.Error("record asset failure", "postId", created.ID, "error", markErr)
			} else {
				created.AssetStatus = models.AssetStatusFailed
			}
		}
	}

	logger.Info("post created", "postId", created.ID, "userId", userID, "bytes", len(input.File.Content))
	return created, nil
}

// Get returns post metadata.
func (s *PostService) Get(ctx context.Context, postID int64) (models.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return models.Post{}, postError(err, postID)
	}
	return post, nil
}

// Content returns the stored file of a post byte for byte.
func (s *PostService) Content(ctx context.Context, postID int64) (models.PostFile, error) {
	file, err := s.posts.FindContent(ctx, postID)
	if err != nil {
		return models.PostFile{}, postError(err, postID)
	}
	return file, nil
}

// Delete removes a post.
func (s *PostService) Delete(ctx context.Context, postID int64) error {
	ctx, span := logging.StartSpan(ctx, "posts.delete")
	defer span.End()

	post, err := s.posts.Delete(ctx, postID)
	if err != nil {
		return postError(err, postID)
	}

	if s.assets != nil {
		s.assets.Remove(ctx, []models.Post{post})
	}

	logging.FromContext(ctx).Info("post deleted", "postId", postID)
	return nil
}

func postError(err error, postID int64) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return postNotFound(postID)
	}
	return err
}
