package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/photofriends/backend/internal/assets"
	"github.com/photofriends/backend/internal/config"
	"github.com/photofriends/backend/internal/db"
	"github.com/photofriends/backend/internal/handlers"
	"github.com/photofriends/backend/internal/repositories"
	"github.com/photofriends/backend/internal/social"
	"github.com/photofriends/backend/internal/storage"
)

// cleanupFunc releases background resources created by buildDependencies.
type cleanupFunc func(context.Context) error

// services groups the domain services so the seed command can reuse them.
type services struct {
	users         *social.UserService
	relationships *social.RelationshipManager
	posts         *social.PostService
	feed          *social.FeedService
}

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, cleanupFunc, error) {
	svc, cleanup, err := buildServices(ctx, pool, cfg, logger)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	return handlers.Dependencies{
		Users:          svc.users,
		Relationships:  svc.relationships,
		Posts:          svc.posts,
		Feed:           svc.feed,
		Health:         pool,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}, cleanup, nil
}

func buildServices(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (services, cleanupFunc, error) {
	userRepo := repositories.NewPostgresUserRepository(pool)
	friendRepo := repositories.NewPostgresFriendRepository(pool)
	postRepo := repositories.NewPostgresPostRepository(pool)
	clock := social.SystemClock{}

	cleanup := func(context.Context) error { return nil }

	// Typed nils must not leak into the service interfaces.
	var publisher social.AssetPublisher
	if cfg.ObjectStore.Enabled() {
		store, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return services{}, nil, fmt.Errorf("configure object store: %w", err)
		}
		p := assets.NewPublisher(store, postRepo, assets.Config{
			Workers:   cfg.Assets.Workers,
			QueueSize: cfg.Assets.QueueSize,
		}, logger)
		publisher = p
		cleanup = p.Shutdown
		logger.Info("asset publishing enabled", "bucket", cfg.ObjectStore.Bucket)
	}

	return services{
		users:         social.NewUserService(userRepo, clock, publisher),
		relationships: social.NewRelationshipManager(friendRepo),
		posts:         social.NewPostService(postRepo, clock, publisher),
		feed:          social.NewFeedService(friendRepo, postRepo),
	}, cleanup, nil
}
