package app

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"strings"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/photofriends/backend/internal/config"
	"github.com/photofriends/backend/internal/db"
	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/social"
)

type seedOptions struct {
	users          int
	postsPerUser   int
	friendsPerUser int
}

func seedFlags(opts *seedOptions) *flag.FlagSet {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.IntVar(&opts.users, "users", 20, "number of users to create")
	fs.IntVar(&opts.postsPerUser, "posts", 3, "posts per user")
	fs.IntVar(&opts.friendsPerUser, "friends", 4, "friendships to attempt per user")
	return fs
}

func parseSeedOptions(args []string) (seedOptions, error) {
	opts := seedOptions{}
	fs := seedFlags(&opts)
	if err := fs.Parse(args); err != nil {
		return seedOptions{}, err
	}
	if opts.users <= 0 {
		return seedOptions{}, errors.New("seed: -users must be positive")
	}
	if opts.postsPerUser < 0 || opts.friendsPerUser < 0 {
		return seedOptions{}, errors.New("seed: -posts and -friends must not be negative")
	}
	return opts, nil
}

// runSeed fills a development database with fake users, friendships and
// posts through the regular services so every row passes validation.
func runSeed(ctx context.Context, args []string) error {
	opts, err := parseSeedOptions(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	pool, err := db.Connect(ctx, cfg.DatabaseURL, db.Options{})
	if err != nil {
		return err
	}
	defer pool.Close()

	// Seeding never publishes to object storage.
	cfg.ObjectStore = config.ObjectStoreConfig{}
	svc, _, err := buildServices(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}

	return seed(ctx, svc, opts, logger)
}

func seed(ctx context.Context, svc services, opts seedOptions, logger *slog.Logger) error {
	ids := make([]int64, 0, opts.users)
	for i := 0; i < opts.users; i++ {
		username := seedUsername(gofakeit.Username(), i)
		user, err := svc.users.Register(ctx, username, strings.ToLower(username)+"@example.com", gofakeit.Password(true, true, true, false, false, 12))
		if errors.Is(err, social.ErrConstraintViolation) {
			logger.Warn("skipping existing seed user", "username", username)
			continue
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", username, err)
		}

		name, city := gofakeit.Name(), gofakeit.City()
		if _, err := svc.users.ModifyPersonalData(ctx, user.ID, models.PersonalData{RealName: &name, City: &city}); err != nil {
			return fmt.Errorf("seed personal data for %d: %w", user.ID, err)
		}
		ids = append(ids, user.ID)
	}

	for _, id := range ids {
		for j := 0; j < opts.friendsPerUser && len(ids) > 1; j++ {
			friend := ids[gofakeit.Number(0, len(ids)-1)]
			if friend == id {
				continue
			}
			if _, err := svc.relationships.AddFriend(ctx, id, friend); err != nil {
				return fmt.Errorf("seed friendship %d-%d: %w", id, friend, err)
			}
		}

		for j := 0; j < opts.postsPerUser; j++ {
			content, err := seedImage()
			if err != nil {
				return err
			}
			_, err = svc.posts.Create(ctx, id, social.NewPost{
				Title:       gofakeit.Phrase(),
				Description: gofakeit.Phrase(),
				File:        &models.PostFile{Filename: fmt.Sprintf("seed-%d-%d.png", id, j), MimeType: "image/png", Content: content},
			})
			if err != nil {
				return fmt.Errorf("seed post for %d: %w", id, err)
			}
		}
	}

	logger.Info("seed completed", "users", len(ids), "postsPerUser", opts.postsPerUser)
	return nil
}

// seedUsername fits a generated name into the 5..31 character range and
// suffixes the index so a single run never collides with itself.
func seedUsername(base string, i int) string {
	base = strings.Map(func(r rune) rune {
		if r > 127 || r == ' ' {
			return -1
		}
		return r
	}, base)
	if len(base) > 24 {
		base = base[:24]
	}
	return fmt.Sprintf("%s_%04d", base, i)
}

func seedImage() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	fill := color.RGBA{R: uint8(gofakeit.Number(0, 255)), G: uint8(gofakeit.Number(0, 255)), B: uint8(gofakeit.Number(0, 255)), A: 255}
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode seed image: %w", err)
	}
	return buf.Bytes(), nil
}
