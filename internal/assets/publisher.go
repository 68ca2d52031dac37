package assets

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/photofriends/backend/internal/models"
)

// ObjectStore persists published post images.
type ObjectStore interface {
	Save(ctx context.Context, key, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, key string) error
}

// StatusUpdater records the outcome of a publication on the post row.
type StatusUpdater interface {
	MarkAssetReady(ctx context.Context, postID int64, location string) error
	MarkAssetFailed(ctx context.Context, postID int64) error
}

// Config controls the concurrency characteristics of the publisher.
type Config struct {
	QueueSize int
	Workers   int
}

// Publisher mirrors post images to object storage on a bounded worker pool.
// The database copy stays authoritative; a failed upload only flips the
// post's asset status.
type Publisher struct {
	store   ObjectStore
	updater StatusUpdater
	logger  *slog.Logger

	jobs   chan job
	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type jobKind int

const (
	jobPublish jobKind = iota
	jobRemove
)

type job struct {
	kind jobKind
	post models.Post
}

// ErrClosed is returned when work is submitted after Shutdown.
var ErrClosed = errors.New("asset publisher closed")

var jobResults = registerCounterVec(prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "photofriends",
	Subsystem: "assets",
	Name:      "jobs_total",
	Help:      "Asset publisher job outcomes",
}, []string{"kind", "outcome"}))

func registerCounterVec(c *prometheus.CounterVec) *prometheus.CounterVec {
	if err := prometheus.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing
			}
		}
	}
	return c
}

// NewPublisher starts the worker pool.
func NewPublisher(store ObjectStore, updater StatusUpdater, cfg Config, logger *slog.Logger) *Publisher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Publisher{
		store:   store,
		updater: updater,
		logger:  logger,
		jobs:    make(chan job, cfg.QueueSize),
	}

	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker()
	}

	return p
}

// Publish schedules the upload of a post image. The post must carry its file bytes.
func (p *Publisher) Publish(ctx context.Context, post models.Post) error {
	return p.enqueue(ctx, job{kind: jobPublish, post: post})
}

// Remove schedules deletion of the published objects of the given posts.
// Failures are logged and otherwise ignored.
func (p *Publisher) Remove(ctx context.Context, posts []models.Post) {
	for _, post := range posts {
		if post.AssetStatus != models.AssetStatusReady && post.AssetStatus != models.AssetStatusPending {
			continue
		}
		post.File.Content = nil
		if err := p.enqueue(ctx, job{kind: jobRemove, post: post}); err != nil {
			p.logger.Warn("skip asset removal", "postId", post.ID, "error", err)
		}
	}
}

func (p *Publisher) enqueue(ctx context.Context, j job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.jobs <- j:
		return nil
	}
}

// Shutdown stops accepting work and waits for the workers to drain the queue.
func (p *Publisher) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (p *Publisher) worker() {
	defer p.wg.Done()

	for j := range p.jobs {
		switch j.kind {
		case jobPublish:
			p.publish(j.post)
		case jobRemove:
			p.remove(j.post)
		}
	}
}

func (p *Publisher) publish(post models.Post) {
	if p.store == nil || p.updater == nil {
		p.logger.Error("asset publisher missing dependencies", "hasStore", p.store != nil, "hasUpdater", p.updater != nil)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	key := ObjectKey(post)
	location, err := p.store.Save(ctx, key, post.File.MimeType, bytes.NewReader(post.File.Content))
	if err != nil {
		p.logger.Error("asset upload failed", "postId", post.ID, "key", key, "error", err)
		jobResults.WithLabelValues("publish", "failed").Inc()
		p.recordFailure(post.ID)
		return
	}

	if err := p.recordSuccess(post.ID, location); err != nil {
		// The post may have been deleted while the upload was in flight.
		p.logger.Error("mark asset ready", "postId", post.ID, "error", err)
		jobResults.WithLabelValues("publish", "failed").Inc()
		if delErr := p.store.Delete(ctx, key); delErr != nil {
			p.logger.Warn("remove orphaned asset", "postId", post.ID, "key", key, "error", delErr)
		}
		p.recordFailure(post.ID)
		return
	}

	jobResults.WithLabelValues("publish", "ready").Inc()
	p.logger.Info("asset published", "postId", post.ID, "location", location)
}

func (p *Publisher) remove(post models.Post) {
	if p.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	key := ObjectKey(post)
	if err := p.store.Delete(ctx, key); err != nil {
		p.logger.Warn("asset removal failed", "postId", post.ID, "key", key, "error", err)
		jobResults.WithLabelValues("remove", "failed").Inc()
		return
	}
	jobResults.WithLabelValues("remove", "removed").Inc()
}

func (p *Publisher) recordFailure(postID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.updater.MarkAssetFailed(ctx, postID); err != nil {
		p.logger.Error("record asset failure", "postId", postID, "error", err)
	}
}

func (p *Publisher) recordSuccess(postID int64, location string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return p.updater.MarkAssetReady(ctx, postID, location)
}

// ObjectKey returns the storage key of a post image: posts/{id}/{filename}.
func ObjectKey(post models.Post) string {
	name := path.Base(strings.ReplaceAll(post.File.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	return path.Join("posts", strconv.FormatInt(post.ID, 10), name)
}
