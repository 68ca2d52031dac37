package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/photofriends/backend/internal/config"
)

// RegisterRoutes wires HTTP handlers into the provided router.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	health := HealthHandler{Checker: deps.Health}
	users := UserHandler{Users: deps.Users}
	friends := FriendHandler{Relationships: deps.Relationships}

	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = config.DefaultMaxUploadBytes
	}
	posts := PostHandler{Posts: deps.Posts, Feed: deps.Feed, MaxUploadBytes: maxUpload}

	r.Get("/healthz", health.Handle)
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Post("/", users.Register)
		r.Get("/", users.Search)
		r.Route("/{userId}", func(r chi.Router) {
			r.Get("/", users.Get)
			r.Put("/", users.ModifyAccount)
			r.Delete("/", users.Delete)
			r.Put("/personal", users.ModifyPersonalData)
			r.Get("/friends", friends.List)
			r.Put("/{friendId}", friends.Add)
			r.Delete("/{friendId}", friends.Remove)
		})
	})

	r.Route("/api/posts", func(r chi.Router) {
		r.Post("/", posts.Create)
		r.Get("/", posts.ListFeed)
		r.Route("/{postId}", func(r chi.Router) {
			r.Get("/", posts.Get)
			r.Get("/content", posts.Content)
			r.Delete("/", posts.Delete)
		})
	})
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Users          UserService
	Relationships  RelationshipService
	Posts          PostService
	Feed           FeedService
	Health         HealthChecker
	MaxUploadBytes int64
}
