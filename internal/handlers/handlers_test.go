package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/social"
)

var fixedTime = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

type stubUserService struct {
	registered  []string
	filter      models.UserFilter
	users       map[int64]models.User
	err         error
	personal    models.PersonalData
	deleted     []int64
	accountArgs [2]string
}

func (s *stubUserService) Register(_ context.Context, username, email, _ string) (models.User, error) {
	if s.err != nil {
		return models.User{}, s.err
	}
	s.registered = append(s.registered, username)
	return models.User{ID: 7, Username: username, Email: email, PasswordHash: "hash", RegisteredAt: fixedTime}, nil
}

func (s *stubUserService) Get(_ context.Context, userID int64) (models.User, error) {
	if s.err != nil {
		return models.User{}, s.err
	}
	user, ok := s.users[userID]
	if !ok {
		return models.User{}, &social.NotFoundError{Entity: social.EntityUser, ID: userID}
	}
	return user, nil
}

func (s *stubUserService) Search(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	s.filter = filter
	if s.err != nil {
		return nil, s.err
	}
	var out []models.User
	for _, u := range s.users {
		out = append(out, u)
	}
	return out, nil
}

func (s *stubUserService) Delete(_ context.Context, userID int64) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, userID)
	return nil
}

func (s *stubUserService) ModifyAccount(_ context.Context, userID int64, email, password string) (models.User, error) {
	if s.err != nil {
		return models.User{}, s.err
	}
	s.accountArgs = [2]string{email, password}
	return models.User{ID: userID, Email: email, RegisteredAt: fixedTime}, nil
}

func (s *stubUserService) ModifyPersonalData(_ context.Context, userID int64, data models.PersonalData) (models.User, error) {
	if s.err != nil {
		return models.User{}, s.err
	}
	s.personal = data
	return models.User{ID: userID, PersonalData: data, RegisteredAt: fixedTime}, nil
}

type stubRelationshipService struct {
	err     error
	removed [][2]int64
}

func (s *stubRelationshipService) AddFriend(_ context.Context, userID, friendID int64) (models.Relationship, error) {
	if s.err != nil {
		return models.Relationship{}, s.err
	}
	return models.Relationship{UserID: userID, Friends: []models.UserSummary{{ID: friendID, Username: "friend", RegisteredAt: fixedTime}}}, nil
}

func (s *stubRelationshipService) RemoveFriend(_ context.Context, userID, friendID int64) error {
	if s.err != nil {
		return s.err
	}
	s.removed = append(s.removed, [2]int64{userID, friendID})
	return nil
}

func (s *stubRelationshipService) ListFriends(_ context.Context, userID int64) (models.Relationship, error) {
	if s.err != nil {
		return models.Relationship{}, s.err
	}
	return models.Relationship{UserID: userID}, nil
}

type stubPostService struct {
	err     error
	created social.NewPost
	owner   int64
	file    models.PostFile
	deleted []int64
}

func (s *stubPostService) Create(_ context.Context, userID int64, input social.NewPost) (models.Post, error) {
	if s.err != nil {
		return models.Post{}, s.err
	}
	s.owner = userID
	s.created = input
	post := models.Post{ID: 11, UserID: userID, Title: input.Title, Description: input.Description, PostedAt: fixedTime, AssetStatus: models.AssetStatusNone}
	if input.File != nil {
		post.File = models.PostFile{Filename: input.File.Filename, MimeType: input.File.MimeType}
	}
	return post, nil
}

func (s *stubPostService) Get(_ context.Context, postID int64) (models.Post, error) {
	if s.err != nil {
		return models.Post{}, s.err
	}
	return models.Post{ID: postID, Title: "title", PostedAt: fixedTime}, nil
}

func (s *stubPostService) Content(context.Context, int64) (models.PostFile, error) {
	if s.err != nil {
		return models.PostFile{}, s.err
	}
	return s.file, nil
}

func (s *stubPostService) Delete(_ context.Context, postID int64) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, postID)
	return nil
}

type stubFeedService struct {
	posts  []models.Post
	err    error
	called bool
	userID int64
}

func (s *stubFeedService) ListFriendsFeed(_ context.Context, userID int64) ([]models.Post, error) {
	s.called = true
	s.userID = userID
	return s.posts, s.err
}

type stubHealthChecker struct {
	err error
}

func (s stubHealthChecker) Ping(context.Context) error {
	return s.err
}

func newTestRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, deps)
	return r
}

func serve(t *testing.T, handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) Problem {
	t.Helper()
	if got := rec.Header().Get("Content-Type"); got != "application/problem+json" {
		t.Fatalf("expected problem content type got %q", got)
	}
	var problem Problem
	if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	return problem
}
