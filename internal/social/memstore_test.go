package social

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/repositories"
)

type edge struct{ low, high int64 }

func newEdge(a, b int64) edge {
	if a > b {
		a, b = b, a
	}
	return edge{low: a, high: b}
}

// memStore is an in-memory stand-in for the three Postgres repositories.
type memStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]models.User
	posts  map[int64]models.Post
	blobs  map[int64][]byte
	edges  map[edge]struct{}
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[int64]models.User),
		posts: make(map[int64]models.Post),
		blobs: make(map[int64][]byte),
		edges: make(map[edge]struct{}),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) friendIDs(userID int64) []int64 {
	ids := []int64{}
	for e := range s.edges {
		switch userID {
		case e.low:
			ids = append(ids, e.high)
		case e.high:
			ids = append(ids, e.low)
		}
	}
	slices.Sort(ids)
	return ids
}

func (s *memStore) withFriends(user models.User) models.User {
	user.FriendIDs = s.friendIDs(user.ID)
	return user
}

type memUsers struct{ *memStore }

func (s memUsers) Create(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return models.User{}, &repositories.ConflictError{Constraint: "users_username_key", Message: "duplicate username"}
		}
		if existing.Email == user.Email {
			return models.User{}, &repositories.ConflictError{Constraint: "users_email_key", Message: "duplicate email"}
		}
	}
	user.ID = s.id()
	s.users[user.ID] = user
	return s.withFriends(user), nil
}

func (s memUsers) FindByID(_ context.Context, id int64) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return s.withFriends(user), nil
}

func (s memUsers) Search(_ context.Context, filter models.UserFilter) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.User{}
	for _, user := range s.users {
		if filter.Username != nil && !strings.Contains(user.Username, *filter.Username) {
			continue
		}
		if filter.Email != nil && !strings.Contains(user.Email, *filter.Email) {
			continue
		}
		if filter.City != nil && (user.PersonalData.City == nil || *user.PersonalData.City != *filter.City) {
			continue
		}
		if filter.RealName != nil && (user.PersonalData.RealName == nil || !strings.Contains(*user.PersonalData.RealName, *filter.RealName)) {
			continue
		}
		if filter.RegisteredAfter != nil && user.RegisteredAt.Before(*filter.RegisteredAfter) {
			continue
		}
		out = append(out, s.withFriends(user))
	}
	slices.SortFunc(out, func(a, b models.User) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (s memUsers) UpdateAccount(_ context.Context, id int64, email, passwordHash string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && other.Email == email {
			return models.User{}, &repositories.ConflictError{Constraint: "users_email_key", Message: "duplicate email"}
		}
	}
	user.Email = email
	user.PasswordHash = passwordHash
	s.users[id] = user
	return s.withFriends(user), nil
}

func (s memUsers) UpdatePersonalData(_ context.Context, id int64, data models.PersonalData) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	user.PersonalData = data
	s.users[id] = user
	return s.withFriends(user), nil
}

func (s memUsers) Delete(_ context.Context, id int64) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return nil, repositories.ErrNotFound
	}
	for e := range s.edges {
		if e.low == id || e.high == id {
			delete(s.edges, e)
		}
	}
	removed := []models.Post{}
	for postID, post := range s.posts {
		if post.UserID == id {
			removed = append(removed, post)
			delete(s.posts, postID)
			delete(s.blobs, postID)
		}
	}
	delete(s.users, id)
	return removed, nil
}

type memFriends struct{ *memStore }

func (s memFriends) requireUsers(ids ...int64) error {
	for _, id := range ids {
		if _, ok := s.users[id]; !ok {
			return &repositories.MissingRecordError{Table: "users", ID: id}
		}
	}
	return nil
}

func (s memFriends) summaries(userID int64) []models.UserSummary {
	out := []models.UserSummary{}
	for _, id := range s.friendIDs(userID) {
		u := s.users[id]
		out = append(out, models.UserSummary{ID: u.ID, Username: u.Username, Email: u.Email, RegisteredAt: u.RegisteredAt})
	}
	return out
}

func (s memFriends) Link(_ context.Context, userID, friendID int64) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUsers(userID, friendID); err != nil {
		return nil, err
	}
	s.edges[newEdge(userID, friendID)] = struct{}{}
	return s.summaries(userID), nil
}

func (s memFriends) Unlink(_ context.Context, userID, friendID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUsers(userID, friendID); err != nil {
		return err
	}
	e := newEdge(userID, friendID)
	if _, ok := s.edges[e]; !ok {
		return repositories.ErrNoEdge
	}
	delete(s.edges, e)
	return nil
}

func (s memFriends) ListFriends(_ context.Context, userID int64) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUsers(userID); err != nil {
		return nil, err
	}
	return s.summaries(userID), nil
}

func (s memFriends) ListFriendIDs(_ context.Context, userID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireUsers(userID); err != nil {
		return nil, err
	}
	return s.friendIDs(userID), nil
}

type memPosts struct{ *memStore }

func (s memPosts) Create(_ context.Context, post models.Post) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[post.UserID]; !ok {
		return models.Post{}, &repositories.MissingRecordError{Table: "users", ID: post.UserID}
	}
	post.ID = s.id()
	s.blobs[post.ID] = slices.Clone(post.File.Content)
	post.File.Content = nil
	s.posts[post.ID] = post
	return post, nil
}

func (s memPosts) FindByID(_ context.Context, id int64) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return models.Post{}, repositories.ErrNotFound
	}
	return post, nil
}

func (s memPosts) FindContent(_ context.Context, id int64) (models.PostFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return models.PostFile{}, repositories.ErrNotFound
	}
	file := post.File
	file.Content = slices.Clone(s.blobs[id])
	return file, nil
}

func (s memPosts) Delete(_ context.Context, id int64) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[id]
	if !ok {
		return models.Post{}, repositories.ErrNotFound
	}
	delete(s.posts, id)
	delete(s.blobs, id)
	return post, nil
}

// ListByOwners deliberately returns posts in map order so that callers must
// sort.
func (s memPosts) ListByOwners(_ context.Context, ownerIDs []int64) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, post := range s.posts {
		if slices.Contains(ownerIDs, post.UserID) {
			out = append(out, post)
		}
	}
	return out, nil
}

func (s memPosts) MarkAssetReady(_ context.Context, postID int64, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return repositories.ErrNotFound
	}
	post.AssetStatus = models.AssetStatusReady
	post.AssetURL = location
	s.posts[postID] = post
	return nil
}

func (s memPosts) MarkAssetFailed(_ context.Context, postID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	post, ok := s.posts[postID]
	if !ok {
		return repositories.ErrNotFound
	}
	post.AssetStatus = models.AssetStatusFailed
	s.posts[postID] = post
	return nil
}

var _ repositories.UserRepository = memUsers{}
var _ repositories.FriendRepository = memFriends{}
var _ repositories.PostRepository = memPosts{}
