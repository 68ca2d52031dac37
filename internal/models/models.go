package models

import "time"

// User represents an account within the PhotoFriends network.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	RegisteredAt time.Time
	PersonalData PersonalData
	// FriendIDs is derived from the friendships table, ordered by id.
	FriendIDs []int64
}

// PersonalData holds the optional profile fields of a user.
type PersonalData struct {
	RealName    *string
	DateOfBirth *time.Time
	City        *string
}

// UserSummary is the lightweight view of a user used in friend listings.
type UserSummary struct {
	ID           int64
	Username     string
	Email        string
	RegisteredAt time.Time
}

// Relationship lists the friends of a single user.
type Relationship struct {
	UserID  int64
	Friends []UserSummary
}

// UserFilter narrows a user search. Nil fields are ignored.
type UserFilter struct {
	Username        *string
	Email           *string
	RealName        *string
	City            *string
	RegisteredAfter *time.Time
}

// PostFile is the image payload embedded in a post.
type PostFile struct {
	Filename string
	MimeType string
	Content  []byte
}

// Post is an image post owned by a single user. Content is only populated
// when the raw bytes were explicitly requested.
type Post struct {
	ID          int64
	UserID      int64
	Title       string
	Description string
	File        PostFile
	PostedAt    time.Time
	AssetStatus string
	AssetURL    string
}

const (
	AssetStatusNone    = "none"
	AssetStatusPending = "pending"
	AssetStatusReady   = "ready"
	AssetStatusFailed  = "failed"
)
