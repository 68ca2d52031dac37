package handlers

import (
	"time"

	"github.com/photofriends/backend/internal/models"
)

const dateLayout = "2006-01-02"

type personalDataDTO struct {
	RealName    *string `json:"realName"`
	DateOfBirth *string `json:"dateOfBirth"`
	City        *string `json:"city"`
}

// userDTO never carries the password hash.
type userDTO struct {
	ID               int64           `json:"id"`
	Username         string          `json:"username"`
	Email            string          `json:"email"`
	RegistrationTime time.Time       `json:"registrationTime"`
	PersonalData     personalDataDTO `json:"personalData"`
	Friends          []int64         `json:"friends"`
}

type userSummaryDTO struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	RegistrationTime time.Time `json:"registrationTime"`
}

type relationshipDTO struct {
	UserID  int64            `json:"userId"`
	Friends []userSummaryDTO `json:"friends"`
}

type postDTO struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mimeType"`
	PostedOn    time.Time `json:"postedOn"`
	UserID      int64     `json:"userId"`
	AssetStatus string    `json:"assetStatus"`
	AssetURL    string    `json:"assetUrl,omitempty"`
}

func toUserDTO(user models.User) userDTO {
	friends := user.FriendIDs
	if friends == nil {
		friends = []int64{}
	}

	var dob *string
	if user.PersonalData.DateOfBirth != nil {
		formatted := user.PersonalData.DateOfBirth.Format(dateLayout)
		dob = &formatted
	}

	return userDTO{
		ID:               user.ID,
		Username:         user.Username,
		Email:            user.Email,
		RegistrationTime: user.RegisteredAt,
		PersonalData: personalDataDTO{
			RealName:    user.PersonalData.RealName,
			DateOfBirth: dob,
			City:        user.PersonalData.City,
		},
		Friends: friends,
	}
}

func toUserDTOs(users []models.User) []userDTO {
	out := make([]userDTO, len(users))
	for i, u := range users {
		out[i] = toUserDTO(u)
	}
	return out
}

func toRelationshipDTO(rel models.Relationship) relationshipDTO {
	friends := make([]userSummaryDTO, len(rel.Friends))
	for i, f := range rel.Friends {
		friends[i] = userSummaryDTO{ID: f.ID, Username: f.Username, Email: f.Email, RegistrationTime: f.RegisteredAt}
	}
	return relationshipDTO{UserID: rel.UserID, Friends: friends}
}

func toPostDTO(post models.Post) postDTO {
	return postDTO{
		ID:          post.ID,
		Title:       post.Title,
		Description: post.Description,
		Filename:    post.File.Filename,
		MimeType:    post.File.MimeType,
		PostedOn:    post.PostedAt,
		UserID:      post.UserID,
		AssetStatus: post.AssetStatus,
		AssetURL:    post.AssetURL,
	}
}

func toPostDTOs(posts []models.Post) []postDTO {
	out := make([]postDTO, len(posts))
	for i, p := range posts {
		out[i] = toPostDTO(p)
	}
	return out
}
