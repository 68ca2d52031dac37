package handlers

import (
	"fmt"
	"net/http"
)

// FriendHandler manages friendships between users.
type FriendHandler struct {
	Relationships RelationshipService
}

func (h FriendHandler) pair(w http.ResponseWriter, r *http.Request) (int64, int64, bool) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return 0, 0, false
	}
	friendID, err := pathID(r, "friendId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return 0, 0, false
	}
	return userID, friendID, true
}

// Add handles PUT /api/users/{userId}/{friendId}.
func (h FriendHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, friendID, ok := h.pair(w, r)
	if !ok {
		return
	}

	rel, err := h.Relationships.AddFriend(r.Context(), userID, friendID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/users/%d/friends", userID))
	respondJSON(r.Context(), w, http.StatusCreated, toRelationshipDTO(rel))
}

// Remove handles DELETE /api/users/{userId}/{friendId}.
func (h FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, friendID, ok := h.pair(w, r)
	if !ok {
		return
	}

	if err := h.Relationships.RemoveFriend(r.Context(), userID, friendID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/users/{userId}/friends.
func (h FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	rel, err := h.Relationships.ListFriends(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, toRelationshipDTO(rel))
}
