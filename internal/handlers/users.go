package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/photofriends/backend/internal/logging"
	"github.com/photofriends/backend/internal/models"
)

// UserHandler exposes the user lifecycle endpoints.
type UserHandler struct {
	Users UserService
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type modifyAccountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/users.
func (h UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		logging.FromContext(ctx).Warn("invalid registration payload", "error", err)
		respondInvalid(w, r, "The request body is not valid JSON.")
		return
	}

	user, err := h.Users.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/users/%d", user.ID))
	respondJSON(ctx, w, http.StatusCreated, toUserDTO(user))
}

// Search handles GET /api/users with optional filter query parameters.
func (h UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	filter, err := parseUserFilter(r)
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	users, err := h.Users.Search(r.Context(), filter)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, toUserDTOs(users))
}

// Get handles GET /api/users/{userId}.
func (h UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	user, err := h.Users.Get(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// ModifyAccount handles PUT /api/users/{userId}.
func (h UserHandler) ModifyAccount(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	var req modifyAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, r, "The request body is not valid JSON.")
		return
	}

	user, err := h.Users.ModifyAccount(r.Context(), userID, req.Email, req.Password)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// ModifyPersonalData handles PUT /api/users/{userId}/personal.
func (h UserHandler) ModifyPersonalData(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	var req personalDataDTO
	if err := decodeJSON(r, &req); err != nil {
		respondInvalid(w, r, "The request body is not valid JSON.")
		return
	}

	data := models.PersonalData{RealName: req.RealName, City: req.City}
	if req.DateOfBirth != nil {
		dob, err := time.Parse(dateLayout, *req.DateOfBirth)
		if err != nil {
			respondInvalid(w, r, "The date of birth must use the yyyy-MM-dd format.")
			return
		}
		data.DateOfBirth = &dob
	}

	user, err := h.Users.ModifyPersonalData(r.Context(), userID, data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

// Delete handles DELETE /api/users/{userId}.
func (h UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "userId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	if err := h.Users.Delete(r.Context(), userID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

var timestampLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", dateLayout}

func parseUserFilter(r *http.Request) (models.UserFilter, error) {
	q := r.URL.Query()
	optional := func(key string) *string {
		if !q.Has(key) {
			return nil
		}
		value := strings.TrimSpace(q.Get(key))
		if value == "" {
			return nil
		}
		return &value
	}

	filter := models.UserFilter{
		Username: optional("username"),
		Email:    optional("email"),
		RealName: optional("realName"),
		City:     optional("city"),
	}

	if raw := optional("registeredAfter"); raw != nil {
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, *raw); err == nil {
				filter.RegisteredAfter = &ts
				break
			}
		}
		if filter.RegisteredAfter == nil {
			return models.UserFilter{}, fmt.Errorf("invalid value for registeredAfter: %q is not a timestamp", *raw)
		}
	}

	return filter, nil
}
