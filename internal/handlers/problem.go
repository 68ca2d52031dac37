package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/photofriends/backend/internal/logging"
	"github.com/photofriends/backend/internal/social"
)

const (
	typeNotFound         = "socialnetwork/not-found"
	typeInvalidArguments = "socialnetwork/invalid-arguments"
	typeSameUser         = "socialnetwork/same-user-relationship"
	typeImageTooLarge    = "socialnetwork/image-too-large"
	typeBlank            = "about:blank"
)

// Problem is an RFC 7807 error payload.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance"`
}

// problemFor classifies err. Unclassified errors never expose their text.
func problemFor(err error) (int, string, string) {
	switch {
	case errors.Is(err, social.ErrNotFound), errors.Is(err, social.ErrNoSuchRelationship):
		return http.StatusNotFound, typeNotFound, err.Error()
	case errors.Is(err, social.ErrInvalidArgument), errors.Is(err, social.ErrConstraintViolation):
		return http.StatusNotAcceptable, typeInvalidArguments, err.Error()
	case errors.Is(err, social.ErrSameEntity):
		return http.StatusNotAcceptable, typeSameUser, err.Error()
	case errors.Is(err, social.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, typeImageTooLarge, err.Error()
	default:
		return http.StatusInternalServerError, typeBlank, "An unexpected error occurred."
	}
}

func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, problemType, detail := problemFor(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed", "path", r.URL.Path, "error", err)
	}
	respondProblem(w, r, status, problemType, detail)
}

func respondProblem(w http.ResponseWriter, r *http.Request, status int, problemType, detail string) {
	ctx := r.Context()
	problem := Problem{
		Type:     problemType,
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem); err != nil {
		logging.FromContext(ctx).Error("encode problem body", "status", status, "error", err)
		return
	}

	if status < http.StatusInternalServerError && status >= http.StatusBadRequest {
		logging.FromContext(ctx).Warn("request returned client error", "status", status, "type", problemType, "detail", detail)
	}
}

func respondInvalid(w http.ResponseWriter, r *http.Request, detail string) {
	respondProblem(w, r, http.StatusBadRequest, typeInvalidArguments, detail)
}

func respondJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.FromContext(ctx).Error("encode response body", "status", status, "error", err)
	}
}

// pathID parses the named chi URL parameter as an int64.
func pathID(r *http.Request, name string) (int64, error) {
	return parseID(name, chi.URLParam(r, name))
}

// queryID parses the named query parameter as an int64.
func queryID(r *http.Request, name string) (int64, error) {
	return parseID(name, r.URL.Query().Get(name))
}

func parseID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("required parameter %s is missing", name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q is not a number", name, raw)
	}
	return id, nil
}

// decodeJSON ignores unknown properties so clients may send extra fields.
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
