package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/photofriends/backend/internal/logging"
	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/social"
)

// formOverhead bounds the non file parts and multipart framing of an upload.
const formOverhead = 64 << 10

// PostHandler serves image posts and the friends feed.
type PostHandler struct {
	Posts          PostService
	Feed           FeedService
	MaxUploadBytes int64
}

// Create handles POST /api/posts?userId= with a multipart form carrying
// title, description and file parts.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := queryID(r, "userId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+formOverhead)
	input, err := h.readForm(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			respondError(w, r, &social.PayloadTooLargeError{Limit: h.MaxUploadBytes})
		case errors.Is(err, social.ErrPayloadTooLarge):
			respondError(w, r, err)
		default:
			logging.FromContext(ctx).Warn("invalid multipart upload", "error", err)
			respondInvalid(w, r, "The request body is not a valid multipart form.")
		}
		return
	}

	post, err := h.Posts.Create(ctx, userID, input)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/posts/%d", post.ID))
	respondJSON(ctx, w, http.StatusCreated, toPostDTO(post))
}

func (h PostHandler) readForm(r *http.Request) (social.NewPost, error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return social.NewPost{}, err
	}

	var input social.NewPost
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return input, nil
		}
		if err != nil {
			return social.NewPost{}, err
		}

		switch part.FormName() {
		case "title":
			value, err := io.ReadAll(io.LimitReader(part, formOverhead))
			if err != nil {
				return social.NewPost{}, err
			}
			input.Title = string(value)
		case "description":
			value, err := io.ReadAll(io.LimitReader(part, formOverhead))
			if err != nil {
				return social.NewPost{}, err
			}
			input.Description = string(value)
		case "file":
			content, err := io.ReadAll(io.LimitReader(part, h.MaxUploadBytes+1))
			if err != nil {
				return social.NewPost{}, err
			}
			if int64(len(content)) > h.MaxUploadBytes {
				return social.NewPost{}, &social.PayloadTooLargeError{Limit: h.MaxUploadBytes}
			}
			input.File = &models.PostFile{
				Filename: part.FileName(),
				MimeType: strings.TrimSpace(part.Header.Get("Content-Type")),
				Content:  content,
			}
		}
		_ = part.Close()
	}
}

// Get handles GET /api/posts/{postId}.
func (h PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	post, err := h.Posts.Get(r.Context(), postID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, toPostDTO(post))
}

// Content handles GET /api/posts/{postId}/content and streams the stored
// image bytes with their original media type.
func (h PostHandler) Content(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	file, err := h.Posts.Content(r.Context(), postID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", file.MimeType)
	if disposition := mime.FormatMediaType("inline", map[string]string{"filename": file.Filename}); disposition != "" {
		w.Header().Set("Content-Disposition", disposition)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(file.Content); err != nil {
		logging.FromContext(r.Context()).Error("write post content", "postId", postID, "error", err)
	}
}

// Delete handles DELETE /api/posts/{postId}.
func (h PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	postID, err := pathID(r, "postId")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	if err := h.Posts.Delete(r.Context(), postID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListFeed handles GET /api/posts?friendsOf=.
func (h PostHandler) ListFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := queryID(r, "friendsOf")
	if err != nil {
		respondInvalid(w, r, err.Error())
		return
	}

	posts, err := h.Feed.ListFriendsFeed(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(r.Context(), w, http.StatusOK, toPostDTOs(posts))
}
