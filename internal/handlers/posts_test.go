package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/photofriends/backend/internal/models"
	"github.com/photofriends/backend/internal/social"
)

func multipartUpload(t *testing.T, title string, content []byte, mimeType string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("title", title); err != nil {
		t.Fatalf("write title: %v", err)
	}
	if err := writer.WriteField("description", "sunset at the lake"); err != nil {
		t.Fatalf("write description: %v", err)
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="lake.png"`)
	header.Set("Content-Type", mimeType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create file part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write file part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &body, writer.FormDataContentType()
}

func TestPostHandlerCreate(t *testing.T) {
	posts := &stubPostService{}
	router := newTestRouter(Dependencies{Posts: posts})

	body, contentType := multipartUpload(t, "Lake", []byte("png-bytes"), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/api/posts?userId=5", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(t, router, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Location"); got != "/api/posts/11" {
		t.Fatalf("unexpected location %q", got)
	}
	if posts.owner != 5 || posts.created.Title != "Lake" || posts.created.Description != "sunset at the lake" {
		t.Fatalf("unexpected create input owner=%d %+v", posts.owner, posts.created)
	}
	if posts.created.File == nil {
		t.Fatal("expected file part to be forwarded")
	}
	if posts.created.File.Filename != "lake.png" || posts.created.File.MimeType != "image/png" {
		t.Fatalf("unexpected file metadata %+v", posts.created.File)
	}
	if string(posts.created.File.Content) != "png-bytes" {
		t.Fatalf("unexpected file content %q", posts.created.File.Content)
	}

	var payload postDTO
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.UserID != 5 || payload.MimeType != "image/png" {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestPostHandlerCreateRequiresOwner(t *testing.T) {
	router := newTestRouter(Dependencies{Posts: &stubPostService{}})

	body, contentType := multipartUpload(t, "Lake", []byte("png-bytes"), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(t, router, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestPostHandlerCreateRejectsOversizedFile(t *testing.T) {
	posts := &stubPostService{}
	router := newTestRouter(Dependencies{Posts: posts, MaxUploadBytes: 16})

	body, contentType := multipartUpload(t, "Lake", bytes.Repeat([]byte("x"), 17), "image/png")
	req := httptest.NewRequest(http.MethodPost, "/api/posts?userId=5", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(t, router, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413 got %d", rec.Code)
	}
	if problem := decodeProblem(t, rec); problem.Type != typeImageTooLarge {
		t.Fatalf("unexpected problem type %q", problem.Type)
	}
	if posts.owner != 0 {
		t.Fatal("expected service not to be called")
	}
}

func TestPostHandlerCreateRejectsNonMultipart(t *testing.T) {
	router := newTestRouter(Dependencies{Posts: &stubPostService{}})

	req := httptest.NewRequest(http.MethodPost, "/api/posts?userId=5", bytes.NewBufferString(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(t, router, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}

func TestPostHandlerCreateMapsValidationErrors(t *testing.T) {
	err := &social.InvalidArgumentError{Detail: "Only .jpg, .jpeg, .png extensions and image/jpeg, image/png content types are allowed."}
	router := newTestRouter(Dependencies{Posts: &stubPostService{err: err}})

	body, contentType := multipartUpload(t, "Lake", []byte("txt"), "text/plain")
	req := httptest.NewRequest(http.MethodPost, "/api/posts?userId=5", body)
	req.Header.Set("Content-Type", contentType)
	rec := serve(t, router, req)

	if rec.Code != http.StatusNotAcceptable {
		t.Fatalf("expected status 406 got %d", rec.Code)
	}
	if problem := decodeProblem(t, rec); problem.Detail != err.Detail {
		t.Fatalf("unexpected detail %q", problem.Detail)
	}
}

func TestPostHandlerContent(t *testing.T) {
	posts := &stubPostService{file: models.PostFile{Filename: "lake.png", MimeType: "image/png", Content: []byte("png-bytes")}}
	router := newTestRouter(Dependencies{Posts: posts})

	rec := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/posts/11/content", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "image/png" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `inline; filename=lake.png` {
		t.Fatalf("unexpected content disposition %q", got)
	}
	if rec.Body.String() != "png-bytes" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}

func TestPostHandlerGetNotFound(t *testing.T) {
	err := &social.NotFoundError{Entity: social.EntityPost, ID: 11}
	router := newTestRouter(Dependencies{Posts: &stubPostService{err: err}})

	rec := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/posts/11", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 got %d", rec.Code)
	}
	if problem := decodeProblem(t, rec); problem.Detail != "Post with id: 11 was not found." {
		t.Fatalf("unexpected detail %q", problem.Detail)
	}
}

func TestPostHandlerDelete(t *testing.T) {
	posts := &stubPostService{}
	router := newTestRouter(Dependencies{Posts: posts})

	rec := serve(t, router, httptest.NewRequest(http.MethodDelete, "/api/posts/11", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 got %d", rec.Code)
	}
	if len(posts.deleted) != 1 || posts.deleted[0] != 11 {
		t.Fatalf("unexpected deletions %v", posts.deleted)
	}
}

func TestPostHandlerFeed(t *testing.T) {
	feed := &stubFeedService{posts: []models.Post{{ID: 2, PostedAt: fixedTime}, {ID: 1, PostedAt: fixedTime}}}
	router := newTestRouter(Dependencies{Feed: feed})

	rec := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/posts?friendsOf=1", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}

	var payload []postDTO
	if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload) != 2 || payload[0].ID != 2 || payload[1].ID != 1 {
		t.Fatalf("expected service order to be preserved, got %+v", payload)
	}
}

func TestPostHandlerFeedEmpty(t *testing.T) {
	feed := &stubFeedService{posts: []models.Post{}}
	router := newTestRouter(Dependencies{Feed: feed})

	rec := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/posts?friendsOf=3", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if !feed.called || feed.userID != 3 {
		t.Fatalf("expected feed service to be called for user 3, called=%v userID=%d", feed.called, feed.userID)
	}
	if got := bytes.TrimSpace(rec.Body.Bytes()); string(got) != "[]" {
		t.Fatalf("expected empty array got %s", got)
	}
}

func TestPostHandlerFeedRequiresUser(t *testing.T) {
	router := newTestRouter(Dependencies{Feed: &stubFeedService{}})

	rec := serve(t, router, httptest.NewRequest(http.MethodGet, "/api/posts", nil))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 got %d", rec.Code)
	}
}
