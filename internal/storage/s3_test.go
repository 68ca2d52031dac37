package storage

import (
	"context"
	"testing"

	"github.com/photofriends/backend/internal/config"
)

func TestPublicBaseURL(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.ObjectStoreConfig
		want string
	}{
		{
			name: "explicit public url",
			cfg:  config.ObjectStoreConfig{Bucket: "photos", PublicBaseURL: "https://cdn.example.com/"},
			want: "https://cdn.example.com",
		},
		{
			name: "custom endpoint",
			cfg:  config.ObjectStoreConfig{Bucket: "photos", Endpoint: "http://localhost:9000"},
			want: "http://localhost:9000/photos",
		},
		{
			name: "aws virtual host",
			cfg:  config.ObjectStoreConfig{Bucket: "photos", Region: "eu-west-1"},
			want: "https://photos.s3.eu-west-1.amazonaws.com",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := publicBaseURL(tc.cfg); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestNewS3StorageRequiresBucket(t *testing.T) {
	if _, err := NewS3Storage(context.Background(), config.ObjectStoreConfig{}); err == nil {
		t.Fatal("expected error without bucket")
	}
}

func TestLocationJoinsKey(t *testing.T) {
	s := &S3Storage{baseURL: "https://cdn.example.com"}
	if got := s.Location("/posts/1/a.png"); got != "https://cdn.example.com/posts/1/a.png" {
		t.Fatalf("unexpected location %q", got)
	}

	bare := &S3Storage{}
	if got := bare.Location("posts/1/a.png"); got != "posts/1/a.png" {
		t.Fatalf("expected bare key, got %q", got)
	}
}
