package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewS3Archive(t *testing.T) {
	cfg := S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        "http://localhost:4566", // LocalStack-like endpoint
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	archive, err := NewS3Archive(cfg)
	if err != nil {
		t.Fatalf("NewS3Archive() error = %v", err)
	}

	if archive.bucket != cfg.Bucket {
		t.Errorf("bucket = %v, want %v", archive.bucket, cfg.Bucket)
	}
	if archive.region != cfg.Region {
		t.Errorf("region = %v, want %v", archive.region, cfg.Region)
	}
}

func TestS3Archive_Archive_MockServer(t *testing.T) {
	// Create a mock S3 server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT method, got %s", r.Method)
		}

		if !strings.Contains(r.URL.Path, "snd-") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("failed to read body: %v", err)
		}
		if string(body) != "test content" {
			t.Errorf("unexpected body: %s", string(body))
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := S3Config{
		Bucket:          "test-bucket",
		Region:          "us-east-1",
		Endpoint:        server.URL,
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
	}

	archive, err := NewS3Archive(cfg)
	if err != nil {
		t.Fatalf("NewS3Archive() error = %v", err)
	}

	ctx := context.Background()
	url, err := archive.Archive(ctx, ".ogg", bytes.NewReader([]byte("test content")))
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	prefix := "https://test-bucket.s3.us-east-1.amazonaws.com/snd-"
	if !strings.HasPrefix(url, prefix) {
		t.Errorf("url = %v, want prefix %v", url, prefix)
	}
	if !strings.HasSuffix(url, ".ogg") {
		t.Errorf("url = %v, want .ogg suffix", url)
	}
}
