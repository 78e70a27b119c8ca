package storage

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestKeyFromURL(t *testing.T) {
	tests := []struct {
		base, location string
		want           string
		ok             bool
	}{
		{"https://cdn.example.com", "https://cdn.example.com/players/p1/photo.jpg", "players/p1/photo.jpg", true},
		{"https://cdn.example.com/", "https://cdn.example.com/players/p1/photo.jpg", "players/p1/photo.jpg", true},
		{"https://cdn.example.com", "https://other.example.com/players/p1/photo.jpg", "", false},
		{"", "https://cdn.example.com/x", "", false},
		{"https://cdn.example.com", "https://cdn.example.com/", "", false},
	}
	for _, tt := range tests {
		got, ok := KeyFromURL(tt.base, tt.location)
		if got != tt.want || ok != tt.ok {
			t.Errorf("KeyFromURL(%q, %q) = %q, %v; want %q, %v", tt.base, tt.location, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMemoryUploader(t *testing.T) {
	u := NewMemoryUploader("https://cdn.example.com/")
	ctx := context.Background()
	key := PlayerPhotoKey("p1", ".webp")
	if key != "players/p1/photo.webp" {
		t.Fatalf("key = %q", key)
	}

	res, err := u.Upload(ctx, key, "image/webp", strings.NewReader("data"))
	if err != nil {
		t.Fatal(err)
	}
	if res.Location != "https://cdn.example.com/players/p1/photo.webp" {
		t.Errorf("location = %q", res.Location)
	}
	if data, err := u.Object(key); err != nil || string(data) != "data" {
		t.Errorf("Object = %q, %v", data, err)
	}
	if err := u.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if _, err := u.Object(key); !errors.Is(err, ErrObjectNotFound) {
		t.Errorf("after delete err = %v", err)
	}
}

func TestR2ConfigEnabled(t *testing.T) {
	if (R2Config{}).Enabled() {
		t.Error("empty config enabled")
	}
	cfg := R2Config{AccountID: "acc", AccessKeyID: "key", SecretAccessKey: "secret", BucketName: "photos", PublicBaseURL: "https://cdn.example.com"}
	if !cfg.Enabled() {
		t.Error("full config disabled")
	}
}
