package blob

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPUploaderReturnsSecureURL(t *testing.T) {
	var gotBody []byte
	var gotContentType, gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotContentType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"secure_url": "https://cdn.example/u/1.png",
		})
	}))
	defer ts.Close()

	u := NewHTTPUploader(ts.URL, "key-123")
	url, err := u.Upload(context.Background(), "image/png", []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if url != "https://cdn.example/u/1.png" {
		t.Fatalf("Upload() = %q", url)
	}
	if string(gotBody) != "\x01\x02\x03" || gotContentType != "image/png" {
		t.Fatalf("upload request body/type wrong: %q %q", gotBody, gotContentType)
	}
	if gotAuth != "Bearer key-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestHTTPUploaderRejectsErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "denied", http.StatusForbidden)
	}))
	defer ts.Close()

	u := NewHTTPUploader(ts.URL, "")
	if _, err := u.Upload(context.Background(), "image/png", []byte{1}); err == nil {
		t.Fatalf("Upload() should fail on a non-2xx status")
	}
}

func TestDisabledUploader(t *testing.T) {
	_, err := Disabled{}.Upload(context.Background(), "image/png", []byte{1})
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("Upload() error = %v, want ErrNotConfigured", err)
	}
}

func TestDecodeDataURL(t *testing.T) {
	raw := []byte("hello")
	encoded := base64.StdEncoding.EncodeToString(raw)

	contentType, data, err := DecodeDataURL("data:image/jpeg;base64," + encoded)
	if err != nil {
		t.Fatalf("DecodeDataURL() error = %v", err)
	}
	if contentType != "image/jpeg" || string(data) != "hello" {
		t.Fatalf("DecodeDataURL() = %q, %q", contentType, data)
	}

	contentType, data, err = DecodeDataURL(encoded)
	if err != nil {
		t.Fatalf("DecodeDataURL(bare) error = %v", err)
	}
	if contentType != "application/octet-stream" || string(data) != "hello" {
		t.Fatalf("DecodeDataURL(bare) = %q, %q", contentType, data)
	}

	if _, _, err := DecodeDataURL("data:image/png;base64"); err == nil {
		t.Fatalf("DecodeDataURL() should reject a data url without payload")
	}

	if _, _, err := DecodeDataURL("!!not-base64!!"); err == nil {
		t.Fatalf("DecodeDataURL() should reject invalid base64")
	}
}
