// Package blob uploads message attachments to an external object store and
// returns the public URL to persist on the message.
package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrNotConfigured is returned when no upload endpoint is configured.
var ErrNotConfigured = errors.New("attachment uploads are not configured")

// Uploader stores one binary attachment and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, contentType string, data []byte) (string, error)
}

// HTTPUploader posts attachments to an object-store HTTP endpoint that
// responds with the stored object's URL.
type HTTPUploader struct {
	url    string
	apiKey string
	client *http.Client
}

func NewHTTPUploader(url, apiKey string) *HTTPUploader {
	return &HTTPUploader{
		url:    strings.TrimSpace(url),
		apiKey: strings.TrimSpace(apiKey),
		client: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (u *HTTPUploader) Upload(ctx context.Context, contentType string, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	res, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return "", fmt.Errorf("upload status %d: %s", res.StatusCode, string(body))
	}

	var out struct {
		URL       string `json:"url"`
		SecureURL string `json:"secure_url"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if out.SecureURL != "" {
		return out.SecureURL, nil
	}
	if out.URL == "" {
		return "", errors.New("upload response missing url")
	}
	return out.URL, nil
}

// Disabled rejects every upload. Used when no endpoint is configured so the
// text-only message path keeps working.
type Disabled struct{}

func (Disabled) Upload(context.Context, string, []byte) (string, error) {
	return "", ErrNotConfigured
}

// DecodeDataURL splits a base64 data URL ("data:image/png;base64,...") into
// its content type and raw bytes. Bare base64 without a prefix is accepted
// and typed application/octet-stream.
func DecodeDataURL(input string) (string, []byte, error) {
	contentType := "application/octet-stream"
	payload := input
	if strings.HasPrefix(input, "data:") {
		meta, rest, ok := strings.Cut(strings.TrimPrefix(input, "data:"), ",")
		if !ok {
			return "", nil, errors.New("malformed data url")
		}
		meta = strings.TrimSuffix(meta, ";base64")
		if meta != "" {
			contentType = meta
		}
		payload = rest
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode attachment: %w", err)
	}
	return contentType, data, nil
}

// New returns the HTTP uploader when an endpoint is configured, otherwise
// the disabled one.
func New(url, apiKey string) Uploader {
	if strings.TrimSpace(url) == "" {
		return Disabled{}
	}
	return NewHTTPUploader(url, apiKey)
}
