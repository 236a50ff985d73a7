// Package upload hosts user-submitted images (payment slips, review
// photos) on the ImgBB API and returns their public URLs.
package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// DefaultEndpoint is the ImgBB upload API.
const DefaultEndpoint = "https://api.imgbb.com/1/upload"

// ErrUploadFailed is returned when ImgBB rejects an image.
var ErrUploadFailed = errors.New("image upload failed")

// Client is a thin ImgBB API client. The zero value is not usable; create
// one with NewClient.
type Client struct {
	httpClient *http.Client
	apiKey     string
	endpoint   string
}

// NewClient returns a Client using the given API key. An empty key yields
// an unconfigured client; callers must check Configured before uploading.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		endpoint:   DefaultEndpoint,
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool { return c.apiKey != "" }

// Upload sends one base64-encoded image and returns its hosted URL.
func (c *Client) Upload(ctx context.Context, imageB64 string) (string, error) {
	form := url.Values{}
	form.Set("key", c.apiKey)
	form.Set("image", imageB64)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading image: %w", err)
	}
	defer resp.Body.Close()

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decoding upload response: %w", err)
	}
	if !body.Success || body.Data.URL == "" {
		return "", ErrUploadFailed
	}
	return body.Data.URL, nil
}

// UploadAll uploads images in order and returns their URLs. The first
// failure aborts the batch; earlier uploads are not rolled back.
func (c *Client) UploadAll(ctx context.Context, images []string) ([]string, error) {
	urls := make([]string, 0, len(images))
	for i, img := range images {
		u, err := c.Upload(ctx, img)
		if err != nil {
			return nil, fmt.Errorf("uploading image %d of %d: %w", i+1, len(images), err)
		}
		urls = append(urls, u)
	}
	return urls, nil
}
