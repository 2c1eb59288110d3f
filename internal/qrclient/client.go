// Package qrclient fetches QR images from a remote rendering service.
// Offline deployments set Skip and get locally encoded images instead.
package qrclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Client calls the QR rendering service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, images are encoded locally and the
// service is never contacted.
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// ImageURL returns the remote rendering URL for a payload, for callers
// that embed the link instead of the bytes.
func (c *Client) ImageURL(payload string, size int) string {
	return fmt.Sprintf("%s/create-qr-code/?size=%dx%d&data=%s&margin=0",
		c.BaseURL, size, size, url.QueryEscape(payload))
}

// FetchPNG returns PNG bytes for the payload.
func (c *Client) FetchPNG(ctx context.Context, payload string, size int) ([]byte, error) {
	if size <= 0 {
		size = 200
	}
	if c.Skip {
		return qrcode.Encode(payload, qrcode.Medium, size)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ImageURL(payload, size), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qr service: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("qr service returned %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
