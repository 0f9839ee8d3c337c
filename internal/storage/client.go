// Package storage uploads generated audio to a Supabase storage bucket over
// its REST API.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type Client struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	HTTP       *http.Client
}

func NewClient(baseURL, serviceKey, bucket string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Bucket:     bucket,
		HTTP:       &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload stores data under path in the bucket and returns the public URL.
// Existing objects at the same path are overwritten.
func (c *Client) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	if c.BaseURL == "" || c.ServiceKey == "" {
		return "", errors.New("storage: base url and service key are required")
	}

	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", c.BaseURL, c.Bucket, strings.TrimLeft(path, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.ServiceKey)
	req.Header.Set("x-upsert", "true")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("storage: upload failed: %s", msg)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", c.BaseURL, c.Bucket, strings.TrimLeft(path, "/")), nil
}
