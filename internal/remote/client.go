// Package remote talks to the highlight service over its REST API.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"highlight-sync/internal/dispatch"
	"highlight-sync/internal/domain"

	"github.com/hashicorp/go-retryablehttp"
)

const DeviceHeader = "X-Device-ID"

type Config struct {
	BaseURL      string
	DeviceID     string
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
	Timeout      time.Duration
}

// Client implements dispatch.Transport and the reader's document source.
type Client struct {
	baseURL  *url.URL
	deviceID string
	client   *retryablehttp.Client
}

// envelope mirrors pkg/response.Response with a typed payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func NewClient(cfg Config) (*Client, error) {
	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if baseURL.Scheme == "" {
		baseURL.Scheme = "http"
	}

	client := retryablehttp.NewClient()
	client.RetryMax = cfg.RetryMax
	if cfg.RetryWaitMin > 0 {
		client.RetryWaitMin = cfg.RetryWaitMin
	}
	if cfg.RetryWaitMax > 0 {
		client.RetryWaitMax = cfg.RetryWaitMax
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	client.Logger = log.New(os.Stderr, "[Remote] ", log.LstdFlags)

	return &Client{
		baseURL:  baseURL,
		deviceID: cfg.DeviceID,
		client:   client,
	}, nil
}

func (c *Client) CreateHighlight(ctx context.Context, req *domain.CreateHighlightRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/highlights", req, nil)
}

func (c *Client) MergeHighlight(ctx context.Context, req *domain.MergeHighlightRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/highlights/merge", req, nil)
}

func (c *Client) DeleteHighlights(ctx context.Context, req *domain.DeleteHighlightsRequest) error {
	return c.do(ctx, http.MethodPost, "/api/v1/highlights/delete", req, nil)
}

func (c *Client) UpdateNote(ctx context.Context, id string, req *domain.UpdateNoteRequest) error {
	return c.do(ctx, http.MethodPut, "/api/v1/highlights/"+url.PathEscape(id)+"/note", req, nil)
}

func (c *Client) UpdateProgress(ctx context.Context, articleID string, req *domain.UpdateProgressRequest) error {
	return c.do(ctx, http.MethodPut, "/api/v1/articles/"+url.PathEscape(articleID)+"/progress", req, nil)
}

// LoadDocument fetches an article with its highlights by slug.
func (c *Client) LoadDocument(ctx context.Context, slug string) (*domain.Document, error) {
	var doc domain.Document
	if err := c.do(ctx, http.MethodGet, "/api/v1/articles/"+url.PathEscape(slug), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) Manifest(ctx context.Context, articleID string) (*domain.ManifestResponse, error) {
	var manifest domain.ManifestResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/articles/"+url.PathEscape(articleID)+"/manifest", nil, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var raw interface{}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &dispatch.PermanentError{Err: fmt.Errorf("marshaling request body: %w", err)}
		}
		raw = data
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), raw)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.deviceID != "" {
		req.Header.Set(DeviceHeader, c.deviceID)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("doing request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	var env envelope
	if len(data) > 0 {
		if err := json.Unmarshal(data, &env); err != nil && res.StatusCode < 300 {
			return fmt.Errorf("decoding response body: %w", err)
		}
	}

	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
	case res.StatusCode >= 400 && res.StatusCode < 500 && res.StatusCode != http.StatusTooManyRequests:
		return &dispatch.PermanentError{
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("%s %s: %s: %s", method, path, res.Status, env.Error),
		}
	default:
		return fmt.Errorf("%s %s: %s: %s", method, path, res.Status, env.Error)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decoding response data: %w", err)
		}
	}
	return nil
}
