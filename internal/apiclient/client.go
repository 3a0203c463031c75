package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/streamoverlay/server/internal/domain"
)

var ErrNotFound = errors.New("not found")

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("overlay api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("overlay api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) List(ctx context.Context) ([]domain.Overlay, error) {
	var overlays []domain.Overlay
	if err := c.do(ctx, http.MethodGet, "/api/overlays", nil, &overlays); err != nil {
		return nil, err
	}
	if overlays == nil {
		overlays = []domain.Overlay{}
	}

	return overlays, nil
}

func (c *Client) Create(ctx context.Context, draft domain.Draft) (domain.Overlay, error) {
	var created domain.Overlay
	err := c.do(ctx, http.MethodPost, "/api/overlays", draft, &created)
	return created, err
}

func (c *Client) Update(ctx context.Context, overlayID string, patch domain.Patch) (domain.Overlay, error) {
	var updated domain.Overlay
	err := c.do(ctx, http.MethodPut, "/api/overlays/"+url.PathEscape(overlayID), patch, &updated)
	return updated, err
}

func (c *Client) Delete(ctx context.Context, overlayID string) error {
	return c.do(ctx, http.MethodDelete, "/api/overlays/"+url.PathEscape(overlayID), nil, nil)
}

func (c *Client) Health(ctx context.Context) error {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		return err
	}
	if resp.Status != "ok" {
		return fmt.Errorf("overlay api unhealthy: %q", resp.Status)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		js, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(js)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readAPIError(resp)
	}

	if dst == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}

	return nil
}

func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var envelope struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
		apiErr.Message = envelope.Error
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}

	return apiErr
}
