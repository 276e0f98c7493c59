package detect

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUpstream marks a failure reported by the detection API.
var ErrUpstream = errors.New("detection api failed")

// Config holds detection API settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Workspace   string
	Workflow    string
	HTTPClient  *http.Client
	MaxRetries  int
	BackoffBase time.Duration
}

// Image is the workflow input. Exactly one of URL or Data is set.
type Image struct {
	URL  string
	Data []byte
}

// Client calls a hosted object-detection workflow.
type Client struct {
	cfg Config
}

// New creates a client, filling defaults.
func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 400 * time.Millisecond
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &Client{cfg: cfg}
}

// RunWorkflow submits img and returns the decoded "outputs" array.
func (c *Client) RunWorkflow(ctx context.Context, img Image) ([]map[string]any, error) {
	body, endpointURL, err := c.buildPayload(img)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		outputs, retry, err := c.callOnce(ctx, endpointURL, body)
		if err == nil {
			return outputs, nil
		}
		lastErr = err
		if !retry || attempt == c.cfg.MaxRetries {
			break
		}
		backoff := c.cfg.BackoffBase * (1 << attempt)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return nil, lastErr
}

func (c *Client) buildPayload(img Image) ([]byte, string, error) {
	endpointURL, err := c.buildEndpointURL()
	if err != nil {
		return nil, "", err
	}

	var input map[string]string
	switch {
	case img.URL != "" && len(img.Data) == 0:
		input = map[string]string{"type": "url", "value": img.URL}
	case img.URL == "" && len(img.Data) > 0:
		input = map[string]string{"type": "base64", "value": base64.StdEncoding.EncodeToString(img.Data)}
	default:
		return nil, "", fmt.Errorf("exactly one of image url or image data is required")
	}

	payload := map[string]any{
		"api_key":   c.cfg.APIKey,
		"inputs":    map[string]any{"image": input},
		"use_cache": true,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("marshal workflow payload: %w", err)
	}
	return b, endpointURL, nil
}

func (c *Client) buildEndpointURL() (string, error) {
	base := strings.TrimSpace(c.cfg.BaseURL)
	if base == "" {
		return "", fmt.Errorf("base url is empty")
	}
	if c.cfg.Workspace == "" || c.cfg.Workflow == "" {
		return "", fmt.Errorf("workspace and workflow are required")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/infer/workflows/" +
		url.PathEscape(c.cfg.Workspace) + "/" + url.PathEscape(c.cfg.Workflow)
	return u.String(), nil
}

func (c *Client) callOnce(ctx context.Context, endpointURL string, body []byte) (outputs []map[string]any, retry bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("%w: request failed: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, false, fmt.Errorf("%w: read response body: %w", ErrUpstream, err)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, true, fmt.Errorf("%w: temporary status %d", ErrUpstream, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, snippet(respBody))
	}

	var parsed struct {
		Outputs []map[string]any `json:"outputs"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, false, fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	return parsed.Outputs, false, nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
