// Package annotation wraps the external annotation API that performs the
// ML-based role, sentiment, genre, and context inference. The service is an
// opaque collaborator: this client only ships meme identifiers and image URLs
// and trusts whatever fields come back.
package annotation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hvvlab/memeboard/internal/domain"
)

// ErrNotConfigured is returned when the annotation API base URL is missing.
// The condition is fatal to the operation, not to the process: callers report
// it before any network attempt.
var ErrNotConfigured = errors.New("annotation API base URL is not configured")

// Client calls the external annotation service.
type Client struct {
	client  *resty.Client
	baseURL string
}

// Config holds configuration for the annotation client.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// NewClient creates a new annotation service client. A client with an empty
// base URL is still constructed; every call on it fails with ErrNotConfigured.
// Parameters:
//   - cfg: client configuration including the service base URL.
// Returns:
//   - *Client: initialized client wrapper.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Content-Type", "application/json")
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client.SetTimeout(timeout)

	return &Client{
		client:  client,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
	}
}

// IsConfigured reports whether a base URL is set.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// annotateRequest is the wire body for both annotation endpoints.
type annotateRequest struct {
	MemeID  string `json:"meme_id"`
	MemeURL string `json:"meme_url"`
}

// contextResponse is the wire shape of the generate-context endpoint.
type contextResponse struct {
	Context string `json:"context"`
}

// errorResponse is the error body the service returns on non-2xx statuses.
type errorResponse struct {
	Message string `json:"message"`
}

// Annotate requests role, sentiment, genre, and explanation inference for one
// meme. Every response field is optional; merging defaults is the caller's job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - memeID: identifier of the meme being annotated.
//   - memeURL: resolvable URL of the source image.
// Returns:
//   - *domain.AnnotationResult: inferred fields as returned by the service.
//   - error: ErrNotConfigured, transport failure, or service error.
func (c *Client) Annotate(ctx context.Context, memeID, memeURL string) (*domain.AnnotationResult, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	var result domain.AnnotationResult
	var errBody errorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(annotateRequest{MemeID: memeID, MemeURL: memeURL}).
		SetResult(&result).
		SetError(&errBody).
		Post(c.baseURL + "/annotation/annotate")
	if err != nil {
		return nil, fmt.Errorf("failed to call annotation API: %w", err)
	}
	if err := checkStatus(resp, &errBody); err != nil {
		return nil, err
	}

	return &result, nil
}

// GenerateContext requests the contextual narrative for one meme.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - memeID: identifier of the meme.
//   - memeURL: resolvable URL of the source image.
// Returns:
//   - string: generated context text (may be empty).
//   - error: ErrNotConfigured, transport failure, or service error.
func (c *Client) GenerateContext(ctx context.Context, memeID, memeURL string) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	var result contextResponse
	var errBody errorResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(annotateRequest{MemeID: memeID, MemeURL: memeURL}).
		SetResult(&result).
		SetError(&errBody).
		Post(c.baseURL + "/annotation/generate-context")
	if err != nil {
		return "", fmt.Errorf("failed to call annotation API: %w", err)
	}
	if err := checkStatus(resp, &errBody); err != nil {
		return "", err
	}

	return result.Context, nil
}

// checkStatus converts a non-2xx response into an error carrying the service's
// message when it provided one.
func checkStatus(resp *resty.Response, errBody *errorResponse) error {
	if resp.StatusCode() >= 200 && resp.StatusCode() < 300 {
		return nil
	}
	if errBody.Message != "" {
		return fmt.Errorf("annotation API returned HTTP %d: %s", resp.StatusCode(), errBody.Message)
	}
	return fmt.Errorf("annotation API returned HTTP %d: %s", resp.StatusCode(), string(resp.Body()))
}
