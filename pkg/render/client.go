package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/settlement-archiver/pkg/errors"
	"github.com/goccy/go-json"
)

const (
	defaultTimeout              = 30 * time.Second
	renderPathPrefix            = "api/v1/genpdf/settlement-archiver"
	responseBodyReadLimit int64 = 1024
)

var errBaseURLRequired = errors.New("render base url is required")

// Client posts document payloads to the PDF render service.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the timeout on the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}

	client := &Client{
		baseURL:    trimmed,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return client, nil
}

// Render posts payload to the template for kind and returns the document
// bytes. Transport failures, non-2xx answers and empty bodies are all
// RENDER_FAILED.
func (c *Client) Render(ctx context.Context, kind string, payload any) ([]byte, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "render client not configured")
	}
	if strings.TrimSpace(kind) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "render kind is required")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRenderFailed, err, "marshal render request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL(kind), bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRenderFailed, err, "build render request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRenderFailed, err, "execute render request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeRenderFailed, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "render request failed")
	}

	document, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeRenderFailed, err, "read render response")
	}
	if len(document) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeRenderFailed, "render service returned an empty document")
	}
	return document, nil
}

func (c *Client) buildURL(kind string) string {
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(c.baseURL, "/"), renderPathPrefix, strings.Trim(kind, "/"))
}
