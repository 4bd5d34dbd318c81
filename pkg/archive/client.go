package archive

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
	"golang.org/x/oauth2"
)

const (
	defaultTimeout              = 30 * time.Second
	journalPostPath             = "rest/journalpostapi/v1/journalpost?forsoekFerdigstill=true"
	consumerTokenHeader         = "X-Consumer-Token"
	responseBodyReadLimit int64 = 1024
)

var (
	errBaseURLRequired     = errors.New("archive base url is required")
	errTokenSourceRequired = errors.New("archive token source is required")
)

// Client creates journal posts in the document archive.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     oauth2.TokenSource
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(baseURL string, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errBaseURLRequired
	}
	if tokens == nil {
		return nil, errTokenSourceRequired
	}

	client := &Client{
		baseURL:    trimmed,
		tokens:     tokens,
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

// Archive posts the journal payload. consumerToken is sent as the
// idempotency header. Anything but a 2xx answer is ARCHIVE_REJECTED.
func (c *Client) Archive(ctx context.Context, consumerToken string, payload any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "archive client not configured")
	}

	token, err := c.tokens.Token()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch archive access token")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeArchiveRejected, err, "marshal journal post")
	}

	url := fmt.Sprintf("%s/%s", strings.TrimRight(c.baseURL, "/"), journalPostPath)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeArchiveRejected, err, "build journal post request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(consumerTokenHeader, consumerToken)
	token.SetAuthHeader(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeArchiveRejected, err, "execute journal post request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeArchiveRejected, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "journal post rejected")
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
