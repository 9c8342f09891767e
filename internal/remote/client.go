// Package remote implements the HTTP client for the shelf content
// store: a three-level hierarchy of collections, sub-collections, and
// documents behind a request/response JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	apperrors "github.com/jbeckett/shelfsync/internal/errors"
	"github.com/tidwall/gjson"
)

// TransientError wraps an error that is likely temporary and safe to retry.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or any error in its chain) is a
// TransientError, meaning the caller may retry after a backoff.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

const (
	// maxRedirects is the maximum number of HTTP redirects to follow
	// before giving up, matching the default net/http limit.
	maxRedirects = 10

	// httpClientTimeout is the timeout for the default HTTP client used
	// when no custom client is provided.
	httpClientTimeout = 30 * time.Second

	// maxAPIResponseBytes caps response body reads to prevent a
	// misbehaving server from consuming unbounded memory.
	maxAPIResponseBytes = 4 * 1024 * 1024
)

// Client talks to the shelf REST API using static token credentials.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	tokenID     string
	tokenSecret string
}

// sameHostRedirectPolicy follows redirects only when the target host
// matches the original request host, so the Authorization header never
// leaks to third-party domains.
func sameHostRedirectPolicy(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errors.New("stopped after 10 redirects")
	}

	if len(via) > 0 {
		origHost := via[0].URL.Host
		if req.URL.Host != origHost {
			return fmt.Errorf("redirect to different host blocked: %s -> %s", origHost, req.URL.Host)
		}
	}

	return nil
}

// NewClient creates an API client for the given base URL and token
// credentials. If httpClient is nil, a client with a 30-second timeout
// and same-host redirect policy is created.
func NewClient(baseURL, tokenID, tokenSecret string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:       httpClientTimeout,
			CheckRedirect: sameHostRedirectPolicy,
		}
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     strings.TrimRight(baseURL, "/"),
		tokenID:     tokenID,
		tokenSecret: tokenSecret,
	}
}

// sanitizeResponseBody truncates and sanitizes a response body for
// inclusion in error messages. Limits to 256 bytes and replaces
// non-printable characters to prevent log injection.
func sanitizeResponseBody(body []byte) string {
	const maxLen = 256
	if len(body) > maxLen {
		body = body[:maxLen]
	}

	var clean []byte

	for len(body) > 0 {
		r, size := utf8.DecodeRune(body)
		if r == utf8.RuneError && size <= 1 {
			clean = append(clean, '?')
			body = body[1:]

			continue
		}

		if r < 0x20 && r != '\n' && r != '\r' && r != '\t' {
			clean = append(clean, '?')
		} else {
			clean = append(clean, body[:size]...)
		}

		body = body[size:]
	}

	return string(clean)
}

// apiErrorMessage extracts a human-readable message from an API error
// body. Servers vary between {"error":{"message":...}}, {"error":...},
// and {"message":...} shapes, so extraction is tolerant.
func apiErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}

	for _, path := range []string{"error.message", "error", "message"} {
		if v := gjson.GetBytes(body, path); v.Type == gjson.String && v.Str != "" {
			return v.Str
		}
	}

	return ""
}

// do sends a JSON request and decodes the response into result.
// result may be nil when only the status matters.
func (c *Client) do(ctx context.Context, method, endpoint string, body, result interface{}) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request body: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.tokenID+":"+c.tokenSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		wrapped := fmt.Errorf("sending request to %s: %w", endpoint, err)
		// Network errors (timeouts, connection refused, DNS failures)
		// are transient by nature.
		return &TransientError{Err: wrapped}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return fmt.Errorf("reading response from %s: %w", endpoint, err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", apperrors.ErrNotFound, method, endpoint)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg := apiErrorMessage(respBody)
		if msg == "" {
			msg = sanitizeResponseBody(respBody)
		}

		wrapped := fmt.Errorf("%w: %s %s (%d): %s", apperrors.ErrAPIRequest, method, endpoint, resp.StatusCode, msg)
		if isTransientStatus(resp.StatusCode) {
			return &TransientError{Err: wrapped}
		}

		return wrapped
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("%w: decoding response from %s: %v", apperrors.ErrAPIResponse, endpoint, err)
		}
	}

	return nil
}

// isTransientStatus returns true for HTTP status codes that indicate a
// temporary server-side problem worth retrying.
func isTransientStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}

	return false
}

// ListCollections returns all collections visible to the token.
func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var resp struct {
		Data []Collection `json:"data"`
	}

	if err := c.do(ctx, http.MethodGet, "/api/collections", nil, &resp); err != nil {
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	return resp.Data, nil
}

// GetCollection returns a collection with its ordered children.
func (c *Client) GetCollection(ctx context.Context, id int64) (*CollectionDetail, error) {
	var resp CollectionDetail

	endpoint := fmt.Sprintf("/api/collections/%d", id)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting collection %d: %w", id, err)
	}

	return &resp, nil
}

// GetSubCollection returns a sub-collection with its ordered documents.
func (c *Client) GetSubCollection(ctx context.Context, id int64) (*SubCollectionDetail, error) {
	var resp SubCollectionDetail

	endpoint := fmt.Sprintf("/api/subcollections/%d", id)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting subcollection %d: %w", id, err)
	}

	return &resp, nil
}

// GetDocument returns a full document including its body representations.
func (c *Client) GetDocument(ctx context.Context, id int64) (*Document, error) {
	var resp Document

	endpoint := fmt.Sprintf("/api/documents/%d", id)
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("getting document %d: %w", id, err)
	}

	return &resp, nil
}

// CreateDocument creates a new document and returns the server's record.
func (c *Client) CreateDocument(ctx context.Context, req CreateDocumentRequest) (*Document, error) {
	var resp Document

	if err := c.do(ctx, http.MethodPost, "/api/documents", req, &resp); err != nil {
		return nil, fmt.Errorf("creating document %q: %w", req.Name, err)
	}

	return &resp, nil
}

// CreateSubCollection creates a new sub-collection and returns the
// server's record.
func (c *Client) CreateSubCollection(ctx context.Context, req CreateSubCollectionRequest) (*SubCollection, error) {
	var resp SubCollection

	if err := c.do(ctx, http.MethodPost, "/api/subcollections", req, &resp); err != nil {
		return nil, fmt.Errorf("creating subcollection %q: %w", req.Name, err)
	}

	return &resp, nil
}

// UpdateDocument replaces a document's body and, optionally, its name.
func (c *Client) UpdateDocument(ctx context.Context, id int64, req UpdateDocumentRequest) (*Document, error) {
	var resp Document

	endpoint := fmt.Sprintf("/api/documents/%d", id)
	if err := c.do(ctx, http.MethodPut, endpoint, req, &resp); err != nil {
		return nil, fmt.Errorf("updating document %d: %w", id, err)
	}

	return &resp, nil
}

// ExportMarkdown returns the server-rendered markdown export of a
// document. The endpoint is best-effort; callers fall back to
// converting the document's HTML body when it fails.
func (c *Client) ExportMarkdown(ctx context.Context, id int64) (string, error) {
	endpoint := fmt.Sprintf("/api/documents/%d/export/markdown", id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "Token "+c.tokenID+":"+c.tokenSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransientError{Err: fmt.Errorf("sending request to %s: %w", endpoint, err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseBytes))
	if err != nil {
		return "", fmt.Errorf("reading export of document %d: %w", id, err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: export of document %d returned status %d", apperrors.ErrAPIRequest, id, resp.StatusCode)
	}

	return string(body), nil
}
