package civitai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cocktail-collective/cocktail/internal/domain"
)

// DefaultBaseURL is the public catalog API root.
const DefaultBaseURL = "https://civitai.com/api/v1"

// ErrMalformedPayload marks a response body that could not be decoded as a
// page envelope. It is not retried: the URL responded, the payload is just
// unusable.
var ErrMalformedPayload = errors.New("malformed page payload")

// PageMetadata is the pagination descriptor attached to every page response.
// Depending on the API version it carries either a cursor with a
// remaining-page count or explicit current/total page numbers.
type PageMetadata struct {
	NextPage    string `json:"nextPage,omitempty"`
	NextCursor  string `json:"nextCursor,omitempty"`
	CurrentPage int    `json:"currentPage,omitempty"`
	TotalPages  int    `json:"totalPages,omitempty"`
}

// PageResponse is one raw page of catalog entries.
type PageResponse struct {
	Items    []json.RawMessage `json:"items"`
	Metadata PageMetadata      `json:"metadata"`
}

// Client is a read-only HTTP client for the remote catalog API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a catalog API client. An empty baseURL selects the public
// endpoint.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// ModelsURL builds the initial request URL for a fetch session.
func (c *Client) ModelsURL(period domain.Period, limit int) string {
	return fmt.Sprintf("%s/models?period=%s&limit=%d", c.baseURL, period, limit)
}

// GetPage fetches and decodes one page. Transport failures and non-2xx
// statuses are returned as plain errors and may be retried by the caller;
// undecodable bodies are wrapped in ErrMalformedPayload.
func (c *Client) GetPage(ctx context.Context, url string) (*PageResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "identity")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("requesting page: unexpected status %s", resp.Status)
	}

	var page PageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	return &page, nil
}
