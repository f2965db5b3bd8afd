// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package readwise fetches the highlight export from the Readwise API.
package readwise

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/pdiddy/highlight-sync/internal/httputil"
	"github.com/pdiddy/highlight-sync/pkg/types"
)

// DefaultBaseURL is the Readwise API v2 base endpoint.
const DefaultBaseURL = "https://readwise.io/api/v2"

// Client fetches highlight exports from Readwise.
type Client struct {
	http      *http.Client
	baseURL   string
	token     string
	userAgent string
	pageDelay time.Duration
}

// NewClient builds a Client from config. An empty BaseURL falls back to
// DefaultBaseURL; tests point it at an httptest server instead.
func NewClient(httpClient *http.Client, token string, cfg types.ReadwiseConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		http:      httpClient,
		baseURL:   base,
		token:     token,
		userAgent: cfg.UserAgent,
		pageDelay: cfg.PageDelay,
	}
}

// exportPage is one page of the export endpoint's response.
type exportPage struct {
	Results        []types.Book `json:"results"`
	NextPageCursor string       `json:"nextPageCursor"`
}

// FetchExport retrieves the full highlight export, following pageCursor
// pagination until exhausted. When updatedAfter is non-empty only sources
// updated after that ISO 8601 timestamp are returned. Readwise rate limits
// are handled by httputil.DoWithRetry.
func (c *Client) FetchExport(ctx context.Context, updatedAfter string) ([]types.Book, error) {
	var books []types.Book
	cursor := ""

	for page := 0; ; page++ {
		if page > 0 && c.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.pageDelay):
			}
		}

		params := url.Values{}
		if updatedAfter != "" {
			params.Set("updatedAfter", updatedAfter)
		}
		if cursor != "" {
			params.Set("pageCursor", cursor)
		}

		reqURL := c.baseURL + "/export/"
		if len(params) > 0 {
			reqURL += "?" + params.Encode()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Authorization", "Token "+c.token)
		req.Header.Set("Content-Type", "application/json")
		if c.userAgent != "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
		if err != nil {
			return nil, fmt.Errorf("Readwise export request: %w", err)
		}

		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			return nil, fmt.Errorf("Readwise rejected the API token (HTTP 401); check --api-token or READWISE_API_TOKEN")
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("Readwise export returned HTTP %d", resp.StatusCode)
		}

		var pg exportPage
		if err := json.NewDecoder(resp.Body).Decode(&pg); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("parsing Readwise export response: %w", err)
		}
		resp.Body.Close()

		books = append(books, pg.Results...)

		cursor = pg.NextPageCursor
		if cursor == "" {
			return books, nil
		}
	}
}
