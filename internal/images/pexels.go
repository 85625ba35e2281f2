// Package images finds illustrative stock photos for generated content.
// Image lookup is best-effort: a failed search produces a warning on the
// job, never a failed unit.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Searcher returns a photo URL for a query, or an error when nothing
// suitable was found.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// PexelsClient implements Searcher against the Pexels REST API.
type PexelsClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewPexelsClient(apiKey string) *PexelsClient {
	return &PexelsClient{
		apiKey:     apiKey,
		baseURL:    "https://api.pexels.com/v1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type pexelsResponse struct {
	Photos []struct {
		Src struct {
			Large string `json:"large"`
		} `json:"src"`
	} `json:"photos"`
}

func (c *PexelsClient) Search(ctx context.Context, query string) (string, error) {
	u := fmt.Sprintf("%s/search?query=%s&per_page=1", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image search: status %d", resp.StatusCode)
	}

	var body pexelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("image search: %w", err)
	}
	if len(body.Photos) == 0 {
		return "", fmt.Errorf("image search: no results for %q", query)
	}
	return body.Photos[0].Src.Large, nil
}
