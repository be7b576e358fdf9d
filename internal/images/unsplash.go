// Package images finds illustration URLs for flashcards via the Unsplash
// search API.
package images

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the Unsplash API host.
	DefaultBaseURL = "https://api.unsplash.com"

	defaultTimeout = 5 * time.Second
)

// Finder locates an image URL for a keyword. An empty URL with a nil error
// means no image was found, which is not a failure.
type Finder interface {
	FindImage(ctx context.Context, keyword string) (string, error)
}

// UnsplashClient implements Finder using the Unsplash photo search API.
type UnsplashClient struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

// NewUnsplashClient creates an Unsplash search client. An empty baseURL
// selects the public host.
func NewUnsplashClient(baseURL, accessKey string) *UnsplashClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &UnsplashClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accessKey:  accessKey,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

type searchResponse struct {
	Results []struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	} `json:"results"`
}

// FindImage returns the URL of the best photo match for the keyword, or an
// empty string when nothing matches.
func (c *UnsplashClient) FindImage(ctx context.Context, keyword string) (string, error) {
	if c.accessKey == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("query", keyword)
	params.Set("per_page", "1")
	params.Set("client_id", c.accessKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("search photos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unsplash returned status %d", resp.StatusCode)
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode search response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return "", nil
	}
	return parsed.Results[0].URLs.Regular, nil
}
