package export

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	imageFetchTimeout = 10 * time.Second

	// maxImageBytes caps how much of an image we are willing to attach.
	maxImageBytes = 10 << 20
)

// ImageFetcher downloads image bytes for attachment.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPImageFetcher fetches images over plain HTTP with a bounded timeout.
type HTTPImageFetcher struct {
	httpClient *http.Client
}

// NewImageFetcher creates an HTTP image fetcher.
func NewImageFetcher() *HTTPImageFetcher {
	return &HTTPImageFetcher{
		httpClient: &http.Client{Timeout: imageFetchTimeout},
	}
}

// Fetch downloads the image at url.
func (f *HTTPImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return data, nil
}

// attachmentFilename generates a short random filename for an uploaded
// image.
func attachmentFilename() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8] + ".jpg"
}
