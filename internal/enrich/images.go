package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ferrite-media/ferrite/internal/logger"
)

// ImageCache downloads provider-advertised images into a content-addressed
// local cache, per spec §4.8 step 3's naming scheme.
type ImageCache struct {
	Dir        string
	HTTPClient *http.Client
}

func NewImageCache(dir string, client *http.Client) *ImageCache {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ImageCache{Dir: dir, HTTPClient: client}
}

// fetchWithRetry downloads url to <Dir>/fileName with 3 attempts and
// exponential backoff (1s, 2s), returning the local filename on success.
func (c *ImageCache) fetchWithRetry(ctx context.Context, url, fileName string) (string, error) {
	if url == "" {
		return "", nil
	}
	if err := os.MkdirAll(c.Dir, 0o755); err != nil {
		return "", fmt.Errorf("creating image cache dir: %w", err)
	}
	destPath := filepath.Join(c.Dir, fileName)

	backoffs := []time.Duration{0, time.Second, 2 * time.Second}
	var lastErr error
	for attempt, wait := range backoffs {
		if wait > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := c.download(ctx, url, destPath); err != nil {
			lastErr = err
			logger.Warn("image fetch attempt failed", []logger.Field{
				logger.String("url", url),
				logger.Int("attempt", attempt+1),
				logger.Err("cause", err),
			})
			continue
		}
		return fileName, nil
	}
	return "", fmt.Errorf("fetching %s after %d attempts: %w", url, len(backoffs), lastErr)
}

func (c *ImageCache) download(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	tmp := destPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, destPath)
}

func posterFileName(remoteID int) string   { return fmt.Sprintf("%d_poster.jpg", remoteID) }
func backdropFileName(remoteID int) string { return fmt.Sprintf("%d_backdrop.jpg", remoteID) }
func stillFileName(remoteID, season, episode int) string {
	return fmt.Sprintf("%d_s%d_e%d_still.jpg", remoteID, season, episode)
}
