// Package contentapi wraps the external educational content providers.
// Every provider response is cached on disk so that children can keep
// browsing content when the upstream service is slow or unreachable.
package contentapi

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

const userAgent = "SavageHomeschoolOS/1.0"

// FileCache stores raw provider responses as files keyed by the request URL.
type FileCache struct {
	dir string
}

// NewFileCache creates the cache directory if it does not exist yet.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(key string) string {
	sum := sha1.Sum([]byte(key))
	return filepath.Join(c.dir, hex.EncodeToString(sum[:])+".json")
}

// Get returns the cached body for key if it is younger than maxAge.
// A zero maxAge accepts entries of any age.
func (c *FileCache) Get(key string, maxAge time.Duration) ([]byte, bool) {
	p := c.path(key)
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if maxAge > 0 && time.Since(info.ModTime()) > maxAge {
		return nil, false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Put writes the body for key, replacing any previous entry.
func (c *FileCache) Put(key string, body []byte) error {
	if err := os.WriteFile(c.path(key), body, 0o644); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Client performs cached GET requests against the content providers.
type Client struct {
	httpClient *http.Client
	cache      *FileCache
	logger     *zap.Logger
}

// NewClient creates a content client caching responses under cacheDir.
func NewClient(cacheDir string, logger *zap.Logger) (*Client, error) {
	cache, err := NewFileCache(cacheDir)
	if err != nil {
		return nil, err
	}
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		cache:      cache,
		logger:     logger,
	}, nil
}

// Get fetches url with the provider headers applied. A cache entry younger
// than ttl is served without hitting the network. When the upstream request
// fails, a stale cache entry is served instead of the error.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, ttl time.Duration) ([]byte, error) {
	if body, ok := c.cache.Get(url, ttl); ok {
		return body, nil
	}

	body, err := c.fetch(ctx, url, headers)
	if err != nil {
		if stale, ok := c.cache.Get(url, 0); ok {
			c.logger.Warn("serving stale content cache", zap.String("url", url), zap.Error(err))
			return stale, nil
		}
		return nil, err
	}

	if cacheErr := c.cache.Put(url, body); cacheErr != nil {
		c.logger.Warn("failed to cache content response", zap.String("url", url), zap.Error(cacheErr))
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build content request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("content request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("content provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read content response: %w", err)
	}
	return body, nil
}
