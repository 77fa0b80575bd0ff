package wa

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultMediaCacheSize = 64
	maxMediaBytes         = 64 << 20
)

// mediaFetcher downloads remote media for upload. Bodies are cached by URL so a
// batch that repeats one attachment downloads it once.
type mediaFetcher struct {
	client *http.Client
	cache  *lru.Cache[string, []byte]
	group  singleflight.Group
}

func newMediaFetcher(size int, client *http.Client) (*mediaFetcher, error) {
	if size <= 0 {
		size = defaultMediaCacheSize
	}
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, fmt.Errorf("media cache: %w", err)
	}
	return &mediaFetcher{client: client, cache: cache}, nil
}

func (f *mediaFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if data, ok := f.cache.Get(url); ok {
		return data, nil
	}

	v, err, _ := f.group.Do(url, func() (any, error) {
		data, err := f.download(ctx, url)
		if err != nil {
			return nil, err
		}
		f.cache.Add(url, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (f *mediaFetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("media request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read media: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("media exceeds %d bytes", maxMediaBytes)
	}
	return data, nil
}
