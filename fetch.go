package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultServerURL points at the MusicBrainz web service; any server
// speaking the same release endpoint works.
const defaultServerURL = "https://musicbrainz.org/ws/2"

// fetcher retrieves release metadata documents over HTTP. The catalog
// core treats the returned bytes as opaque.
type fetcher struct {
	baseURL string
	client  *http.Client
}

func newFetcher(baseURL string) *fetcher {
	return &fetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *fetcher) fetchRelease(ctx context.Context, id string) ([]byte, error) {
	url := fmt.Sprintf(
		"%s/release/%s?inc=artist-credits+labels+discids+recordings&fmt=json",
		f.baseURL, id,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "discat/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch release %s: server returned %s", id, resp.Status)
	}
	return io.ReadAll(resp.Body)
}
