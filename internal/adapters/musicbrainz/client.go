// Package musicbrainz looks up artist metadata from the MusicBrainz
// web service.
package musicbrainz

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://musicbrainz.org/ws/2"
	defaultUserAgent = "utagoe/1.0 (https://github.com/kyoden/utagoe)"
	defaultTimeout   = 15 * time.Second
)

// ArtistInfo is the subset of a MusicBrainz artist record we keep.
type ArtistInfo struct {
	ID        string
	Name      string
	GenreTags []string
}

// Client queries the MusicBrainz artist search endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL points the client at a different endpoint, mainly for
// tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithUserAgent sets the identifying User-Agent required by the
// MusicBrainz usage policy.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type searchResponse struct {
	Artists []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Tags []struct {
			Name string `json:"name"`
		} `json:"tags"`
	} `json:"artists"`
}

// SearchArtist returns the best match for a name, or (nil, nil) when
// MusicBrainz knows no such artist.
func (c *Client) SearchArtist(ctx context.Context, name string) (*ArtistInfo, error) {
	q := url.Values{}
	q.Set("query", name)
	q.Set("fmt", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/artist/?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("musicbrainz request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("musicbrainz status %d: %s", resp.StatusCode, string(body))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode musicbrainz response: %w", err)
	}
	if len(decoded.Artists) == 0 {
		return nil, nil
	}

	best := decoded.Artists[0]
	info := &ArtistInfo{ID: best.ID, Name: best.Name}
	for _, t := range best.Tags {
		info.GenreTags = append(info.GenreTags, t.Name)
	}
	return info, nil
}
