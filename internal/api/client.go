package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"orange-console/internal/model"
)

// Client wraps calls to the catalog API. Every call is a single attempt.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates an API client for the catalog at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// BaseURL returns the catalog endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Singers returns all singers.
func (c *Client) Singers(ctx context.Context) ([]model.Singer, error) {
	var out []model.Singer
	if err := c.doJSON(ctx, "list singers", http.MethodGet, "/artists", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// AddSinger creates a singer.
func (c *Client) AddSinger(ctx context.Context, s model.Singer) (model.Singer, error) {
	var out model.Singer
	err := c.doJSON(ctx, "add singer", http.MethodPost, "/addArtist", s, &out, false)
	return out, err
}

// UpdateSinger replaces the singer stored under id.
func (c *Client) UpdateSinger(ctx context.Context, id model.ID, s model.Singer) (model.Singer, error) {
	var out model.Singer
	err := c.doJSON(ctx, "update singer", http.MethodPut, "/updateArtist/"+pathID(id), s, &out, false)
	return out, err
}

// DeleteSinger removes a singer.
func (c *Client) DeleteSinger(ctx context.Context, id model.ID) error {
	return c.doJSON(ctx, "delete singer", http.MethodDelete, "/deleteArtist/"+pathID(id), nil, nil, false)
}

// Albums returns all albums with their artists embedded.
func (c *Client) Albums(ctx context.Context) ([]model.Album, error) {
	var out []model.Album
	if err := c.doJSON(ctx, "list albums", http.MethodGet, "/albums", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// AddAlbum creates an album.
func (c *Client) AddAlbum(ctx context.Context, a model.AlbumWrite) (model.Album, error) {
	var out model.Album
	err := c.doJSON(ctx, "add album", http.MethodPost, "/addAlbum", a, &out, false)
	return out, err
}

// UpdateAlbum replaces the album stored under id.
func (c *Client) UpdateAlbum(ctx context.Context, id model.ID, a model.AlbumWrite) (model.Album, error) {
	var out model.Album
	err := c.doJSON(ctx, "update album", http.MethodPut, "/updateAlbum/"+pathID(id), a, &out, false)
	return out, err
}

// DeleteAlbum removes an album. The catalog takes the id in the body.
func (c *Client) DeleteAlbum(ctx context.Context, id model.ID) error {
	return c.doJSON(ctx, "delete album", http.MethodDelete, "/deleteAlbum", model.AlbumRef{AlbumID: id}, nil, false)
}

// Songs returns all songs.
func (c *Client) Songs(ctx context.Context) ([]model.Song, error) {
	var out []model.Song
	if err := c.doJSON(ctx, "list songs", http.MethodGet, "/songs", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// AddSong creates a song.
func (c *Client) AddSong(ctx context.Context, s model.SongWrite) (model.Song, error) {
	var out model.Song
	err := c.doJSON(ctx, "add song", http.MethodPost, "/addSong", s, &out, false)
	return out, err
}

// UpdateSong replaces the song stored under id.
func (c *Client) UpdateSong(ctx context.Context, id model.ID, s model.SongWrite) (model.Song, error) {
	var out model.Song
	err := c.doJSON(ctx, "update song", http.MethodPut, "/updateSong/"+pathID(id), s, &out, false)
	return out, err
}

// DeleteSong removes a song.
func (c *Client) DeleteSong(ctx context.Context, id model.ID) error {
	return c.doJSON(ctx, "delete song", http.MethodDelete, "/deleteSong/"+pathID(id), nil, nil, false)
}

// Recommendations returns the featured albums.
func (c *Client) Recommendations(ctx context.Context) ([]model.Recommendation, error) {
	var out []model.Recommendation
	if err := c.doJSON(ctx, "list recommendations", http.MethodGet, "/recommendations", nil, &out, true); err != nil {
		return nil, err
	}
	return out, nil
}

// AddRecommendation features an album.
func (c *Client) AddRecommendation(ctx context.Context, albumID model.ID) error {
	return c.doJSON(ctx, "add recommendation", http.MethodPost, "/addRecommendation", model.AlbumRef{AlbumID: albumID}, nil, false)
}

// DeleteRecommendation un-features an album.
func (c *Client) DeleteRecommendation(ctx context.Context, albumID model.ID) error {
	return c.doJSON(ctx, "delete recommendation", http.MethodDelete, "/deleteRecommendation", model.AlbumRef{AlbumID: albumID}, nil, false)
}

// ResolveAsset turns a stored asset path into a fetchable URL. Paths that
// already carry a scheme are returned as-is.
func (c *Client) ResolveAsset(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// doJSON issues a JSON request. List calls decode strictly; mutation
// responses vary between catalog versions, so a body that does not decode
// into out is ignored there.
func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out any, strict bool) error {
	endpoint := c.baseURL + path

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Method: method, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, Method: method, URL: endpoint, Status: resp.StatusCode, Err: readSnippet(resp.Body)}
	}

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Method: method, URL: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil && strict {
		return &TransportError{Op: op, Method: method, URL: endpoint, Err: fmt.Errorf("decode %s: %w", endpoint, err)}
	}
	return nil
}

func pathID(id model.ID) string {
	return url.PathEscape(strings.TrimSpace(id.String()))
}
