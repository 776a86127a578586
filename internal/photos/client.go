package photos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/ScottStevenWhite/photosync/internal/metrics"
	"github.com/ScottStevenWhite/photosync/internal/retry"
)

// Search page sizes used by the library API.
const (
	searchPageSize = 100
	albumsPageSize = 50
)

// Client calls the remote photo library API with retry and OAuth2 auth.
type Client struct {
	baseURL     string
	uploadURL   string
	httpClient  *http.Client
	retryConfig retry.Config
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	UploadURL   string
	Timeout     time.Duration
	TokenSource oauth2.TokenSource
	RetryConfig retry.Config
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	var transport http.RoundTripper = &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if cfg.TokenSource != nil {
		transport = &oauth2.Transport{Source: cfg.TokenSource, Base: transport}
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		uploadURL: cfg.UploadURL,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		retryConfig: cfg.RetryConfig,
	}
}

// doJSON performs one API call with retry, JSON in/out, and metrics.
func (c *Client) doJSON(ctx context.Context, op, method, url string, in, out interface{}) error {
	started := time.Now()

	err := retry.Do(ctx, c.retryConfig, func() error {
		var body io.Reader
		if in != nil {
			data, err := json.Marshal(in)
			if err != nil {
				return err
			}
			body = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, body)
		if err != nil {
			return err
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.Retryable(err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return ErrNotFound
		case resp.StatusCode >= 500:
			return retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
		case resp.StatusCode != http.StatusOK:
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode, strings.TrimSpace(string(data)))
		}

		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		return json.NewDecoder(resp.Body).Decode(out)
	})

	status := "ok"
	if errors.Is(err, ErrNotFound) {
		status = "not_found"
	} else if err != nil {
		status = "error"
	}
	metrics.ObserveRemote(op, status, time.Since(started))
	return err
}

// Search returns one page of media items matching the request.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.PageSize == 0 {
		req.PageSize = searchPageSize
	}
	var resp SearchResponse
	if err := c.doJSON(ctx, "search", "POST", c.baseURL+"/mediaItems:search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchAll walks every page of a search and calls fn for each item.
func (c *Client) SearchAll(ctx context.Context, req SearchRequest, fn func(MediaItem) error) error {
	for {
		resp, err := c.Search(ctx, req)
		if err != nil {
			return err
		}
		for _, item := range resp.MediaItems {
			if err := fn(item); err != nil {
				return err
			}
		}
		if resp.NextPageToken == "" {
			return nil
		}
		req.PageToken = resp.NextPageToken
	}
}

// Get fetches a single media item by ID. Returns ErrNotFound if the item
// does not exist remotely.
func (c *Client) Get(ctx context.Context, id string) (*MediaItem, error) {
	var item MediaItem
	if err := c.doJSON(ctx, "get", "GET", c.baseURL+"/mediaItems/"+id, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ListAlbums fetches every album, walking all pages.
func (c *Client) ListAlbums(ctx context.Context) ([]Album, error) {
	var albums []Album
	pageToken := ""
	for {
		url := fmt.Sprintf("%s/albums?pageSize=%d", c.baseURL, albumsPageSize)
		if pageToken != "" {
			url += "&pageToken=" + pageToken
		}
		var resp albumsResponse
		if err := c.doJSON(ctx, "list_albums", "GET", url, nil, &resp); err != nil {
			return nil, err
		}
		albums = append(albums, resp.Albums...)
		if resp.NextPageToken == "" {
			return albums, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Download fetches the raw content behind a media item's base URL.
// The "=d" suffix requests the original bytes.
func (c *Client) Download(ctx context.Context, baseURL string) (io.ReadCloser, error) {
	started := time.Now()

	body, err := retry.DoWithResult(ctx, c.retryConfig, func() (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"=d", nil)
		if err != nil {
			return nil, err
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, retry.Retryable(err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			if resp.StatusCode >= 500 {
				return nil, retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
			}
			return nil, fmt.Errorf("download failed: %d", resp.StatusCode)
		}
		return resp.Body, nil
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ObserveRemote("download", status, time.Since(started))
	return body, err
}

// Upload pushes raw bytes and returns an upload token to finalize with Create.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	started := time.Now()

	token, err := retry.DoWithResult(ctx, c.retryConfig, func() (string, error) {
		req, err := http.NewRequestWithContext(ctx, "POST", c.uploadURL, bytes.NewReader(data))
		if err != nil {
			return "", err
		}
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set("X-Goog-Upload-File-Name", filename)
		req.Header.Set("X-Goog-Upload-Protocol", "raw")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", retry.Retryable(err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			if resp.StatusCode >= 500 {
				return "", retry.Retryable(fmt.Errorf("server error: %d", resp.StatusCode))
			}
			return "", fmt.Errorf("upload failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		if len(body) == 0 {
			return "", fmt.Errorf("upload returned empty token")
		}
		return string(body), nil
	})

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ObserveRemote("upload", status, time.Since(started))
	return token, err
}

// Create finalizes an uploaded item and returns the new media item.
func (c *Client) Create(ctx context.Context, uploadToken, description string) (*MediaItem, error) {
	req := batchCreateRequest{
		NewMediaItems: []newMediaItem{{
			Description:     description,
			SimpleMediaItem: simpleMediaItem{UploadToken: uploadToken},
		}},
	}

	var resp batchCreateResponse
	if err := c.doJSON(ctx, "create", "POST", c.baseURL+"/mediaItems:batchCreate", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.NewMediaItemResults) == 0 {
		return nil, fmt.Errorf("create: no media items in response")
	}

	result := resp.NewMediaItemResults[0]
	if result.Status.Code != 0 || result.MediaItem == nil {
		return nil, fmt.Errorf("create rejected: %s", result.Status.Message)
	}
	return result.MediaItem, nil
}

// AddToAlbum links media items to an album.
func (c *Client) AddToAlbum(ctx context.Context, albumID string, itemIDs ...string) error {
	url := fmt.Sprintf("%s/albums/%s:batchAddMediaItems", c.baseURL, albumID)
	return c.doJSON(ctx, "add_to_album", "POST", url, batchAddRequest{MediaItemIDs: itemIDs}, nil)
}
