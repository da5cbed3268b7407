package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"streamgate/internal/rescache"
)

// Client wraps HTTP calls to the streamgate server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new streamgate API client.
func NewClient(serverURL string) *Client {
	return &Client{
		baseURL: serverURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) get(path string, result any) error {
	resp, err := c.httpClient.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(result)
}

func (c *Client) post(path string, result any) error {
	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// API response types (mirror server types)

type SiteStats struct {
	Series     int            `json:"series"`
	Episodes   int            `json:"episodes"`
	Resolvable int            `json:"resolvable"`
	Languages  map[string]int `json:"languages"`
	Providers  map[string]int `json:"providers"`
}

type StatusResponse struct {
	Status  string               `json:"status"`
	Version string               `json:"version"`
	Sites   map[string]SiteStats `json:"sites"`
	Cache   rescache.Stats       `json:"cache"`
}

type EpisodeInfoResponse struct {
	ID        string         `json:"id"`
	Season    int            `json:"season"`
	Episode   int            `json:"episode"`
	Languages map[string]int `json:"languages"`
	Providers []string       `json:"providers"`
	Cached    bool           `json:"cached"`
	CachedURL string         `json:"cached_url,omitempty"`
}

type SeriesEntry struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	DisplayName string `json:"display_name"`
	Episodes    int    `json:"episodes"`
}

type SeriesListResponse struct {
	Site   string        `json:"site"`
	Series []SeriesEntry `json:"series"`
	Total  int           `json:"total"`
}

type ClearResponse struct {
	Cleared int    `json:"cleared"`
	Site    string `json:"site,omitempty"`
}

// API methods

func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.get("/api/v1/status", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Info(id string) (*EpisodeInfoResponse, error) {
	var resp EpisodeInfoResponse
	if err := c.get("/api/v1/info/"+url.PathEscape(id), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Series(site string) (*SeriesListResponse, error) {
	var resp SeriesListResponse
	if err := c.get("/api/v1/catalog/"+url.PathEscape(site)+"/series", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CacheStats() (*rescache.Stats, error) {
	var resp rescache.Stats
	if err := c.get("/api/v1/cache/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CacheClear(site string) (*ClearResponse, error) {
	path := "/api/v1/cache/clear"
	if site != "" {
		path += "?site=" + url.QueryEscape(site)
	}
	var resp ClearResponse
	if err := c.post(path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CatalogReload(site string) error {
	return c.post("/api/v1/catalog/reload/"+url.PathEscape(site), nil)
}
