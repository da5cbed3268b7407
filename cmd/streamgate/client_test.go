package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamgate/internal/rescache"
)

func TestClient_Status(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/status").
		ExpectGET().
		RespondJSON(StatusResponse{
			Status:  "ok",
			Version: "1.2.3",
			Sites: map[string]SiteStats{
				"aniworld": {Series: 120, Episodes: 4000, Resolvable: 3900},
			},
			Cache: rescache.Stats{Entries: 12, Hits: 40, Misses: 14},
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	status, err := client.Status()
	require.NoError(t, err)

	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.Equal(t, 120, status.Sites["aniworld"].Series)
	assert.Equal(t, int64(40), status.Cache.Hits)
}

func TestClient_Status_ServerError(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/status").
		RespondError(http.StatusInternalServerError, "boom").
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Status()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_Series(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/catalog/aniworld/series").
		ExpectGET().
		RespondJSON(SeriesListResponse{
			Site: "aniworld",
			Series: []SeriesEntry{
				{Key: "dark", Title: "Dark", DisplayName: "Dark (2017)", Episodes: 26},
			},
			Total: 1,
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	list, err := client.Series("aniworld")
	require.NoError(t, err)
	require.Len(t, list.Series, 1)
	assert.Equal(t, "dark", list.Series[0].Key)
}

func TestClient_CacheClear(t *testing.T) {
	srv := newMockServer(t).
		ExpectPath("/api/v1/cache/clear").
		ExpectPOST().
		RespondJSON(ClearResponse{Cleared: 7, Site: "aniworld"}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	resp, err := client.CacheClear("aniworld")
	require.NoError(t, err)
	assert.Equal(t, 7, resp.Cleared)
}

func TestClient_Info(t *testing.T) {
	srv := newMockServer(t).
		ExpectGET().
		RespondJSON(EpisodeInfoResponse{
			ID:        "aniworld:dark/s01e01",
			Season:    1,
			Episode:   1,
			Languages: map[string]int{"Deutsch": 2},
			Providers: []string{"VOE"},
			Cached:    true,
			CachedURL: "https://cdn/master.m3u8",
		}).
		Build()
	defer srv.Close()

	client := NewClient(srv.URL)
	info, err := client.Info("aniworld:dark/s01e01")
	require.NoError(t, err)
	assert.True(t, info.Cached)
	assert.Equal(t, 2, info.Languages["Deutsch"])
}
