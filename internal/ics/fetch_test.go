package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_CachesAndRevalidates(t *testing.T) {
	var (
		calls   atomic.Int32
		failing atomic.Bool
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if failing.Load() {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write(sampleFeed)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	f.client = srv.Client()
	src := Source{ID: "work", URL: srv.URL + "/private/feed.ics?token=secret"}
	ctx := context.Background()

	first, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, sampleFeed, first.Body)

	second, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, sampleFeed, second.Body)

	failing.Store(true)
	third, err := f.FetchOne(ctx, src)
	require.NoError(t, err)
	assert.True(t, third.FromCache)

	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_FetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.ics" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(sampleFeed)
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	f.client = srv.Client()

	results, errs := f.FetchAll(context.Background(), []Source{
		{ID: "ok", URL: srv.URL + "/ok.ics"},
		{ID: "missing", URL: srv.URL + "/missing.ics"},
		{ID: "empty"},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].Source.ID)
	assert.Len(t, errs, 2)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://calendar.example.com/...(redacted)",
		redactURL("https://calendar.example.com/private/abc.ics?token=1"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
