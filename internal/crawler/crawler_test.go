
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSendsJSONPreference(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "application/json" {
			w.WriteHeader(http.StatusNotAcceptable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	resp, err := client.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.ContentType)
	assert.NotEmpty(t, resp.FinalURL)
}

func TestFetchFollowsRedirectAndReportsFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html><title>x</title></html>"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	resp, err := client.Fetch(context.Background(), ts.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, ts.URL+"/new", resp.FinalURL)
}

func TestFetchKeepsErrorStatusBodies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("<html><title>Not Found</title></html>"))
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 1024)
	resp, err := client.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "Not Found")
}

func TestFetchDecodesGzipAndCapsSize(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		_, _ = gz.Write([]byte("0123456789abcdef"))
		_ = gz.Close()
	}))
	defer ts.Close()

	client := NewHTTPClient(5*time.Second, 2*time.Second, 10)
	resp, err := client.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(resp.Body))
}

func TestFetchRejectsInvalidURL(t *testing.T) {
	client := NewHTTPClient(time.Second, time.Second, 1024)
	_, err := client.Fetch(context.Background(), "not a url")
	assert.True(t, errors.Is(err, ErrInvalidURL))
}

func TestFetchConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	addr := ts.URL
	ts.Close()

	client := NewHTTPClient(time.Second, time.Second, 1024)
	_, err := client.Fetch(context.Background(), addr)
	assert.Error(t, err)
}

func TestRetryIsOptIn(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					_ = conn.Close()
				}
			}
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	single := NewHTTPClient(time.Second, time.Second, 1024)
	_, err := single.Fetch(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	calls.Store(0)
	retrying := NewHTTPClient(time.Second, time.Second, 1024,
		WithRetry(RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond}))
	resp, err := retrying.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(3), calls.Load())
}
