package engine_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandline/httpbridge/internal/bytestream"
	"github.com/strandline/httpbridge/internal/engine"
)

func TestFastEcho(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// drain fully before the first response write, which would
		// otherwise close the request body mid-stream
		b, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Write(b)
	}))
	defer srv.Close()

	payload := strings.Repeat("fast.", 500)
	eng := engine.NewFast("fast-agent/1.0")
	resp, err := eng.Send(context.Background(), &engine.Request{
		Method:        "POST",
		URL:           srv.URL,
		Body:          bytestream.FromBytes([]byte(payload)),
		ContentLength: int64(len(payload)),
	})
	require.NoError(t, err)
	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, payload, string(got))
}

func TestFastNoFollow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	}))
	defer srv.Close()

	eng := engine.NewFast("")
	resp, err := eng.Send(context.Background(), &engine.Request{
		Method:    "GET",
		URL:       srv.URL,
		Redirects: engine.RedirectRule{Explicit: true},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/elsewhere", resp.Header.Get("Location"))
}

func TestFastContextCancel(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	eng := engine.NewFast("")
	start := time.Now()
	_, err := eng.Send(ctx, &engine.Request{Method: "GET", URL: srv.URL})
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second,
		"Send must return promptly once the context is cancelled")
}

func TestFastRedirectsWithDeadline(t *testing.T) {
	srv := redirectChain(3)
	defer srv.Close()
	eng := engine.NewFast("")

	t.Run("LimitExceeded", func(t *testing.T) {
		_, err := eng.Send(context.Background(), &engine.Request{
			Method:    "GET",
			URL:       srv.URL + "/hop/0",
			Redirects: engine.RedirectRule{Explicit: true, Follow: true, Max: 2},
			Timeout:   2 * time.Second,
		})
		require.ErrorIs(t, err, engine.ErrTooManyRedirects)
	})

	t.Run("WithinLimit", func(t *testing.T) {
		resp, err := eng.Send(context.Background(), &engine.Request{
			Method:    "GET",
			URL:       srv.URL + "/hop/0",
			Redirects: engine.RedirectRule{Explicit: true, Follow: true, Max: 5},
			Timeout:   2 * time.Second,
		})
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestFastTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, "late")
	}))
	defer srv.Close()

	eng := engine.NewFast("")
	_, err := eng.Send(context.Background(), &engine.Request{
		Method:  "GET",
		URL:     srv.URL,
		Timeout: 50 * time.Millisecond,
	})
	require.Error(t, err)
	assert.True(t, engine.IsTimeout(err), "want timeout classification, got %v", err)
}
