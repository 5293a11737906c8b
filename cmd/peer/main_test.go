package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWsURL(t *testing.T) {
	require.Equal(t, "ws://localhost:8080/api/ws/signal", wsURL("http://localhost:8080"))
	require.Equal(t, "wss://example.org/live/api/ws/signal", wsURL("https://example.org/live/"))
}

func TestStreamHelpers(t *testing.T) {
	req := require.New(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/streams":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"stream":{"id":"01abc","title":"t","streamerId":"s1","status":"live"}}`))
		case r.URL.Path == "/api/streams":
			_, _ = w.Write([]byte(`{"streams":[{"id":"01abc","title":"t","streamerId":"s1","status":"live","viewerCount":3}]}`))
		case r.URL.Path == "/api/ice":
			_, _ = w.Write([]byte(`{"iceServers":[{"urls":["stun:a"]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	ctx := context.Background()

	id, err := createStream(ctx, srv.URL, "t", "s1")
	req.NoError(err)
	req.Equal("01abc", id)

	rows, err := listStreams(ctx, srv.URL)
	req.NoError(err)
	req.Len(rows, 1)
	req.Equal(3, rows[0].ViewerCount)
	req.Equal("s1", string(rows[0].StreamerID))

	cfg, err := fetchICE(ctx, srv.URL)
	req.NoError(err)
	req.Equal([]string{"stun:a"}, cfg.ICEServers[0].URLs)
}
