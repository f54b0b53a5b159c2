package main

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"channel-catalog/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpstream(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	bodies := map[string]string{
		"/channels.json": `[
			{"id":"A","name":"Alpha","country":"IN","closed":null,"categories":["news"],"network":"N1"},
			{"id":"B","name":"Beta","country":"IN","closed":false,"categories":["news"],"network":"N2"},
			{"id":"C","name":"Gone","country":"IN","closed":"2020-01-01","categories":["news"]}
		]`,
		"/streams.json":    `[{"channel":"A","url":"u1"}]`,
		"/logos.json":      `[]`,
		"/categories.json": `[{"id":"news","name":"News"}]`,
		"/languages.json":  `[{"code":"hin","name":"Hindi"},{"code":"fra","name":"French"}]`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, ok := bodies[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestServerEndToEnd(t *testing.T) {
	var hits atomic.Int32
	upstream := newUpstream(t, &hits)

	cfg := config.Defaults()
	cfg.APIBase = upstream.URL
	cfg.FetchTimeout = 2 * time.Second

	_, router := newServer(cfg)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/api/channels/india?hasStream=true")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("ETag"))

	fetched := hits.Load()
	assert.Equal(t, int32(3), fetched)

	resp2, err := http.Get(srv.URL + "/api/channels/B")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
	assert.Equal(t, fetched, hits.Load(), "single lookups reuse the cached catalog")

	resp3, err := http.Get(srv.URL + "/api/channels/C")
	require.NoError(t, err)
	defer resp3.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp3.StatusCode)
}
