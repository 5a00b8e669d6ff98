// Copyright 2025 Philipp Hossner
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startServer starts s on a random port and stops it when the test ends.
func startServer(t *testing.T, s *Server) string {
	t.Helper()
	require.NoError(t, s.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	errChan := make(chan error, 1)
	go func() {
		errChan <- s.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errChan:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Error("server did not shut down in time")
		}
	})
	return "http://" + s.Addr()
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestNewServer(t *testing.T) {
	server := NewServer(":9090", prometheus.NewRegistry())

	assert.NotNil(t, server)
	assert.Equal(t, ":9090", server.Addr())
}

func TestServer_ListenResolvesPort(t *testing.T) {
	server := NewServer("127.0.0.1:0", prometheus.NewRegistry())
	require.NoError(t, server.Listen())
	require.NoError(t, server.Listen(), "listen is idempotent")

	assert.NotEqual(t, "127.0.0.1:0", server.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, server.Start(ctx))
}

func TestServer_ServesMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	counter := NewCounterVec(registry, "test_renders_total", "Renders", []string{"kind"})
	counter.WithLabelValues("file").Add(2)

	base := startServer(t, NewServer("127.0.0.1:0", registry, WithServerLogger(discardLogger())))

	resp, body := get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `test_renders_total{kind="file"} 2`)
}

func TestServer_RootAndNotFound(t *testing.T) {
	base := startServer(t, NewServer("127.0.0.1:0", prometheus.NewRegistry(), WithServerLogger(discardLogger())))

	resp, body := get(t, base+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `<a href="/metrics">`)

	resp, _ = get(t, base+"/nonexistent")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_ListenError(t *testing.T) {
	first := NewServer("127.0.0.1:0", prometheus.NewRegistry())
	require.NoError(t, first.Listen())

	second := NewServer(first.Addr(), prometheus.NewRegistry(), WithShutdownTimeout(time.Second))
	err := second.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}

func TestHandler(t *testing.T) {
	registry := prometheus.NewRegistry()
	NewGaugeFunc(registry, "test_gauge", "Gauge", func() float64 { return 4 })

	rec := httptest.NewRecorder()
	Handler(registry).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_gauge 4")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
