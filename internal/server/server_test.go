package server

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/scrapegoat/internal/config"
	"github.com/GriffinCanCode/scrapegoat/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/scrapegoat/internal/logging"
	"github.com/GriffinCanCode/scrapegoat/internal/providers/fetch"
)

const page = `<html><body><a href="/1">one</a><a href="/2">two</a></body></html>`

func newTestServer(t *testing.T, cfg config.ServerConfig, pages map[string]string) *httptest.Server {
	t.Helper()
	f := fetch.Func(func(_ context.Context, url string) (string, error) {
		body, ok := pages[url]
		if !ok {
			return "", errors.New("connection refused")
		}
		return body, nil
	})
	log := logging.NewNop()
	metrics := monitoring.NewMetrics()
	s := New(cfg, fetch.NewManager(f, log, metrics), log, metrics)

	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func testServerConfig() config.ServerConfig {
	cfg := config.Default().Server
	cfg.RequestsPerSecond = 1000
	cfg.Burst = 1000
	return cfg
}

func post(t *testing.T, srv *httptest.Server, path, query string) (*http.Response, []byte) {
	t.Helper()
	body, err := json.Marshal(QueryRequest{Query: query})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(string(body)))
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, "healthy", got["status"])
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assigned := resp.Header.Get(RequestIDHeader)
	assert.Len(t, assigned, 36)

	const supplied = "0b0e4f2a-8d2c-4d6e-9f59-3b1f7c9a2e11"
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, supplied)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, supplied, resp.Header.Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "not-an-id")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEqual(t, "not-an-id", resp.Header.Get(RequestIDHeader))
}

func TestParse(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), nil)

	resp, data := post(t, srv, "/v1/parse", `VISIT 'http://x/'; SCRAPE 2 a IF @href LIKE "/";`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var got ParseResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "VISIT \"http://x/\";\nSCRAPE 2 a IF @href LIKE \"/\";", got.Canonical)
	assert.Equal(t, 1, got.Queries)
}

func TestParseErrors(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), nil)

	tests := []struct {
		name   string
		query  string
		kind   string
		line   int
		column int
	}{
		{name: "parse", query: "VISIT \"http://x/\";\nSCRAPE ;", kind: "parse error", line: 2, column: 8},
		{name: "sequence", query: "SCRAPE a;", kind: "sequence error", line: 1, column: 1},
		{name: "condition", query: `VISIT "u"; SCRAPE a IN POSITION = "x";`, kind: "condition error", line: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := post(t, srv, "/v1/parse", tt.query)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var got ErrorResponse
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.line, got.Line)
			if tt.column != 0 {
				assert.Equal(t, tt.column, got.Column)
			}
			assert.NotEmpty(t, got.Error)
		})
	}
}

func TestParseRequiresQuery(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), nil)

	resp, err := http.Post(srv.URL+"/v1/parse", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRun(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), map[string]string{"http://x/": page})

	resp, data := post(t, srv, "/v1/run", `VISIT "http://x/"; SCRAPE a; EXTRACT @href, body; OUTPUT csv --filename "links";`)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	var got struct {
		RunID   string              `json:"run_id"`
		Records []map[string]string `json:"records"`
		Outputs []Output            `json:"outputs"`
	}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.NotEmpty(t, got.RunID)
	assert.Equal(t, []map[string]string{
		{"href": "/1", "body": "one"},
		{"href": "/2", "body": "two"},
	}, got.Records)
	require.Len(t, got.Outputs, 1)
	assert.Equal(t, Output{Filename: "links.csv", Format: "csv", Body: "href,body\n/1,one\n/2,two\n"}, got.Outputs[0])
	assert.True(t, strings.Index(string(data), `"href"`) < strings.Index(string(data), `"body"`))
}

func TestRunNoRecords(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), map[string]string{"http://x/": page})

	resp, data := post(t, srv, "/v1/run", `VISIT "http://x/"; SCRAPE table;`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(data), `"records":[]`)
}

func TestRunFetchError(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), nil)

	resp, data := post(t, srv, "/v1/run", `VISIT "http://down/"; SCRAPE a;`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var got ErrorResponse
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "fetch error", got.Kind)
	assert.Contains(t, got.Error, "http://down/")
}

func TestRunTimeout(t *testing.T) {
	cfg := testServerConfig()
	cfg.RunTimeout = config.Duration{Duration: 20 * time.Millisecond}
	log := logging.NewNop()
	slow := fetch.Func(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	srv := httptest.NewServer(New(cfg, fetch.NewManager(slow, log, nil), log, nil).Handler())
	defer srv.Close()

	resp, _ := post(t, srv, "/v1/run", `VISIT "http://slow/";`)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.RequestsPerSecond = 1
	cfg.Burst = 1
	srv := newTestServer(t, cfg, nil)

	resp, _ := post(t, srv, "/v1/parse", `VISIT "u";`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = post(t, srv, "/v1/parse", `VISIT "u";`)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode, "health is not rate limited")
}

func TestCompression(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for range 200 {
		b.WriteString(`<p class="row">some repeated paragraph text</p>`)
	}
	b.WriteString("</body></html>")
	srv := newTestServer(t, testServerConfig(), map[string]string{"http://x/": b.String()})

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/v1/run",
		strings.NewReader(`{"query":"VISIT \"http://x/\"; SCRAPE p; EXTRACT body, @class;"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := http.DefaultTransport.RoundTrip(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))

	zr, err := gzip.NewReader(resp.Body)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, 200, strings.Count(string(data), "some repeated paragraph text"))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), nil)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/run", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://ui.example")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, testServerConfig(), map[string]string{"http://x/": page})
	post(t, srv, "/v1/run", `VISIT "http://x/"; SCRAPE a; EXTRACT @href;`)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), `scrapegoat_records_extracted_total 2`)
	assert.Contains(t, string(data), `scrapegoat_http_requests_total{method="POST",path="/v1/run",status="200"} 1`)
}
