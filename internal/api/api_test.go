package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstock/relaydns/internal/api"
	"github.com/mstock/relaydns/internal/config"
	"github.com/mstock/relaydns/internal/querylog"
	"github.com/mstock/relaydns/internal/stats"
)

func testConfig(apiKey string) *config.Config {
	cfg := config.Default()
	cfg.API.Enabled = true
	cfg.API.Port = 8080
	cfg.API.APIKey = apiKey
	return cfg
}

func performRequest(h http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	srv := api.New(testConfig(""), nil, nil, nil)

	w := performRequest(srv.Engine(), "/api/v1/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestStats(t *testing.T) {
	st := stats.New()
	st.RecordQuery()
	st.RecordOutcome(stats.OutcomeForwarded, 64)

	srv := api.New(testConfig(""), nil, st.Snapshot, nil)

	w := performRequest(srv.Engine(), "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		GoRoutines int                    `json:"goroutines"`
		Relay      map[string]interface{} `json:"relay"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Positive(t, body.GoRoutines)
	assert.EqualValues(t, 1, body.Relay["queries_total"])
	assert.EqualValues(t, 1, body.Relay["forwarded"])
	assert.EqualValues(t, 64, body.Relay["response_bytes"])
}

func TestQueryLogDisabled(t *testing.T) {
	srv := api.New(testConfig(""), nil, nil, nil)
	w := performRequest(srv.Engine(), "/api/v1/querylog", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQueryLog(t *testing.T) {
	store, err := querylog.Open(filepath.Join(t.TempDir(), "ql.db"))
	require.NoError(t, err)
	defer store.Close()

	store.Record(querylog.Entry{
		Client:        "127.0.0.1:50000",
		QName:         "example.com",
		QType:         1,
		Outcome:       "forwarded",
		RTT:           3 * time.Millisecond,
		ResponseBytes: 64,
	})
	store.Flush()

	srv := api.New(testConfig(""), nil, nil, store)

	w := performRequest(srv.Engine(), "/api/v1/querylog?limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Entries []struct {
			QName   string `json:"qname"`
			Outcome string `json:"outcome"`
		} `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "example.com", body.Entries[0].QName)
	assert.Equal(t, "forwarded", body.Entries[0].Outcome)
}

func TestQueryLogBadLimit(t *testing.T) {
	store, err := querylog.Open(filepath.Join(t.TempDir(), "ql.db"))
	require.NoError(t, err)
	defer store.Close()

	srv := api.New(testConfig(""), nil, nil, store)
	w := performRequest(srv.Engine(), "/api/v1/querylog?limit=-3", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIKeyEnforced(t *testing.T) {
	srv := api.New(testConfig("sekrit"), nil, nil, nil)

	w := performRequest(srv.Engine(), "/api/v1/health", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(srv.Engine(), "/api/v1/health", map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(srv.Engine(), "/api/v1/health", map[string]string{"X-API-Key": "sekrit"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAddr(t *testing.T) {
	srv := api.New(testConfig(""), nil, nil, nil)
	assert.Equal(t, "127.0.0.1:8080", srv.Addr())
}
