package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-labs/financial-sentinel/internal/alerts"
	"github.com/sentinel-labs/financial-sentinel/internal/config"
	"github.com/sentinel-labs/financial-sentinel/internal/models"
	"github.com/sentinel-labs/financial-sentinel/internal/monitoring"
)

func newTestServer(t *testing.T, institutions ...string) (*Server, *monitoring.Service) {
	t.Helper()
	cfg := &config.Config{
		TargetInstitutions:     institutions,
		FeedCapacity:           100,
		AlertSuppressionWindow: 5 * time.Minute,
		SpikeTweetThreshold:    50,
		MonitorInterval:        10 * time.Minute,
	}
	service := monitoring.NewService(cfg, nil, nil, nil, nil)
	return NewServer(service), service
}

func doRequest(t *testing.T, server *Server, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func ingestAnalysis(t *testing.T, service *monitoring.Service, institution string, level models.RiskLevel, ts time.Time) {
	t.Helper()
	require.NoError(t, service.Ingest(models.AnalysisEvent{
		EventBase:       models.EventBase{ID: "analysis_" + institution + "_" + ts.Format("150405"), Timestamp: ts},
		InstitutionName: institution,
		RiskLevel:       level,
		Summary:         "Elevated complaint volume",
		TweetCount:      340,
		ViralScore:      82,
	}))
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t, "Chase")

	rec := doRequest(t, server, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestIngestEventEndpoint(t *testing.T) {
	server, service := newTestServer(t, "Coinbase")

	payload := `{"type":"analysis","institution":"Coinbase","risk_level":"HIGH","summary":"Withdrawal freeze rumors","timestamp":"2026-08-29T10:00:00Z"}`
	rec := doRequest(t, server, "POST", "/api/events", payload)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Len(t, service.Alerts(alerts.FilterAll), 1)

	rec = doRequest(t, server, "POST", "/api/events", `{"no":"type"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestFeedEndpointMarksWatchlistMatches(t *testing.T) {
	server, service := newTestServer(t, "Coinbase")
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	ingestAnalysis(t, service, "Coinbase", models.RiskHigh, ts)
	ingestAnalysis(t, service, "Citibank", models.RiskLow, ts.Add(time.Minute))

	rec := doRequest(t, server, "GET", "/api/feed", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
		Feed  []struct {
			Kind    string `json:"kind"`
			Matched bool   `json:"matched"`
		} `json:"feed"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)

	// Newest first: Citibank is unmatched, Coinbase is watched.
	assert.Equal(t, "analysis", body.Feed[0].Kind)
	assert.False(t, body.Feed[0].Matched)
	assert.True(t, body.Feed[1].Matched)
}

func TestClearFeedEndpoint(t *testing.T) {
	server, service := newTestServer(t, "Coinbase")
	ingestAnalysis(t, service, "Coinbase", models.RiskHigh, time.Now().UTC())

	rec := doRequest(t, server, "DELETE", "/api/feed", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, service.Feed())
	// History survives the feed clear.
	assert.Len(t, service.History(), 1)
}

func TestAlertsEndpointFilter(t *testing.T) {
	server, service := newTestServer(t, "Coinbase", "Chase")
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	ingestAnalysis(t, service, "Coinbase", models.RiskHigh, ts)
	ingestAnalysis(t, service, "Chase", models.RiskMedium, ts)

	rec := doRequest(t, server, "GET", "/api/alerts?level=HIGH", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Alerts []models.Alert `json:"alerts"`
		Counts alerts.Counts  `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 1)
	assert.Equal(t, "Coinbase", body.Alerts[0].Institution)
	assert.Equal(t, alerts.Counts{Unread: 2, UnreadHigh: 1, UnreadMedium: 1}, body.Counts)

	rec = doRequest(t, server, "GET", "/api/alerts?level=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAlertLifecycleEndpoints(t *testing.T) {
	server, service := newTestServer(t, "Coinbase")
	ingestAnalysis(t, service, "Coinbase", models.RiskHigh, time.Now().UTC())

	id := service.Alerts(alerts.FilterAll)[0].ID

	rec := doRequest(t, server, "POST", "/api/alerts/"+id+"/read", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, service.Alerts(alerts.FilterAll)[0].Read)

	// Same endpoint toggles back to unread.
	rec = doRequest(t, server, "POST", "/api/alerts/"+id+"/read", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, service.Alerts(alerts.FilterAll)[0].Read)

	rec = doRequest(t, server, "DELETE", "/api/alerts/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, service.Alerts(alerts.FilterAll))

	// Operating on a dismissed alert stays a no-op.
	rec = doRequest(t, server, "POST", "/api/alerts/"+id+"/read", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMarkAllReadEndpoint(t *testing.T) {
	server, service := newTestServer(t, "Coinbase", "Chase")
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	ingestAnalysis(t, service, "Coinbase", models.RiskHigh, ts)
	ingestAnalysis(t, service, "Chase", models.RiskMedium, ts)

	rec := doRequest(t, server, "POST", "/api/alerts/read", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, alerts.Counts{}, service.AlertCounts())
}

func TestHistoryEndpointIncludesTrend(t *testing.T) {
	server, service := newTestServer(t, "Coinbase")
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	ingestAnalysis(t, service, "Coinbase", models.RiskMedium, ts)
	ingestAnalysis(t, service, "Coinbase", models.RiskHigh, ts.Add(10*time.Minute))

	rec := doRequest(t, server, "GET", "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int `json:"count"`
		History []struct {
			Institution string `json:"institution"`
			RiskLevel   string `json:"risk_level"`
			Trend       *struct {
				PreviousLevel string  `json:"previous_level"`
				LevelChanged  bool    `json:"level_changed"`
				ScoreDelta    float64 `json:"score_delta"`
			} `json:"trend"`
		} `json:"history"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 2, body.Count)

	require.NotNil(t, body.History[0].Trend)
	assert.Equal(t, "MEDIUM", body.History[0].Trend.PreviousLevel)
	assert.True(t, body.History[0].Trend.LevelChanged)
	assert.Nil(t, body.History[1].Trend)
}

func TestHistoryExportEndpoint(t *testing.T) {
	server, service := newTestServer(t, "Coinbase")
	ingestAnalysis(t, service, "Coinbase", models.RiskHigh, time.Now().UTC())

	rec := doRequest(t, server, "GET", "/api/history/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "institution,timestamp,risk_level")
	assert.Contains(t, rec.Body.String(), "Coinbase")
}

func TestClearHistoryEndpoint(t *testing.T) {
	server, service := newTestServer(t, "Coinbase")
	ingestAnalysis(t, service, "Coinbase", models.RiskHigh, time.Now().UTC())

	rec := doRequest(t, server, "DELETE", "/api/history", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, service.History())
	// The feed is untouched by a history clear.
	assert.NotEmpty(t, service.Feed())
}

func TestInstitutionsEndpoint(t *testing.T) {
	server, _ := newTestServer(t, "Chase")

	rec := doRequest(t, server, "GET", "/api/institutions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Institutions []models.Institution `json:"institutions"`
		Categories   []models.Category    `json:"categories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Institutions)
	assert.NotEmpty(t, body.Categories)
}

func TestWatchlistEndpoints(t *testing.T) {
	server, service := newTestServer(t, "Chase")

	rec := doRequest(t, server, "GET", "/api/watchlist", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Chase")

	rec = doRequest(t, server, "POST", "/api/watchlist/Coinbase", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Name     string `json:"name"`
		Watching bool   `json:"watching"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Coinbase", body.Name)
	assert.True(t, body.Watching)
	assert.True(t, service.Watchlist().Contains("Coinbase"))

	rec = doRequest(t, server, "POST", "/api/watchlist/Coinbase", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Watching)
	assert.False(t, service.Watchlist().Contains("Coinbase"))
}

func TestStatsEndpoint(t *testing.T) {
	server, service := newTestServer(t, "Coinbase")
	ingestAnalysis(t, service, "Coinbase", models.RiskHigh, time.Now().UTC())

	rec := doRequest(t, server, "GET", "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats monitoring.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalAlerts)
	assert.Equal(t, 1, stats.FeedSize)
	assert.Equal(t, 1, stats.HistorySize)
	assert.Equal(t, 1, stats.RiskBreakdown["HIGH"])
}
