// Package api exposes the monitoring core to the dashboard over HTTP: read
// accessors for feed, live results, alerts, and history, plus the mutation
// endpoints for alert state, the two clear operations, and watchlist edits.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/sentinel-labs/financial-sentinel/internal/alerts"
	"github.com/sentinel-labs/financial-sentinel/internal/metrics"
	"github.com/sentinel-labs/financial-sentinel/internal/models"
	"github.com/sentinel-labs/financial-sentinel/internal/monitoring"
	"github.com/sentinel-labs/financial-sentinel/internal/watchlist"
)

// maxEventBody bounds inbound transport messages.
const maxEventBody = 1 << 20

// Server routes dashboard requests to the monitoring core.
type Server struct {
	monitoringService *monitoring.Service
}

// NewServer creates an API server around the monitoring core.
func NewServer(monitoringService *monitoring.Service) *Server {
	return &Server{monitoringService: monitoringService}
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.handleHealth).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/trigger", s.handleTrigger).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/metrics", s.handleStats).Methods("GET")
	api.HandleFunc("/events", s.handleIngestEvent).Methods("POST")
	api.HandleFunc("/feed", s.handleFeed).Methods("GET")
	api.HandleFunc("/feed", s.handleClearFeed).Methods("DELETE")
	api.HandleFunc("/live", s.handleLiveResults).Methods("GET")
	api.HandleFunc("/alerts", s.handleAlerts).Methods("GET")
	api.HandleFunc("/alerts/read", s.handleMarkAllRead).Methods("POST")
	api.HandleFunc("/alerts/{id}/read", s.handleMarkRead).Methods("POST")
	api.HandleFunc("/alerts/{id}", s.handleDismiss).Methods("DELETE")
	api.HandleFunc("/history", s.handleHistory).Methods("GET")
	api.HandleFunc("/history", s.handleClearHistory).Methods("DELETE")
	api.HandleFunc("/history/export", s.handleExport).Methods("GET")
	api.HandleFunc("/institutions", s.handleInstitutions).Methods("GET")
	api.HandleFunc("/watchlist", s.handleWatchlist).Methods("GET")
	api.HandleFunc("/watchlist/{name}", s.handleToggleWatchlist).Methods("POST")

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s.monitoringService.GetStats()))
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	go func() {
		if err := s.monitoringService.RunMonitoring(); err != nil {
			logrus.Errorf("Manual monitoring trigger failed: %v", err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Monitoring triggered"})
}

func (s *Server) handleIngestEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	if err := s.monitoringService.IngestRaw(body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "Event ingested"})
}

// feedItem wraps a feed event with its kind tag and watchlist relevance.
// Relevance is computed fresh per request against the current watchlist.
type feedItem struct {
	Kind    models.EventKind `json:"kind"`
	Matched bool             `json:"matched"`
	Event   models.Event     `json:"event"`
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	names := s.monitoringService.Watchlist().Names()

	feed := s.monitoringService.Feed()
	items := make([]feedItem, len(feed))
	for i, ev := range feed {
		items[i] = feedItem{
			Kind:    ev.Kind(),
			Matched: watchlist.Matches(ev, names),
			Event:   ev,
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(items),
		"feed":  items,
	})
}

func (s *Server) handleClearFeed(w http.ResponseWriter, r *http.Request) {
	s.monitoringService.ClearFeed()
	writeJSON(w, http.StatusOK, map[string]string{"message": "Feed cleared"})
}

func (s *Server) handleLiveResults(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.monitoringService.LiveResults())
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	filter, err := alerts.ParseFilter(r.URL.Query().Get("level"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": s.monitoringService.Alerts(filter),
		"counts": s.monitoringService.AlertCounts(),
	})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	s.monitoringService.MarkRead(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	s.monitoringService.MarkAllRead()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	s.monitoringService.Dismiss(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// historyItem decorates a record with its trend against the previous analysis
// of the same institution.
type historyItem struct {
	models.AnalysisRecord
	Trend *historyTrend `json:"trend,omitempty"`
}

type historyTrend struct {
	PreviousLevel models.RiskLevel `json:"previous_level"`
	LevelChanged  bool             `json:"level_changed"`
	ScoreDelta    float64          `json:"score_delta"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	records := s.monitoringService.History()

	items := make([]historyItem, len(records))
	for i, rec := range records {
		items[i] = historyItem{AnalysisRecord: rec}
		if trend, ok := s.monitoringService.Trend(rec); ok {
			items[i].Trend = &historyTrend{
				PreviousLevel: trend.PreviousLevel,
				LevelChanged:  trend.LevelChanged,
				ScoreDelta:    trend.ScoreDelta,
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(items),
		"history": items,
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.monitoringService.ClearHistory()
	writeJSON(w, http.StatusOK, map[string]string{"message": "History cleared"})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.monitoringService.ExportCSV()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filename := fmt.Sprintf("history-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleInstitutions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"institutions": models.Catalog(),
		"categories":   models.Categories(),
	})
}

func (s *Server) handleWatchlist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"watchlist": s.monitoringService.Watchlist().Names(),
	})
}

func (s *Server) handleToggleWatchlist(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	watching := s.monitoringService.Watchlist().Toggle(name)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":     name,
		"watching": watching,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
