package monitoring

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sentinel-labs/financial-sentinel/internal/alerts"
	"github.com/sentinel-labs/financial-sentinel/internal/config"
	"github.com/sentinel-labs/financial-sentinel/internal/history"
	"github.com/sentinel-labs/financial-sentinel/internal/metrics"
	"github.com/sentinel-labs/financial-sentinel/internal/models"
	"github.com/sentinel-labs/financial-sentinel/internal/notifications"
	"github.com/sentinel-labs/financial-sentinel/internal/sources"
	"github.com/sentinel-labs/financial-sentinel/internal/storage"
	"github.com/sentinel-labs/financial-sentinel/internal/stream"
	"github.com/sentinel-labs/financial-sentinel/internal/watchlist"
)

// searchWindow is how far back each cycle looks for tweets.
const searchWindow = 24 * time.Hour

// Service owns the monitoring core: the feed buffer, the alert manager, the
// history ledger, and the watchlist. It drives monitoring cycles against the
// tweet source and analyzer, and exposes the derived state the dashboard
// renders.
type Service struct {
	config              *config.Config
	buffer              *stream.Buffer
	alertManager        *alerts.Manager
	ledger              *history.Ledger
	watch               *watchlist.Watchlist
	storage             storage.StorageInterface
	notificationService notifications.NotificationInterface
	source              sources.TweetSource
	analyzer            sources.Analyzer

	mu    sync.RWMutex
	stats *Stats
}

// Stats holds the JSON metrics snapshot served to the dashboard.
type Stats struct {
	CycleCount      int            `json:"cycle_count"`
	LastRun         time.Time      `json:"last_run"`
	LastRunDuration string         `json:"last_run_duration"`
	TotalAlerts     int            `json:"total_alerts"`
	RiskBreakdown   map[string]int `json:"risk_breakdown"`
	ErrorCount      int            `json:"error_count"`
	FeedSize        int            `json:"feed_size"`
	HistorySize     int            `json:"history_size"`
}

// NewService creates the monitoring core with its collaborators.
func NewService(cfg *config.Config, store storage.StorageInterface, notificationService notifications.NotificationInterface, source sources.TweetSource, analyzer sources.Analyzer) *Service {
	return &Service{
		config:              cfg,
		buffer:              stream.New(cfg.FeedCapacity),
		alertManager:        alerts.NewManager(cfg.AlertSuppressionWindow),
		ledger:              history.NewLedger(),
		watch:               watchlist.New(cfg.TargetInstitutions...),
		storage:             store,
		notificationService: notificationService,
		source:              source,
		analyzer:            analyzer,
		stats: &Stats{
			RiskBreakdown: map[string]int{},
		},
	}
}

// Ingest feeds one event into the core. Analysis events additionally raise
// alerts and append to history; malformed events are dropped with
// models.ErrMalformedEvent so a single bad event cannot halt monitoring.
func (s *Service) Ingest(ev models.Event) error {
	if err := s.buffer.Ingest(ev); err != nil {
		if errors.Is(err, models.ErrMalformedEvent) {
			metrics.MalformedEvents.Inc()
			logrus.Warnf("Dropped malformed event: %v", err)
		}
		return err
	}
	metrics.EventsIngested.WithLabelValues(string(ev.Kind())).Inc()

	analysis, ok := ev.(models.AnalysisEvent)
	if !ok {
		return nil
	}

	if alert := s.alertManager.OnAnalysis(analysis); alert != nil {
		metrics.AlertsRaised.WithLabelValues(string(alert.RiskLevel)).Inc()
		s.recordAlert(alert.RiskLevel)
		s.dispatchAlert(alert)
	} else if analysis.RiskLevel.Alertable() {
		metrics.AlertsSuppressed.Inc()
	}

	// LOW-risk analyses still append, so trend comparison stays continuous.
	if err := s.ledger.Append(models.RecordFromAnalysis(analysis)); err != nil {
		logrus.Errorf("Failed to append history record for %s: %v", analysis.InstitutionName, err)
	}

	return nil
}

// IngestRaw decodes one transport message and ingests it.
func (s *Service) IngestRaw(data []byte) error {
	ev, err := models.DecodeEvent(data)
	if err != nil {
		metrics.MalformedEvents.Inc()
		logrus.Warnf("Dropped malformed event: %v", err)
		return err
	}
	return s.Ingest(ev)
}

// dispatchAlert forwards a new alert to the notification channels without
// blocking ingestion.
func (s *Service) dispatchAlert(alert *models.Alert) {
	if s.notificationService == nil {
		return
	}
	go func() {
		if err := s.notificationService.SendAlert(alert); err != nil {
			logrus.Errorf("Failed to deliver alert for %s: %v", alert.Institution, err)
		}
	}()
}

// RunMonitoring performs one monitoring cycle: for every watched institution,
// fetch recent tweets, surface volume spikes, run the risk analysis, and feed
// everything through the core. Source failures are reported into the feed as
// error status events and do not abort the cycle.
func (s *Service) RunMonitoring() error {
	start := time.Now()
	cycle := s.beginCycle()

	names := s.watch.Names()
	logrus.Infof("Starting monitoring cycle #%d (%d institutions)", cycle, len(names))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	s.ingestStatus(models.EventConnected, fmt.Sprintf("Monitoring cycle #%d started", cycle))

	errorCount := 0
	for _, institution := range names {
		if err := s.monitorInstitution(ctx, institution); err != nil {
			errorCount++
			metrics.CycleErrors.Inc()
			logrus.Errorf("Failed to monitor %s: %v", institution, err)
			s.ingestStatus(models.EventError, fmt.Sprintf("Analysis failed for %s: %v", institution, err))
		}
	}

	duration := time.Since(start)
	metrics.MonitoringCycles.Inc()
	metrics.CycleDuration.Observe(duration.Seconds())
	s.finishCycle(duration, errorCount)

	logrus.Infof("Monitoring cycle #%d completed in %v (%d errors)", cycle, duration, errorCount)
	return nil
}

func (s *Service) monitorInstitution(ctx context.Context, institution string) error {
	tweets, err := s.source.FetchTweets(ctx, institution, searchWindow)
	if err != nil {
		return fmt.Errorf("fetch tweets: %w", err)
	}

	for _, tweet := range tweets {
		if err := s.Ingest(tweet); err != nil {
			logrus.Warnf("Skipped tweet for %s: %v", institution, err)
		}
	}

	if threshold := s.config.SpikeTweetThreshold; threshold > 0 && len(tweets) >= threshold {
		spike := models.SpikeEvent{
			EventBase: models.EventBase{
				ID:        fmt.Sprintf("spike_%s", uuid.NewString()),
				Timestamp: time.Now().UTC(),
			},
			InstitutionName: institution,
			Magnitude:       float64(len(tweets)) / float64(threshold),
		}
		if err := s.Ingest(spike); err != nil {
			logrus.Warnf("Skipped spike event for %s: %v", institution, err)
		}
	}

	analysis, err := s.analyzer.Analyze(ctx, institution, tweets)
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	return s.Ingest(analysis)
}

func (s *Service) ingestStatus(kind models.EventKind, summary string) {
	ev := models.StatusEvent{
		EventBase: models.EventBase{
			ID:        fmt.Sprintf("%s_%s", kind, uuid.NewString()),
			Timestamp: time.Now().UTC(),
		},
		Status:  kind,
		Summary: summary,
	}
	if err := s.Ingest(ev); err != nil {
		logrus.Warnf("Skipped status event: %v", err)
	}
}

// ExportHistory serializes the ledger to CSV and stores it as a timestamped
// snapshot. Returns the snapshot filename.
func (s *Service) ExportHistory() (string, error) {
	if s.ledger.Len() == 0 {
		return "", nil
	}

	data, err := s.ExportCSV()
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("history-%s.csv", time.Now().UTC().Format("2006-01-02-15-04-05"))
	if err := s.storage.Store(filename, data); err != nil {
		return "", fmt.Errorf("failed to store history export: %w", err)
	}
	return filename, nil
}

// ExportCSV renders the export projection as CSV for download.
func (s *Service) ExportCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(history.ExportHeader()); err != nil {
		return nil, fmt.Errorf("failed to write export header: %w", err)
	}
	for _, row := range s.ledger.ExportRows() {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write export row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush export: %w", err)
	}
	return buf.Bytes(), nil
}

// Read accessors for the rendering layer.

// Feed returns the live feed, newest-first.
func (s *Service) Feed() []models.Event { return s.buffer.Feed() }

// LiveResults returns the most recent analysis per institution.
func (s *Service) LiveResults() map[string]models.AnalysisEvent { return s.buffer.LiveResults() }

// Alerts returns the alerts matching the filter, newest-first.
func (s *Service) Alerts(filter alerts.Filter) []models.Alert { return s.alertManager.Alerts(filter) }

// AlertCounts recomputes the unread counters.
func (s *Service) AlertCounts() alerts.Counts { return s.alertManager.Counts() }

// History returns the ledger, newest-first.
func (s *Service) History() []models.AnalysisRecord { return s.ledger.Records() }

// Trend compares a record against the previous analysis of its institution.
func (s *Service) Trend(rec models.AnalysisRecord) (history.Trend, bool) { return s.ledger.Trend(rec) }

// Watchlist exposes the user-editable watchlist.
func (s *Service) Watchlist() *watchlist.Watchlist { return s.watch }

// Mutations driven by the dashboard.

// MarkRead toggles the read state of one alert.
func (s *Service) MarkRead(id string) { s.alertManager.MarkRead(id) }

// MarkAllRead sets every alert to read.
func (s *Service) MarkAllRead() { s.alertManager.MarkAllRead() }

// Dismiss removes an alert permanently.
func (s *Service) Dismiss(id string) { s.alertManager.Dismiss(id) }

// ClearFeed empties the feed buffer and live results. History is untouched.
func (s *Service) ClearFeed() { s.buffer.Clear() }

// ClearHistory empties the ledger. Distinct from ClearFeed.
func (s *Service) ClearHistory() { s.ledger.Clear() }

// Cycle bookkeeping.

func (s *Service) beginCycle() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.CycleCount++
	return s.stats.CycleCount
}

func (s *Service) finishCycle(duration time.Duration, errorCount int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.LastRun = time.Now().UTC()
	s.stats.LastRunDuration = duration.String()
	s.stats.ErrorCount = errorCount
}

func (s *Service) recordAlert(level models.RiskLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.TotalAlerts++
	s.stats.RiskBreakdown[string(level)]++
}

// GetStats returns the current metrics snapshot as JSON.
func (s *Service) GetStats() string {
	s.mu.RLock()
	snapshot := *s.stats
	breakdown := make(map[string]int, len(s.stats.RiskBreakdown))
	for k, v := range s.stats.RiskBreakdown {
		breakdown[k] = v
	}
	s.mu.RUnlock()

	snapshot.RiskBreakdown = breakdown
	snapshot.FeedSize = s.buffer.Len()
	snapshot.HistorySize = s.ledger.Len()

	data, _ := json.MarshalIndent(snapshot, "", "  ")
	return string(data)
}
