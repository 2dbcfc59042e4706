// Manual smoke harness: pushes a canned sequence of events through the
// monitoring core and prints the derived feed, alerts, history, and CSV
// export. Needs no credentials.
package main

import (
	"fmt"
	"time"

	"github.com/sentinel-labs/financial-sentinel/internal/alerts"
	"github.com/sentinel-labs/financial-sentinel/internal/config"
	"github.com/sentinel-labs/financial-sentinel/internal/models"
	"github.com/sentinel-labs/financial-sentinel/internal/monitoring"
	"github.com/sentinel-labs/financial-sentinel/internal/sources"
)

func main() {
	cfg := &config.Config{
		TargetInstitutions:     []string{"Coinbase", "Chase"},
		FeedCapacity:           100,
		AlertSuppressionWindow: 5 * time.Minute,
		SpikeTweetThreshold:    50,
	}

	service := monitoring.NewService(cfg, nil, nil, sources.NewXSource(""), sources.NewGrokAnalyzer("", ""))

	now := time.Now().UTC()
	events := []models.Event{
		models.StatusEvent{
			EventBase: models.EventBase{ID: "status_1", Timestamp: now.Add(-3 * time.Minute)},
			Status:    models.EventConnected,
			Summary:   "Stream connected",
		},
		models.TweetEvent{
			EventBase:       models.EventBase{ID: "tweet_1", Timestamp: now.Add(-2 * time.Minute)},
			InstitutionName: "Coinbase",
			AuthorHandle:    "cryptotrader",
			Verified:        true,
			FollowerCount:   120000,
			TweetID:         "1",
			Text:            "Coinbase withdrawals are stuck again, anyone else?",
			Engagement:      models.Engagement{Replies: 45, Retweets: 120, Likes: 300},
		},
		models.AnalysisEvent{
			EventBase:       models.EventBase{ID: "analysis_1", Timestamp: now.Add(-1 * time.Minute)},
			InstitutionName: "Coinbase",
			RiskLevel:       models.RiskHigh,
			Summary:         "Elevated complaint volume about stuck withdrawals",
			KeyFindings:     []string{"Withdrawal delays reported", "Verified accounts amplifying"},
			TweetCount:      340,
			ViralScore:      82,
			Confidence:      0.9,
		},
		models.AnalysisEvent{
			EventBase:       models.EventBase{ID: "analysis_2", Timestamp: now},
			InstitutionName: "Chase",
			RiskLevel:       models.RiskLow,
			Summary:         "Normal operations, routine complaints only",
			TweetCount:      12,
			ViralScore:      8,
			Confidence:      0.95,
		},
	}

	for _, ev := range events {
		if err := service.Ingest(ev); err != nil {
			fmt.Printf("ingest %s: %v\n", ev.EventID(), err)
		}
	}

	fmt.Println("=== Feed (newest first) ===")
	for _, ev := range service.Feed() {
		fmt.Printf("%-12s %s %s\n", ev.Kind(), ev.OccurredAt().Format(time.RFC3339), ev.EventID())
	}

	fmt.Println("\n=== Alerts ===")
	for _, alert := range service.Alerts(alerts.FilterAll) {
		fmt.Printf("[%s] %s (read=%v)\n", alert.RiskLevel, alert.Message, alert.Read)
	}
	counts := service.AlertCounts()
	fmt.Printf("unread=%d high=%d medium=%d\n", counts.Unread, counts.UnreadHigh, counts.UnreadMedium)

	fmt.Println("\n=== History ===")
	for _, rec := range service.History() {
		fmt.Printf("%s %s viral=%.0f tweets=%d\n", rec.Institution, rec.RiskLevel, rec.ViralScore, rec.TweetCount)
	}

	fmt.Println("\n=== CSV export ===")
	data, err := service.ExportCSV()
	if err != nil {
		fmt.Printf("export failed: %v\n", err)
		return
	}
	fmt.Print(string(data))
}
