package models

import (
	"fmt"
	"strings"
	"time"
)

// RiskLevel is the externally computed classification attached to an analysis.
type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// ParseRiskLevel normalizes a risk level string from the analysis backend.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskHigh:
		return RiskHigh, nil
	case RiskMedium:
		return RiskMedium, nil
	case RiskLow:
		return RiskLow, nil
	default:
		return "", fmt.Errorf("unknown risk level %q", s)
	}
}

// Alertable reports whether analyses at this level raise alerts.
// Only HIGH and MEDIUM qualify; LOW never alerts.
func (r RiskLevel) Alertable() bool {
	return r == RiskHigh || r == RiskMedium
}

// AlertDetails carries the analysis fields surfaced alongside an alert.
type AlertDetails struct {
	ViralScore  float64  `json:"viral_score"`
	TweetCount  int      `json:"tweet_count"`
	KeyFindings []string `json:"key_findings,omitempty"`
}

// Alert is a user-facing notification derived from a qualifying analysis event.
// Its RiskLevel is never LOW. Read state is toggled by the dashboard; dismissed
// alerts are removed permanently.
type Alert struct {
	ID          string       `json:"id"`
	Institution string       `json:"institution"`
	RiskLevel   RiskLevel    `json:"risk_level"`
	Message     string       `json:"message"`
	Timestamp   time.Time    `json:"timestamp"`
	Read        bool         `json:"read"`
	Details     AlertDetails `json:"details"`
}

// AnalysisRecord is one entry in the history ledger: the durable trace of a
// completed analysis, kept for trend comparison and export.
type AnalysisRecord struct {
	Institution string    `json:"institution"`
	Timestamp   time.Time `json:"timestamp"`
	RiskLevel   RiskLevel `json:"risk_level"`
	ViralScore  float64   `json:"viral_score"`
	TweetCount  int       `json:"tweet_count"`
	Summary     string    `json:"summary"`
	KeyFindings []string  `json:"key_findings,omitempty"`
}

// RecordFromAnalysis flattens an analysis event into its ledger record.
func RecordFromAnalysis(ev AnalysisEvent) AnalysisRecord {
	return AnalysisRecord{
		Institution: ev.InstitutionName,
		Timestamp:   ev.Timestamp,
		RiskLevel:   ev.RiskLevel,
		ViralScore:  ev.ViralScore,
		TweetCount:  ev.TweetCount,
		Summary:     ev.Summary,
		KeyFindings: ev.KeyFindings,
	}
}
