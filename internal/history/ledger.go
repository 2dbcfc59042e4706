// Package history keeps the append-only ledger of completed analyses. The
// ledger survives feed clears, backs the trend comparison on the dashboard,
// and is the source of the CSV/PDF export projection.
package history

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

// findingsDelimiter joins key findings into a single export column.
const findingsDelimiter = "; "

// Trend compares a record against the previous analysis of the same
// institution.
type Trend struct {
	PreviousLevel models.RiskLevel `json:"previous_level"`
	LevelChanged  bool             `json:"level_changed"`
	ScoreDelta    float64          `json:"score_delta"`
}

// Ledger is the append-only, arrival-ordered log of analysis records. Records
// are never edited; the only removal is an explicit user-requested Clear.
type Ledger struct {
	mu      sync.RWMutex
	records []models.AnalysisRecord
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Append adds one record. Every completed analysis appends, LOW risk
// included, so trend comparison stays continuous. A record without an
// institution is a caller bug and fails loudly.
func (l *Ledger) Append(rec models.AnalysisRecord) error {
	if rec.Institution == "" {
		return fmt.Errorf("history: record missing institution")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)
	return nil
}

// Records returns the ledger newest-first by arrival.
func (l *Ledger) Records() []models.AnalysisRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.AnalysisRecord, len(l.records))
	for i, rec := range l.records {
		out[len(l.records)-1-i] = rec
	}
	return out
}

// Len returns the number of records.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

// Clear empties the ledger. Distinct from the feed clear; only an explicit
// user request reaches here.
func (l *Ledger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
}

// Trend finds the next-older record for the same institution and returns the
// delta against it. Entries for other institutions are skipped, not treated
// as the baseline. ok is false for the first record of an institution.
func (l *Ledger) Trend(rec models.AnalysisRecord) (Trend, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// Locate the newest ledger entry matching the record, then walk back.
	start := -1
	for i := len(l.records) - 1; i >= 0; i-- {
		r := l.records[i]
		if r.Institution == rec.Institution && r.Timestamp.Equal(rec.Timestamp) {
			start = i
			break
		}
	}
	if start < 0 {
		start = len(l.records)
	}

	for i := start - 1; i >= 0; i-- {
		prev := l.records[i]
		if prev.Institution != rec.Institution {
			continue
		}
		return Trend{
			PreviousLevel: prev.RiskLevel,
			LevelChanged:  prev.RiskLevel != rec.RiskLevel,
			ScoreDelta:    rec.ViralScore - prev.ViralScore,
		}, true
	}
	return Trend{}, false
}

// ExportHeader names the columns of the export projection.
func ExportHeader() []string {
	return []string{"institution", "timestamp", "risk_level", "viral_score", "tweet_count", "summary", "key_findings"}
}

// ExportRows flattens the ledger, newest-first, into rows for the CSV/PDF
// writers. The writers own serialization concerns like quoting; this
// guarantees only the row shape.
func (l *Ledger) ExportRows() [][]string {
	records := l.Records()

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Institution,
			rec.Timestamp.UTC().Format(time.RFC3339),
			string(rec.RiskLevel),
			strconv.FormatFloat(rec.ViralScore, 'f', -1, 64),
			strconv.Itoa(rec.TweetCount),
			rec.Summary,
			strings.Join(rec.KeyFindings, findingsDelimiter),
		})
	}
	return rows
}
