// Package alerts derives dashboard alerts from qualifying analysis events and
// owns their read/dismiss lifecycle.
package alerts

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

// DefaultSuppressionWindow bounds how recently an unread alert for the same
// institution and level must have fired to suppress a duplicate.
const DefaultSuppressionWindow = 5 * time.Minute

// Filter selects which alerts a query returns.
type Filter string

const (
	FilterAll    Filter = "ALL"
	FilterHigh   Filter = Filter(models.RiskHigh)
	FilterMedium Filter = Filter(models.RiskMedium)
)

// ParseFilter normalizes a filter string from the API; empty means ALL.
func ParseFilter(s string) (Filter, error) {
	switch Filter(strings.ToUpper(strings.TrimSpace(s))) {
	case "", FilterAll:
		return FilterAll, nil
	case FilterHigh:
		return FilterHigh, nil
	case FilterMedium:
		return FilterMedium, nil
	default:
		return "", fmt.Errorf("unknown alert filter %q", s)
	}
}

// Counts are the derived unread counters, computed on demand so the three
// mutation paths cannot drift an incremental tally.
type Counts struct {
	Unread       int `json:"unread"`
	UnreadHigh   int `json:"unread_high"`
	UnreadMedium int `json:"unread_medium"`
}

// Manager creates, deduplicates, and mutates alerts. Each qualifying analysis
// event creates at most one alert; repeated polling of the same condition is
// suppressed while an unread alert for the institution and level is recent.
type Manager struct {
	mu                sync.RWMutex
	suppressionWindow time.Duration
	alerts            []models.Alert
}

// NewManager creates a manager with the given duplicate-suppression window.
func NewManager(suppressionWindow time.Duration) *Manager {
	if suppressionWindow <= 0 {
		suppressionWindow = DefaultSuppressionWindow
	}
	return &Manager{suppressionWindow: suppressionWindow}
}

// OnAnalysis fires for every analysis event and returns the created alert, or
// nil when the risk level does not qualify or a duplicate was suppressed.
func (m *Manager) OnAnalysis(ev models.AnalysisEvent) *models.Alert {
	if !ev.RiskLevel.Alertable() {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.alerts {
		if existing.Read {
			continue
		}
		if existing.Institution != ev.InstitutionName || existing.RiskLevel != ev.RiskLevel {
			continue
		}
		if ev.Timestamp.Sub(existing.Timestamp) <= m.suppressionWindow {
			logrus.Debugf("Suppressed duplicate %s alert for %s", ev.RiskLevel, ev.InstitutionName)
			return nil
		}
	}

	alert := models.Alert{
		ID:          uuid.NewString(),
		Institution: ev.InstitutionName,
		RiskLevel:   ev.RiskLevel,
		Message:     alertMessage(ev),
		Timestamp:   ev.Timestamp,
		Read:        false,
		Details: models.AlertDetails{
			ViralScore:  ev.ViralScore,
			TweetCount:  ev.TweetCount,
			KeyFindings: ev.KeyFindings,
		},
	}
	m.alerts = append(m.alerts, alert)
	return &alert
}

func alertMessage(ev models.AnalysisEvent) string {
	if ev.Summary != "" {
		return fmt.Sprintf("%s risk detected for %s: %s", ev.RiskLevel, ev.InstitutionName, ev.Summary)
	}
	return fmt.Sprintf("%s risk detected for %s", ev.RiskLevel, ev.InstitutionName)
}

// MarkRead toggles the read state of one alert. The dashboard uses the same
// control to mark and unmark, so this flips rather than sets. Unknown ids are
// ignored: dismiss-then-markRead races from the UI are expected.
func (m *Manager) MarkRead(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Read = !m.alerts[i].Read
			return
		}
	}
}

// MarkAllRead sets every alert to read.
func (m *Manager) MarkAllRead() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		m.alerts[i].Read = true
	}
}

// Dismiss removes an alert permanently. Removing an unknown id is a no-op.
func (m *Manager) Dismiss(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts = append(m.alerts[:i], m.alerts[i+1:]...)
			return
		}
	}
}

// Alerts returns the alerts matching the filter, newest-first. Pure query.
func (m *Manager) Alerts(filter Filter) []models.Alert {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Alert, 0, len(m.alerts))
	for i := len(m.alerts) - 1; i >= 0; i-- {
		a := m.alerts[i]
		if filter == FilterAll || Filter(a.RiskLevel) == filter {
			out = append(out, a)
		}
	}
	return out
}

// Counts recomputes the unread counters from the current alert set.
func (m *Manager) Counts() Counts {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var c Counts
	for _, a := range m.alerts {
		if a.Read {
			continue
		}
		c.Unread++
		switch a.RiskLevel {
		case models.RiskHigh:
			c.UnreadHigh++
		case models.RiskMedium:
			c.UnreadMedium++
		}
	}
	return c
}
