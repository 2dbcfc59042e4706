package watchlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

func analysisFor(institution string) models.AnalysisEvent {
	return models.AnalysisEvent{
		EventBase:       models.EventBase{ID: "a1", Timestamp: time.Now()},
		InstitutionName: institution,
		RiskLevel:       models.RiskMedium,
		Summary:         "assessment",
	}
}

func tweetWithText(text string) models.TweetEvent {
	return models.TweetEvent{
		EventBase: models.EventBase{ID: "t1", Timestamp: time.Now()},
		Text:      text,
	}
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name     string
		event    models.Event
		names    []string
		expected bool
	}{
		{
			name:     "exact institution match",
			event:    analysisFor("Coinbase"),
			names:    []string{"Coinbase"},
			expected: true,
		},
		{
			name:     "watchlist entry abbreviates event institution",
			event:    analysisFor("JPMorgan Chase"),
			names:    []string{"Chase"},
			expected: true,
		},
		{
			name:     "event institution abbreviates watchlist entry",
			event:    analysisFor("Chase"),
			names:    []string{"JPMorgan Chase"},
			expected: true,
		},
		{
			name:     "case insensitive",
			event:    analysisFor("coinbase"),
			names:    []string{"COINBASE"},
			expected: true,
		},
		{
			name:     "unrelated institution",
			event:    analysisFor("Citibank"),
			names:    []string{"Chase", "Coinbase"},
			expected: false,
		},
		{
			name:     "empty watchlist never matches",
			event:    analysisFor("Chase"),
			names:    nil,
			expected: false,
		},
		{
			name:     "tweet text fallback",
			event:    tweetWithText("Huge lines outside Wells Fargo branches this morning"),
			names:    []string{"Wells Fargo"},
			expected: true,
		},
		{
			name:     "tweet text without mention",
			event:    tweetWithText("Market is quiet today"),
			names:    []string{"Wells Fargo"},
			expected: false,
		},
		{
			name: "tagged event ignores text fallback",
			event: models.TweetEvent{
				EventBase:       models.EventBase{ID: "t2", Timestamp: time.Now()},
				InstitutionName: "Robinhood",
				Text:            "Chase mentioned in passing",
			},
			names:    []string{"Wells Fargo"},
			expected: false,
		},
		{
			name:     "nil event",
			event:    nil,
			names:    []string{"Chase"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Matches(tt.event, tt.names))
		})
	}
}

func TestWatchlistAddDeduplicates(t *testing.T) {
	w := New("Chase", "Coinbase")

	assert.False(t, w.Add("chase"))
	assert.False(t, w.Add("  Coinbase  "))
	assert.True(t, w.Add("Robinhood"))
	assert.False(t, w.Add(""))

	assert.Equal(t, []string{"Chase", "Coinbase", "Robinhood"}, w.Names())
}

func TestWatchlistRemove(t *testing.T) {
	w := New("Chase", "Coinbase")

	assert.True(t, w.Remove("CHASE"))
	assert.False(t, w.Remove("Chase"))
	assert.Equal(t, []string{"Coinbase"}, w.Names())
}

func TestWatchlistToggle(t *testing.T) {
	w := New("Chase")

	assert.False(t, w.Toggle("Chase"))
	assert.False(t, w.Contains("Chase"))

	assert.True(t, w.Toggle("Chase"))
	assert.True(t, w.Contains("chase"))
	assert.Equal(t, 1, w.Len())
}

func TestWatchlistNamesIsACopy(t *testing.T) {
	w := New("Chase", "Coinbase")

	names := w.Names()
	names[0] = "mutated"

	assert.Equal(t, []string{"Chase", "Coinbase"}, w.Names())
}
