package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantKind EventKind
		wantErr  bool
	}{
		{
			name:     "valid tweet",
			payload:  `{"type":"tweet","id":"tweet_1","timestamp":"2026-08-29T10:00:00Z","institution":"Chase","author_handle":"user1","text":"Chase app is down","engagement":{"replies":3,"retweets":10,"likes":25}}`,
			wantKind: EventTweet,
		},
		{
			name:     "valid analysis",
			payload:  `{"type":"analysis","institution":"Coinbase","risk_level":"HIGH","summary":"Elevated complaint volume","tweet_count":340,"viral_score":82,"confidence":0.9,"timestamp":"2026-08-29T10:00:00Z"}`,
			wantKind: EventAnalysis,
		},
		{
			name:     "analysis with lowercase risk level",
			payload:  `{"type":"analysis","institution":"Chase","risk_level":"medium","summary":"rumors","timestamp":"2026-08-29T10:00:00Z"}`,
			wantKind: EventAnalysis,
		},
		{
			name:     "valid spike",
			payload:  `{"type":"spike","institution":"Robinhood","magnitude":2.4,"timestamp":"2026-08-29T10:00:00Z"}`,
			wantKind: EventSpike,
		},
		{
			name:     "status events pass through",
			payload:  `{"type":"reconnecting","message":"Retrying stream connection"}`,
			wantKind: EventReconnecting,
		},
		{
			name:    "missing type discriminant",
			payload: `{"institution":"Chase","risk_level":"HIGH"}`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			payload: `{"type":"heartbeat","timestamp":"2026-08-29T10:00:00Z"}`,
			wantErr: true,
		},
		{
			name:    "analysis missing risk level",
			payload: `{"type":"analysis","institution":"Chase","summary":"something"}`,
			wantErr: true,
		},
		{
			name:    "analysis missing institution",
			payload: `{"type":"analysis","risk_level":"HIGH","summary":"something"}`,
			wantErr: true,
		},
		{
			name:    "tweet missing text",
			payload: `{"type":"tweet","author_handle":"user1"}`,
			wantErr: true,
		},
		{
			name:    "spike missing institution",
			payload: `{"type":"spike","magnitude":2.0}`,
			wantErr: true,
		},
		{
			name:    "not json",
			payload: `not json at all`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeEvent([]byte(tt.payload))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrMalformedEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKind, ev.Kind())
			assert.NotEmpty(t, ev.EventID())
			assert.False(t, ev.OccurredAt().IsZero())
		})
	}
}

func TestDecodeEventNormalizesIdentity(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"connected","summary":"Stream connected"}`))
	require.NoError(t, err)

	// Missing id and timestamp are stamped, not rejected.
	assert.Contains(t, ev.EventID(), "connected_")
	assert.WithinDuration(t, time.Now().UTC(), ev.OccurredAt(), 5*time.Second)
}

func TestParseRiskLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected RiskLevel
		wantErr  bool
	}{
		{input: "HIGH", expected: RiskHigh},
		{input: "medium", expected: RiskMedium},
		{input: " low ", expected: RiskLow},
		{input: "UNKNOWN", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			level, err := ParseRiskLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, level)
		})
	}
}

func TestRiskLevelAlertable(t *testing.T) {
	assert.True(t, RiskHigh.Alertable())
	assert.True(t, RiskMedium.Alertable())
	assert.False(t, RiskLow.Alertable())
}

func TestRecordFromAnalysis(t *testing.T) {
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	ev := AnalysisEvent{
		EventBase:       EventBase{ID: "analysis_1", Timestamp: ts},
		InstitutionName: "Coinbase",
		RiskLevel:       RiskHigh,
		Summary:         "Elevated complaint volume",
		KeyFindings:     []string{"Withdrawal delays"},
		TweetCount:      340,
		ViralScore:      82,
	}

	rec := RecordFromAnalysis(ev)

	assert.Equal(t, "Coinbase", rec.Institution)
	assert.Equal(t, ts, rec.Timestamp)
	assert.Equal(t, RiskHigh, rec.RiskLevel)
	assert.Equal(t, 82.0, rec.ViralScore)
	assert.Equal(t, 340, rec.TweetCount)
	assert.Equal(t, []string{"Withdrawal delays"}, rec.KeyFindings)
}
