package stream

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

func tweetAt(id string, ts time.Time) models.TweetEvent {
	return models.TweetEvent{
		EventBase: models.EventBase{ID: id, Timestamp: ts},
		Text:      "something happened",
	}
}

func analysisAt(institution string, level models.RiskLevel, ts time.Time) models.AnalysisEvent {
	return models.AnalysisEvent{
		EventBase:       models.EventBase{ID: "analysis_" + institution + ts.Format("150405"), Timestamp: ts},
		InstitutionName: institution,
		RiskLevel:       level,
		Summary:         "assessment",
	}
}

func TestBufferFeedOrdering(t *testing.T) {
	b := New(10)
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	// Arrival order deliberately disagrees with timestamp order.
	require.NoError(t, b.Ingest(tweetAt("middle", base.Add(2*time.Minute))))
	require.NoError(t, b.Ingest(tweetAt("oldest", base)))
	require.NoError(t, b.Ingest(tweetAt("newest", base.Add(5*time.Minute))))

	feed := b.Feed()
	require.Len(t, feed, 3)
	assert.Equal(t, "newest", feed[0].EventID())
	assert.Equal(t, "middle", feed[1].EventID())
	assert.Equal(t, "oldest", feed[2].EventID())
}

func TestBufferFeedTimestampTieBreak(t *testing.T) {
	b := New(10)
	ts := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	require.NoError(t, b.Ingest(tweetAt("first-arrival", ts)))
	require.NoError(t, b.Ingest(tweetAt("second-arrival", ts)))

	// Equal timestamps: the later arrival wins the higher feed position.
	feed := b.Feed()
	require.Len(t, feed, 2)
	assert.Equal(t, "second-arrival", feed[0].EventID())
	assert.Equal(t, "first-arrival", feed[1].EventID())
}

func TestBufferEvictsOldestArrivals(t *testing.T) {
	b := New(3)
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ev := tweetAt(fmt.Sprintf("ev%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, b.Ingest(ev))
	}

	assert.Equal(t, 3, b.Len())

	feed := b.Feed()
	require.Len(t, feed, 3)
	assert.Equal(t, "ev4", feed[0].EventID())
	assert.Equal(t, "ev3", feed[1].EventID())
	assert.Equal(t, "ev2", feed[2].EventID())
}

func TestBufferRejectsMalformed(t *testing.T) {
	b := New(10)

	err := b.Ingest(nil)
	assert.ErrorIs(t, err, models.ErrMalformedEvent)

	err = b.Ingest(models.TweetEvent{EventBase: models.EventBase{ID: "t1", Timestamp: time.Now()}})
	assert.ErrorIs(t, err, models.ErrMalformedEvent)

	assert.Equal(t, 0, b.Len())
}

func TestBufferLiveResultOverwrite(t *testing.T) {
	b := New(10)
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	require.NoError(t, b.Ingest(analysisAt("Coinbase", models.RiskMedium, base)))
	require.NoError(t, b.Ingest(analysisAt("Chase", models.RiskLow, base.Add(time.Minute))))
	require.NoError(t, b.Ingest(analysisAt("Coinbase", models.RiskHigh, base.Add(2*time.Minute))))

	live := b.LiveResults()
	require.Len(t, live, 2)
	assert.Equal(t, models.RiskHigh, live["Coinbase"].RiskLevel)
	assert.Equal(t, models.RiskLow, live["Chase"].RiskLevel)
}

func TestBufferClear(t *testing.T) {
	b := New(10)
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	require.NoError(t, b.Ingest(tweetAt("t1", base)))
	require.NoError(t, b.Ingest(analysisAt("Coinbase", models.RiskHigh, base)))

	b.Clear()

	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Feed())
	assert.Empty(t, b.LiveResults())
}

func TestBufferDefaultCapacity(t *testing.T) {
	b := New(0)
	base := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)

	for i := 0; i < DefaultCapacity+20; i++ {
		ev := tweetAt(fmt.Sprintf("ev%d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, b.Ingest(ev))
	}

	assert.Equal(t, DefaultCapacity, b.Len())
}
