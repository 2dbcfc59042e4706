package sources

import (
	"context"
	"time"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

// TweetSource fetches recent tweets mentioning an institution.
type TweetSource interface {
	Name() string
	IsEnabled() bool
	FetchTweets(ctx context.Context, institution string, window time.Duration) ([]models.TweetEvent, error)
}

// Analyzer turns a batch of tweets into a risk assessment for an institution.
// Risk level and score are the backend's verdict; the core treats them as
// external facts.
type Analyzer interface {
	Name() string
	IsEnabled() bool
	Analyze(ctx context.Context, institution string, tweets []models.TweetEvent) (models.AnalysisEvent, error)
}
