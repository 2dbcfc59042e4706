package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// envelope is the loose wire shape delivered by the transport. Only the type
// discriminant is trusted; everything else is validated per kind before the
// event crosses into the core.
type envelope struct {
	Type        string `json:"type"`
	ID          string `json:"id"`
	Timestamp   string `json:"timestamp"`
	Institution string `json:"institution"`
	Summary     string `json:"summary"`
	Message     string `json:"message"`

	// tweet fields
	AuthorHandle  string     `json:"author_handle"`
	DisplayName   string     `json:"display_name"`
	Verified      bool       `json:"verified"`
	FollowerCount int        `json:"follower_count"`
	TweetID       string     `json:"tweet_id"`
	Text          string     `json:"text"`
	Engagement    Engagement `json:"engagement"`
	URL           string     `json:"url"`

	// analysis fields
	RiskLevel     string   `json:"risk_level"`
	RiskType      string   `json:"risk_type"`
	Urgency       float64  `json:"urgency"`
	KeyFindings   []string `json:"key_findings"`
	TweetCount    int      `json:"tweet_count"`
	ViralScore    float64  `json:"viral_score"`
	Confidence    float64  `json:"confidence"`
	TrendVelocity float64  `json:"trend_velocity"`

	// spike fields
	Magnitude float64 `json:"magnitude"`
}

// DecodeEvent parses one inbound transport message into its typed event.
// Unknown kinds and missing required fields yield ErrMalformedEvent; a missing
// id or timestamp is normalized rather than rejected, since the transport is
// allowed to omit both.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type discriminant", ErrMalformedEvent)
	}

	base := EventBase{ID: env.ID, Timestamp: parseTimestamp(env.Timestamp)}
	if base.ID == "" {
		base.ID = fmt.Sprintf("%s_%s", env.Type, uuid.NewString())
	}

	var ev Event
	switch EventKind(env.Type) {
	case EventTweet:
		ev = TweetEvent{
			EventBase:       base,
			InstitutionName: env.Institution,
			AuthorHandle:    env.AuthorHandle,
			DisplayName:     env.DisplayName,
			Verified:        env.Verified,
			FollowerCount:   env.FollowerCount,
			TweetID:         env.TweetID,
			Text:            env.Text,
			Engagement:      env.Engagement,
			URL:             env.URL,
		}
	case EventAnalysis:
		level, err := ParseRiskLevel(env.RiskLevel)
		if err != nil {
			return nil, fmt.Errorf("%w: analysis event: %v", ErrMalformedEvent, err)
		}
		ev = AnalysisEvent{
			EventBase:       base,
			InstitutionName: env.Institution,
			RiskLevel:       level,
			RiskType:        env.RiskType,
			Urgency:         env.Urgency,
			Summary:         env.Summary,
			KeyFindings:     env.KeyFindings,
			TweetCount:      env.TweetCount,
			ViralScore:      env.ViralScore,
			Confidence:      env.Confidence,
			TrendVelocity:   env.TrendVelocity,
		}
	case EventSpike:
		ev = SpikeEvent{
			EventBase:       base,
			InstitutionName: env.Institution,
			Magnitude:       env.Magnitude,
		}
	case EventConnected, EventReconnecting, EventError:
		summary := env.Summary
		if summary == "" {
			summary = env.Message
		}
		ev = StatusEvent{
			EventBase: base,
			Status:    EventKind(env.Type),
			Summary:   summary,
		}
	default:
		return nil, fmt.Errorf("%w: unknown event type %q", ErrMalformedEvent, env.Type)
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return ev, nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Now().UTC()
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Now().UTC()
}
