package models

import (
	"errors"
	"fmt"
	"time"
)

// EventKind discriminates the event union on the wire and in the feed.
type EventKind string

const (
	EventTweet        EventKind = "tweet"
	EventAnalysis     EventKind = "analysis"
	EventSpike        EventKind = "spike"
	EventConnected    EventKind = "connected"
	EventReconnecting EventKind = "reconnecting"
	EventError        EventKind = "error"
)

// ErrMalformedEvent marks inbound events that fail discriminant or
// required-field validation. The stream boundary is untrusted, so these are
// reported and dropped rather than allowed to halt monitoring.
var ErrMalformedEvent = errors.New("malformed event")

// Event is the tagged union of everything that can appear in the live feed.
// Each variant carries only the fields its kind defines; events are immutable
// once ingested.
type Event interface {
	Kind() EventKind
	EventID() string
	OccurredAt() time.Time
	// InstitutionTag returns the explicit institution the event refers to,
	// or "" when the kind carries none.
	InstitutionTag() string
	// Validate reports ErrMalformedEvent when required fields for the
	// kind are missing.
	Validate() error
}

// EventBase holds the identity fields every event kind shares.
type EventBase struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func (b EventBase) EventID() string       { return b.ID }
func (b EventBase) OccurredAt() time.Time { return b.Timestamp }

func (b EventBase) validate(kind EventKind) error {
	if b.ID == "" {
		return fmt.Errorf("%w: %s event missing id", ErrMalformedEvent, kind)
	}
	if b.Timestamp.IsZero() {
		return fmt.Errorf("%w: %s event missing timestamp", ErrMalformedEvent, kind)
	}
	return nil
}

// Engagement holds the public interaction counts of a tweet.
type Engagement struct {
	Replies  int `json:"replies"`
	Retweets int `json:"retweets"`
	Likes    int `json:"likes"`
}

// TweetEvent is a single tweet surfaced by the X API collector.
type TweetEvent struct {
	EventBase
	InstitutionName string     `json:"institution,omitempty"`
	AuthorHandle    string     `json:"author_handle"`
	DisplayName     string     `json:"display_name,omitempty"`
	Verified        bool       `json:"verified"`
	FollowerCount   int        `json:"follower_count"`
	TweetID         string     `json:"tweet_id"`
	Text            string     `json:"text"`
	Engagement      Engagement `json:"engagement"`
	URL             string     `json:"url,omitempty"`
}

func (e TweetEvent) Kind() EventKind        { return EventTweet }
func (e TweetEvent) InstitutionTag() string { return e.InstitutionName }

func (e TweetEvent) Validate() error {
	if err := e.validate(EventTweet); err != nil {
		return err
	}
	if e.Text == "" {
		return fmt.Errorf("%w: tweet event missing text", ErrMalformedEvent)
	}
	return nil
}

// AnalysisEvent is a completed risk assessment for one institution. Risk level
// and score arrive as external facts from the analysis backend.
type AnalysisEvent struct {
	EventBase
	InstitutionName string    `json:"institution"`
	RiskLevel       RiskLevel `json:"risk_level"`
	RiskType        string    `json:"risk_type,omitempty"`
	Urgency         float64   `json:"urgency"`
	Summary         string    `json:"summary"`
	KeyFindings     []string  `json:"key_findings,omitempty"`
	TweetCount      int       `json:"tweet_count"`
	ViralScore      float64   `json:"viral_score"`
	Confidence      float64   `json:"confidence"`
	TrendVelocity   float64   `json:"trend_velocity"`
}

func (e AnalysisEvent) Kind() EventKind        { return EventAnalysis }
func (e AnalysisEvent) InstitutionTag() string { return e.InstitutionName }

func (e AnalysisEvent) Validate() error {
	if err := e.validate(EventAnalysis); err != nil {
		return err
	}
	if e.InstitutionName == "" {
		return fmt.Errorf("%w: analysis event missing institution", ErrMalformedEvent)
	}
	if _, err := ParseRiskLevel(string(e.RiskLevel)); err != nil {
		return fmt.Errorf("%w: analysis event: %v", ErrMalformedEvent, err)
	}
	return nil
}

// SpikeEvent flags an unusual burst of tweet volume for an institution.
type SpikeEvent struct {
	EventBase
	InstitutionName string  `json:"institution"`
	Magnitude       float64 `json:"magnitude"`
}

func (e SpikeEvent) Kind() EventKind        { return EventSpike }
func (e SpikeEvent) InstitutionTag() string { return e.InstitutionName }

func (e SpikeEvent) Validate() error {
	if err := e.validate(EventSpike); err != nil {
		return err
	}
	if e.InstitutionName == "" {
		return fmt.Errorf("%w: spike event missing institution", ErrMalformedEvent)
	}
	return nil
}

// StatusEvent reports transport connectivity (connected, reconnecting, error).
// The core stores it in the feed like any other event and does not interpret
// it further.
type StatusEvent struct {
	EventBase
	Status  EventKind `json:"status"`
	Summary string    `json:"summary"`
}

func (e StatusEvent) Kind() EventKind        { return e.Status }
func (e StatusEvent) InstitutionTag() string { return "" }

func (e StatusEvent) Validate() error {
	switch e.Status {
	case EventConnected, EventReconnecting, EventError:
	default:
		return fmt.Errorf("%w: unknown status kind %q", ErrMalformedEvent, e.Status)
	}
	return e.validate(e.Status)
}
