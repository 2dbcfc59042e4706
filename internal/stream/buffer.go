// Package stream owns the live event feed: a bounded, arrival-ordered buffer
// of everything the transport delivers, plus the most recent analysis result
// per institution. The newest-first feed the dashboard renders is a pure
// projection over the buffer, recomputed on every read.
package stream

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

// DefaultCapacity bounds the retained buffer when no cap is configured.
const DefaultCapacity = 250

type entry struct {
	event models.Event
	seq   uint64
}

// Buffer ingests events and maintains bounded retention. Arrival order is
// authoritative for eviction; timestamps matter only for presentation sorting.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	entries  []entry
	nextSeq  uint64
	live     map[string]models.AnalysisEvent
}

// New creates a buffer retaining at most capacity events.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		live:     make(map[string]models.AnalysisEvent),
	}
}

// Ingest validates and appends one event, evicting the oldest arrivals once
// the capacity is exceeded. Malformed events are rejected with
// models.ErrMalformedEvent and leave the buffer untouched; a bad event must
// never halt monitoring.
func (b *Buffer) Ingest(ev models.Event) error {
	if ev == nil {
		return models.ErrMalformedEvent
	}
	if err := ev.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = append(b.entries, entry{event: ev, seq: b.nextSeq})
	b.nextSeq++

	// FIFO eviction by arrival order, independent of event kind.
	if overflow := len(b.entries) - b.capacity; overflow > 0 {
		evicted := make([]entry, len(b.entries)-overflow)
		copy(evicted, b.entries[overflow:])
		b.entries = evicted
		logrus.Debugf("Evicted %d oldest events from feed buffer (capacity %d)", overflow, b.capacity)
	}

	if analysis, ok := ev.(models.AnalysisEvent); ok {
		b.live[analysis.InstitutionName] = analysis
	}

	return nil
}

// Feed returns the retained events newest-first: timestamp descending, ties
// broken by reverse arrival order. Storage order is never mutated.
func (b *Buffer) Feed() []models.Event {
	b.mu.RLock()
	snapshot := make([]entry, len(b.entries))
	copy(snapshot, b.entries)
	b.mu.RUnlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		ti, tj := snapshot[i].event.OccurredAt(), snapshot[j].event.OccurredAt()
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return snapshot[i].seq > snapshot[j].seq
	})

	feed := make([]models.Event, len(snapshot))
	for i, e := range snapshot {
		feed[i] = e.event
	}
	return feed
}

// LiveResults returns the most recent analysis event per institution.
func (b *Buffer) LiveResults() map[string]models.AnalysisEvent {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]models.AnalysisEvent, len(b.live))
	for name, ev := range b.live {
		out[name] = ev
	}
	return out
}

// Len reports how many events are currently retained.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Clear empties the feed buffer and the live-result mapping. History is a
// separate record of completed work and survives feed clears.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries = nil
	b.live = make(map[string]models.AnalysisEvent)
}
