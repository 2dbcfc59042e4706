// Package watchlist tracks the user-selected institutions and decides which
// feed events are relevant to them.
package watchlist

import (
	"strings"
	"sync"

	"github.com/sentinel-labs/financial-sentinel/internal/models"
)

// Watchlist is an ordered, deduplicated set of institution display names.
// Insertion order is kept for display; matching ignores it. The dashboard
// edits the watchlist while events are being delivered, so reads always take
// the current value.
type Watchlist struct {
	mu    sync.RWMutex
	names []string
}

// New creates a watchlist seeded with the given names.
func New(names ...string) *Watchlist {
	w := &Watchlist{}
	for _, name := range names {
		w.Add(name)
	}
	return w
}

// Add appends a name unless an equal name (case-insensitive) is present.
func (w *Watchlist) Add(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.indexOf(name) >= 0 {
		return false
	}
	w.names = append(w.names, name)
	return true
}

// Remove deletes a name; removing an absent name is a no-op.
func (w *Watchlist) Remove(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	i := w.indexOf(name)
	if i < 0 {
		return false
	}
	w.names = append(w.names[:i], w.names[i+1:]...)
	return true
}

// Toggle flips membership and reports whether the name is now present.
func (w *Watchlist) Toggle(name string) bool {
	if w.Remove(name) {
		return false
	}
	return w.Add(name)
}

// Contains reports membership, case-insensitive.
func (w *Watchlist) Contains(name string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.indexOf(name) >= 0
}

// Names returns the current entries in insertion order.
func (w *Watchlist) Names() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]string, len(w.names))
	copy(out, w.names)
	return out
}

// Len returns the number of entries.
func (w *Watchlist) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.names)
}

// indexOf requires the caller to hold the lock.
func (w *Watchlist) indexOf(name string) int {
	lowered := strings.ToLower(strings.TrimSpace(name))
	for i, existing := range w.names {
		if strings.ToLower(existing) == lowered {
			return i
		}
	}
	return -1
}

// Matches reports whether an event is relevant to the given watchlist names.
// An empty watchlist never matches: the matcher highlights, it does not
// filter inclusion. Pure function; call it with a fresh Names() snapshot,
// never a cached one.
func Matches(ev models.Event, names []string) bool {
	if ev == nil || len(names) == 0 {
		return false
	}

	if institution := ev.InstitutionTag(); institution != "" {
		lowered := strings.ToLower(institution)
		for _, name := range names {
			entry := strings.ToLower(name)
			// Substring containment in either direction handles
			// abbreviations like "Chase" vs "JPMorgan Chase".
			if strings.Contains(lowered, entry) || strings.Contains(entry, lowered) {
				return true
			}
		}
		return false
	}

	if text := freeText(ev); text != "" {
		lowered := strings.ToLower(text)
		for _, name := range names {
			if strings.Contains(lowered, strings.ToLower(name)) {
				return true
			}
		}
	}
	return false
}

func freeText(ev models.Event) string {
	switch e := ev.(type) {
	case models.TweetEvent:
		return e.Text
	case models.AnalysisEvent:
		return e.Summary
	case models.StatusEvent:
		return e.Summary
	default:
		return ""
	}
}
