package result

import (
	"encoding/json"
	"sync"
	"time"
)

// LocalEntry is one entry in the offline result history.
type LocalEntry struct {
	Number    int             `json:"result_number"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// History is the degraded, in-process fallback for result versioning, keyed
// by scenario ID. Numbering is count-based (no gap handling, no deletion of
// individual entries) and nothing is persisted: it is best-effort,
// single-session state for when the store is unreachable.
type History struct {
	mu      sync.Mutex
	entries map[string][]LocalEntry
}

// NewHistory creates an empty local history.
func NewHistory() *History {
	return &History{entries: make(map[string][]LocalEntry)}
}

// Policy reports the numbering policy of the local history.
func (h *History) Policy() NumberingPolicy { return NumberCountBased }

// Add appends data to the scenario's history and returns the assigned
// result number (current length + 1).
func (h *History) Add(scenarioID string, data json.RawMessage) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	entry := LocalEntry{
		Number:    len(h.entries[scenarioID]) + 1,
		Data:      data,
		CreatedAt: time.Now(),
	}
	h.entries[scenarioID] = append(h.entries[scenarioID], entry)
	return entry.Number
}

// Results returns the scenario's entries in insertion order.
func (h *History) Results(scenarioID string) []LocalEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]LocalEntry, len(h.entries[scenarioID]))
	copy(out, h.entries[scenarioID])
	return out
}

// Latest returns the most recent entry, if any.
func (h *History) Latest(scenarioID string) (LocalEntry, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.entries[scenarioID]
	if len(list) == 0 {
		return LocalEntry{}, false
	}
	return list[len(list)-1], true
}

// Clear drops the scenario's history.
func (h *History) Clear(scenarioID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.entries, scenarioID)
}
