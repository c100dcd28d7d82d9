package result

import (
	"time"

	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/shopspring/decimal"
)

// NameBase is the auto-name base label for results.
const NameBase = "Result"

// NumberingPolicy selects how result numbers are assigned.
type NumberingPolicy int

const (
	// NumberMonotonic assigns max existing number + 1. Numbers freed by
	// deletion are never reused. This is the policy of the persistent store.
	NumberMonotonic NumberingPolicy = iota
	// NumberCountBased assigns current count + 1. Only the local fallback
	// history uses it; it does not survive deletions or concurrent writers.
	NumberCountBased
)

// Result is one versioned computation output of a scenario. Names and numbers
// are unique per scenario; rows are append-only except for rename and delete.
type Result struct {
	ID         string                     `json:"id"`
	UserID     string                     `json:"user_id"`
	ScenarioID string                     `json:"scenario_id"`
	ProjectID  string                     `json:"project_id"`
	Module     scenario.ModuleType        `json:"module_type"`
	Name       string                     `json:"name"`
	Number     int                        `json:"result_number"`
	Metrics    map[string]decimal.Decimal `json:"metrics,omitempty"`
	BlobKey    string                     `json:"-"`
	SizeBytes  int64                      `json:"size_bytes"`
	Version    int                        `json:"version"`
	CreatedAt  time.Time                  `json:"created_at"`
}

// Handle identifies a freshly created result. The payload is not echoed back;
// the caller already has it.
type Handle struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Number    int       `json:"result_number"`
	CreatedAt time.Time `json:"created_at"`
}
