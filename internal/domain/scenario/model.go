package scenario

import "time"

// ModuleType identifies the planning module a scenario runs under. The value
// set matches the project tool types.
type ModuleType string

const (
	ModuleGFA            ModuleType = "gfa"
	ModuleForecasting    ModuleType = "forecasting"
	ModuleNetwork        ModuleType = "network"
	ModuleInventory      ModuleType = "inventory"
	ModuleTransportation ModuleType = "transportation"
)

// Valid reports whether m is a known module type.
func (m ModuleType) Valid() bool {
	switch m {
	case ModuleGFA, ModuleForecasting, ModuleNetwork, ModuleInventory, ModuleTransportation:
		return true
	}
	return false
}

// Status represents the computation state of a scenario.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// NameBase is the auto-name base label for scenarios.
const NameBase = "Scenario"

// Scenario is a named planning run container inside a project. Names are
// unique per (project, module); results accumulate underneath it.
type Scenario struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	ProjectID string     `json:"project_id"`
	Module    ModuleType `json:"module_type"`
	Name      string     `json:"name"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
