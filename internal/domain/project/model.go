package project

import (
	"encoding/json"
	"time"
)

// ToolType identifies the planning module a project belongs to.
type ToolType string

const (
	ToolGFA            ToolType = "gfa"
	ToolForecasting    ToolType = "forecasting"
	ToolNetwork        ToolType = "network"
	ToolInventory      ToolType = "inventory"
	ToolTransportation ToolType = "transportation"
)

// Valid reports whether t is a known tool type.
func (t ToolType) Valid() bool {
	switch t {
	case ToolGFA, ToolForecasting, ToolNetwork, ToolInventory, ToolTransportation:
		return true
	}
	return false
}

// NameBase returns the auto-name base label for projects of this tool.
func (t ToolType) NameBase() string {
	switch t {
	case ToolGFA:
		return "GFA"
	case ToolForecasting:
		return "DF"
	case ToolNetwork:
		return "NO"
	case ToolInventory:
		return "IO"
	case ToolTransportation:
		return "TP"
	}
	return "Project"
}

// Project is a user-owned container for planning scenarios. Names are unique
// per user; the working project for a (user, tool) pair is created lazily by
// Ensure and reused on every later call.
type Project struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Name        string          `json:"name"`
	Tool        ToolType        `json:"tool_type"`
	Description string          `json:"description,omitempty"`
	InputData   json.RawMessage `json:"input_data,omitempty"`
	ResultsData json.RawMessage `json:"results_data,omitempty"`
	SizeMB      float64         `json:"size_mb"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
