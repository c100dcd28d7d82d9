package transport

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/chainplan/chainplan/internal/domain/project"
	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
)

// ProjectResponse is the wire form of a project. The opaque payload blobs
// are decoded into free-form objects for the wire.
type ProjectResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ToolType    string         `json:"tool_type"`
	Description string         `json:"description,omitempty"`
	InputData   map[string]any `json:"input_data,omitempty"`
	ResultsData map[string]any `json:"results_data,omitempty"`
	SizeMB      float64        `json:"size_mb"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func projectResponse(p *project.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		Name:        p.Name,
		ToolType:    string(p.Tool),
		Description: p.Description,
		InputData:   decodeJSONMap(p.InputData),
		ResultsData: decodeJSONMap(p.ResultsData),
		SizeMB:      p.SizeMB,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func decodeJSONMap(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func encodeJSONMap(m map[string]any) []byte {
	if len(m) == 0 {
		return nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return raw
}

func mapProjects(items []project.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(items))
	for i := range items {
		out = append(out, projectResponse(&items[i]))
	}
	return out
}

// ScenarioResponse is the wire form of a scenario.
type ScenarioResponse struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	ModuleType string    `json:"module_type"`
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func scenarioResponse(sc *scenario.Scenario) ScenarioResponse {
	return ScenarioResponse{
		ID:         sc.ID,
		ProjectID:  sc.ProjectID,
		ModuleType: string(sc.Module),
		Name:       sc.Name,
		Status:     string(sc.Status),
		CreatedAt:  sc.CreatedAt,
		UpdatedAt:  sc.UpdatedAt,
	}
}

func mapScenarios(items []scenario.Scenario) []ScenarioResponse {
	out := make([]ScenarioResponse, 0, len(items))
	for i := range items {
		out = append(out, scenarioResponse(&items[i]))
	}
	return out
}

// ResultResponse is the wire form of a result row. Metrics are decimal
// strings so planning quantities round-trip without float drift.
type ResultResponse struct {
	ID           string            `json:"id"`
	ScenarioID   string            `json:"scenario_id"`
	ProjectID    string            `json:"project_id"`
	ModuleType   string            `json:"module_type"`
	Name         string            `json:"name"`
	ResultNumber int               `json:"result_number"`
	Metrics      map[string]string `json:"metrics,omitempty"`
	SizeBytes    int64             `json:"size_bytes"`
	Version      int               `json:"version"`
	CreatedAt    time.Time         `json:"created_at"`
}

func resultResponse(res *result.Result) ResultResponse {
	var m map[string]string
	if len(res.Metrics) > 0 {
		m = make(map[string]string, len(res.Metrics))
		for k, v := range res.Metrics {
			m[k] = v.String()
		}
	}
	return ResultResponse{
		ID:           res.ID,
		ScenarioID:   res.ScenarioID,
		ProjectID:    res.ProjectID,
		ModuleType:   string(res.Module),
		Name:         res.Name,
		ResultNumber: res.Number,
		Metrics:      m,
		SizeBytes:    res.SizeBytes,
		Version:      res.Version,
		CreatedAt:    res.CreatedAt,
	}
}

func mapResults(items []result.Result) []ResultResponse {
	out := make([]ResultResponse, 0, len(items))
	for i := range items {
		out = append(out, resultResponse(&items[i]))
	}
	return out
}

// HandleResponse identifies a freshly created result.
type HandleResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ResultNumber int       `json:"result_number"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateResultRequest is the body of a result creation call. The payload is
// the full opaque computation output; metrics are a numeric summary keyed by
// metric name, as decimal strings.
type CreateResultRequest struct {
	Metrics map[string]string `json:"metrics,omitempty"`
	Payload map[string]any    `json:"payload,omitempty"`
}

func parseMetrics(in map[string]string) (map[string]decimal.Decimal, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make(map[string]decimal.Decimal, len(in))
	for k, v := range in {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return nil, err
		}
		out[k] = d
	}
	return out, nil
}

// RenameRequest carries the requested new name.
type RenameRequest struct {
	Name string `json:"name" minLength:"1"`
}

// HistoryEntryResponse is the wire form of a local fallback history entry.
type HistoryEntryResponse struct {
	ResultNumber int            `json:"result_number"`
	Data         map[string]any `json:"data,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func historyResponse(e result.LocalEntry) HistoryEntryResponse {
	return HistoryEntryResponse{ResultNumber: e.Number, Data: decodeJSONMap(e.Data), CreatedAt: e.CreatedAt}
}
