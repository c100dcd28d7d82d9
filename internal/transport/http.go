// Package transport exposes the planning workflows as a REST API.
package transport

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/chainplan/chainplan/internal/domain/project"
	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/metrics"
	"github.com/chainplan/chainplan/internal/naming"
)

const suggestionCount = 3

// Services bundles the domain services the API fronts.
type Services struct {
	Projects  *project.Service
	Scenarios *scenario.Service
	Results   *result.Service
	History   *result.History
}

// Config configures the API handler.
type Config struct {
	Services Services
	Resolver UserResolver
	Metrics  *metrics.Metrics
	BasePath string
}

type errorBody struct {
	Code        string   `json:"code"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// apiError is the error envelope for every non-2xx response.
type apiError struct {
	status int
	Body   errorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// NewServer returns the HTTP handler for the ChainPlan API. Health and
// metrics endpoints are open; everything under the base path requires a
// bearer API key.
func NewServer(cfg Config) http.Handler {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/v1"
	}

	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return &apiError{status: status, Body: errorBody{Code: codeForStatus(status), Message: msg}}
	}

	router := chi.NewRouter()
	router.Use(metricsMiddleware(cfg.Metrics))
	router.Use(AuthMiddleware(cfg.Resolver, "/health", "/metrics"))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.Metrics != nil {
		router.Handle("/metrics", cfg.Metrics.Handler())
	}

	hcfg := huma.DefaultConfig("ChainPlan API", "1.0.0")
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerProjects(group, cfg.Services)
	registerScenarios(group, cfg.Services)
	registerResults(group, cfg.Services)
	registerHistory(group, cfg.Services)

	return router
}

func metricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			m.IncHTTPRequest(r.Method, route, strconv.Itoa(rec.status))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func newAPIError(status int, code, message string) *apiError {
	return &apiError{status: status, Body: errorBody{Code: code, Message: message}}
}

// handleError maps domain errors to API responses. Name conflicts carry
// alternative name suggestions for the user to pick from.
func handleError(err error) error {
	var conflict *naming.ConflictError
	if errors.As(err, &conflict) {
		e := newAPIError(http.StatusConflict, "name_conflict", conflict.Error())
		e.Body.Suggestions = naming.Suggestions(conflict.Name, suggestionCount)
		return e
	}

	switch {
	case errors.Is(err, project.ErrNotAuthenticated),
		errors.Is(err, scenario.ErrNotAuthenticated),
		errors.Is(err, result.ErrNotAuthenticated):
		return newAPIError(http.StatusUnauthorized, "unauthorized", "user identity required")
	case errors.Is(err, result.ErrRaceExhausted):
		return newAPIError(http.StatusConflict, "race_exhausted", "concurrent writers conflicted twice, please retry")
	case errors.Is(err, project.ErrProjectNotFound),
		errors.Is(err, scenario.ErrScenarioNotFound),
		errors.Is(err, scenario.ErrProjectNotFound),
		errors.Is(err, result.ErrResultNotFound),
		errors.Is(err, result.ErrScenarioNotFound):
		return newAPIError(http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, scenario.ErrInvalidTransition):
		return newAPIError(http.StatusUnprocessableEntity, "invalid_transition", err.Error())
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, scenario.ErrInvalidInput),
		errors.Is(err, result.ErrInvalidInput):
		return newAPIError(http.StatusBadRequest, "bad_request", err.Error())
	}
	return newAPIError(http.StatusInternalServerError, "store_unavailable", "storage error, please retry")
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	default:
		return "internal_error"
	}
}

func userID(ctx context.Context) (string, error) {
	id, ok := UserFromContext(ctx)
	if !ok || id == "" {
		return "", newAPIError(http.StatusUnauthorized, "unauthorized", "user identity required")
	}
	return id, nil
}

func registerProjects(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "ensure-project",
		Method:      http.MethodPost,
		Path:        "/projects/ensure",
		Summary:     "Ensure the working project for a tool",
	}, func(ctx context.Context, input *struct {
		Body struct {
			ToolType string `json:"tool_type" enum:"gfa,forecasting,network,inventory,transportation"`
		} `json:"body"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		p, err := svc.Projects.Ensure(ctx, uid, project.ToolType(input.Body.ToolType))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-projects",
		Method:      http.MethodGet,
		Path:        "/projects",
		Summary:     "List projects",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []ProjectResponse `json:"body"`
	}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		items, err := svc.Projects.List(ctx, uid)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ProjectResponse `json:"body"`
		}{Body: mapProjects(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-project",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}",
		Summary:     "Get project",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct {
		Body ProjectResponse `json:"body"`
	}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		p, err := svc.Projects.Get(ctx, uid, input.ProjectID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ProjectResponse `json:"body"`
		}{Body: projectResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-project",
		Method:      http.MethodPatch,
		Path:        "/projects/{project_id}/name",
		Summary:     "Rename project",
	}, func(ctx context.Context, input *struct {
		ProjectID string        `path:"project_id"`
		Body      RenameRequest `json:"body"`
	}) (*struct{}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		if err := svc.Projects.Rename(ctx, uid, input.ProjectID, input.Body.Name); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-project",
		Method:      http.MethodDelete,
		Path:        "/projects/{project_id}",
		Summary:     "Delete project",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
	}) (*struct{}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		if err := svc.Projects.Delete(ctx, uid, input.ProjectID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

func registerScenarios(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID: "ensure-scenario",
		Method:      http.MethodPost,
		Path:        "/projects/{project_id}/scenarios/ensure",
		Summary:     "Ensure the working scenario for a module",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Body      struct {
			ModuleType string `json:"module_type" enum:"gfa,forecasting,network,inventory,transportation"`
		} `json:"body"`
	}) (*struct {
		Body ScenarioResponse `json:"body"`
	}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		sc, err := svc.Scenarios.Ensure(ctx, uid, input.ProjectID, scenario.ModuleType(input.Body.ModuleType))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ScenarioResponse `json:"body"`
		}{Body: scenarioResponse(sc)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-scenarios",
		Method:      http.MethodGet,
		Path:        "/projects/{project_id}/scenarios",
		Summary:     "List scenarios",
	}, func(ctx context.Context, input *struct {
		ProjectID string `path:"project_id"`
		Module    string `query:"module" enum:",gfa,forecasting,network,inventory,transportation"`
	}) (*struct {
		Body []ScenarioResponse `json:"body"`
	}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		items, err := svc.Scenarios.List(ctx, uid, input.ProjectID, scenario.ModuleType(input.Module))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ScenarioResponse `json:"body"`
		}{Body: mapScenarios(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-scenario",
		Method:      http.MethodPatch,
		Path:        "/scenarios/{scenario_id}/name",
		Summary:     "Rename scenario",
	}, func(ctx context.Context, input *struct {
		ScenarioID string        `path:"scenario_id"`
		Body       RenameRequest `json:"body"`
	}) (*struct{}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		if err := svc.Scenarios.Rename(ctx, uid, input.ScenarioID, input.Body.Name); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "set-scenario-status",
		Method:      http.MethodPost,
		Path:        "/scenarios/{scenario_id}/status",
		Summary:     "Advance scenario status",
	}, func(ctx context.Context, input *struct {
		ScenarioID string `path:"scenario_id"`
		Body       struct {
			Status string `json:"status" enum:"pending,running,completed,failed"`
		} `json:"body"`
	}) (*struct {
		Body ScenarioResponse `json:"body"`
	}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		sc, err := svc.Scenarios.SetStatus(ctx, uid, input.ScenarioID, scenario.Status(input.Body.Status))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ScenarioResponse `json:"body"`
		}{Body: scenarioResponse(sc)}, nil
	})
}

func registerResults(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-result",
		Method:        http.MethodPost,
		Path:          "/scenarios/{scenario_id}/results",
		Summary:       "Create a versioned result",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		ScenarioID string              `path:"scenario_id"`
		Body       CreateResultRequest `json:"body"`
	}) (*struct {
		Body HandleResponse `json:"body"`
	}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		sc, err := svc.Scenarios.Get(ctx, uid, input.ScenarioID)
		if err != nil {
			return nil, handleError(err)
		}
		m, err := parseMetrics(input.Body.Metrics)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", "invalid metric value: "+err.Error())
		}
		handle, err := svc.Results.Create(ctx, uid, result.CreateRequest{
			ScenarioID: sc.ID,
			ProjectID:  sc.ProjectID,
			Module:     sc.Module,
			Metrics:    m,
			Payload:    encodeJSONMap(input.Body.Payload),
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body HandleResponse `json:"body"`
		}{Body: HandleResponse{
			ID:           handle.ID,
			Name:         handle.Name,
			ResultNumber: handle.Number,
			CreatedAt:    handle.CreatedAt,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-results",
		Method:      http.MethodGet,
		Path:        "/scenarios/{scenario_id}/results",
		Summary:     "List results, most recent first",
	}, func(ctx context.Context, input *struct {
		ScenarioID string `path:"scenario_id"`
		Limit      int    `query:"limit" minimum:"0" maximum:"200"`
		Offset     int    `query:"offset" minimum:"0"`
	}) (*struct {
		Body []ResultResponse `json:"body"`
	}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		items, err := svc.Results.List(ctx, uid, input.ScenarioID, input.Limit, input.Offset)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []ResultResponse `json:"body"`
		}{Body: mapResults(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-result",
		Method:      http.MethodGet,
		Path:        "/results/{result_id}",
		Summary:     "Get result with payload",
	}, func(ctx context.Context, input *struct {
		ResultID string `path:"result_id"`
	}) (*struct {
		Body struct {
			ResultResponse
			Payload map[string]any `json:"payload,omitempty"`
		} `json:"body"`
	}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		res, payload, err := svc.Results.Get(ctx, uid, input.ResultID)
		if err != nil {
			return nil, handleError(err)
		}
		out := &struct {
			Body struct {
				ResultResponse
				Payload map[string]any `json:"payload,omitempty"`
			} `json:"body"`
		}{}
		out.Body.ResultResponse = resultResponse(res)
		out.Body.Payload = decodeJSONMap(payload)
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "rename-result",
		Method:      http.MethodPatch,
		Path:        "/results/{result_id}/name",
		Summary:     "Rename result",
	}, func(ctx context.Context, input *struct {
		ResultID string        `path:"result_id"`
		Body     RenameRequest `json:"body"`
	}) (*struct{}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		if err := svc.Results.Rename(ctx, uid, input.ResultID, input.Body.Name); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-result",
		Method:      http.MethodDelete,
		Path:        "/results/{result_id}",
		Summary:     "Delete result",
	}, func(ctx context.Context, input *struct {
		ResultID string `path:"result_id"`
	}) (*struct{}, error) {
		uid, err := userID(ctx)
		if err != nil {
			return nil, err
		}
		if err := svc.Results.Delete(ctx, uid, input.ResultID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}

// registerHistory exposes the local fallback history. Entries live in server
// memory only: best effort, single session, no durability.
func registerHistory(api huma.API, svc Services) {
	huma.Register(api, huma.Operation{
		OperationID:   "add-history-entry",
		Method:        http.MethodPost,
		Path:          "/scenarios/{scenario_id}/history",
		Summary:       "Append a local history entry",
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *struct {
		ScenarioID string `path:"scenario_id"`
		Body       struct {
			Data map[string]any `json:"data,omitempty"`
		} `json:"body"`
	}) (*struct {
		Body struct {
			ResultNumber int `json:"result_number"`
		} `json:"body"`
	}, error) {
		if _, err := userID(ctx); err != nil {
			return nil, err
		}
		n := svc.History.Add(input.ScenarioID, encodeJSONMap(input.Body.Data))
		out := &struct {
			Body struct {
				ResultNumber int `json:"result_number"`
			} `json:"body"`
		}{}
		out.Body.ResultNumber = n
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-history",
		Method:      http.MethodGet,
		Path:        "/scenarios/{scenario_id}/history",
		Summary:     "List local history entries",
	}, func(ctx context.Context, input *struct {
		ScenarioID string `path:"scenario_id"`
	}) (*struct {
		Body []HistoryEntryResponse `json:"body"`
	}, error) {
		if _, err := userID(ctx); err != nil {
			return nil, err
		}
		entries := svc.History.Results(input.ScenarioID)
		out := make([]HistoryEntryResponse, 0, len(entries))
		for _, e := range entries {
			out = append(out, historyResponse(e))
		}
		return &struct {
			Body []HistoryEntryResponse `json:"body"`
		}{Body: out}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "latest-history-entry",
		Method:      http.MethodGet,
		Path:        "/scenarios/{scenario_id}/history/latest",
		Summary:     "Get the latest local history entry",
	}, func(ctx context.Context, input *struct {
		ScenarioID string `path:"scenario_id"`
	}) (*struct {
		Body HistoryEntryResponse `json:"body"`
	}, error) {
		if _, err := userID(ctx); err != nil {
			return nil, err
		}
		entry, ok := svc.History.Latest(input.ScenarioID)
		if !ok {
			return nil, newAPIError(http.StatusNotFound, "not_found", "no history entries")
		}
		return &struct {
			Body HistoryEntryResponse `json:"body"`
		}{Body: historyResponse(entry)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-history",
		Method:      http.MethodDelete,
		Path:        "/scenarios/{scenario_id}/history",
		Summary:     "Clear local history",
	}, func(ctx context.Context, input *struct {
		ScenarioID string `path:"scenario_id"`
	}) (*struct{}, error) {
		if _, err := userID(ctx); err != nil {
			return nil, err
		}
		svc.History.Clear(input.ScenarioID)
		return &struct{}{}, nil
	})
}
