package result

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/metrics"
	"github.com/chainplan/chainplan/internal/naming"
	"github.com/chainplan/chainplan/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Service handles result versioning against the persistent store.
type Service struct {
	repo     Repository
	payloads PayloadStore
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics wires workflow counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a new result service.
func NewService(repo Repository, payloads PayloadStore, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{repo: repo, payloads: payloads, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy reports the numbering policy of the persistent store.
func (s *Service) Policy() NumberingPolicy { return NumberMonotonic }

// CreateRequest describes a result creation request.
type CreateRequest struct {
	ScenarioID string
	ProjectID  string
	Module     scenario.ModuleType
	Metrics    map[string]decimal.Decimal
	Payload    []byte
}

// Create appends a new result to the scenario. The result number is the
// current maximum plus one so numbers are never reused, unlike names, which
// fill gaps. A uniqueness conflict (two concurrent creators computed the same
// name or number) is retried exactly once with fresh values; a second
// conflict returns ErrRaceExhausted.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Handle, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotAuthenticated
	}
	if req.ScenarioID == "" || req.ProjectID == "" || !req.Module.Valid() {
		return nil, ErrInvalidInput
	}

	id := uuid.NewString()
	key := PayloadKey(req.ScenarioID, id)
	if err := s.payloads.Put(ctx, key, req.Payload, "application/json"); err != nil {
		return nil, fmt.Errorf("storing result payload: %w", err)
	}

	res, err := s.insertNext(ctx, userID, id, key, req)
	if err == nil {
		return handleOf(res), nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return nil, err
	}

	s.metrics.IncCreateRetry()
	s.logger.Info("retrying result creation after conflict", "scenario_id", req.ScenarioID)

	res, err = s.insertNext(ctx, userID, id, key, req)
	if err == nil {
		return handleOf(res), nil
	}
	if errors.Is(err, repository.ErrConflict) {
		return nil, ErrRaceExhausted
	}
	return nil, err
}

// insertNext computes a fresh number and name and attempts one insert.
func (s *Service) insertNext(ctx context.Context, userID, id, key string, req CreateRequest) (*Result, error) {
	maxNum, err := s.repo.MaxNumber(ctx, userID, req.ScenarioID)
	if err != nil {
		return nil, fmt.Errorf("finding max result number: %w", err)
	}
	names, err := s.repo.ListNames(ctx, userID, req.ScenarioID)
	if err != nil {
		return nil, fmt.Errorf("listing result names: %w", err)
	}

	res := &Result{
		ID:         id,
		UserID:     userID,
		ScenarioID: req.ScenarioID,
		ProjectID:  req.ProjectID,
		Module:     req.Module,
		Name:       naming.NextAutoName(names, NameBase),
		Number:     maxNum + 1,
		Metrics:    req.Metrics,
		BlobKey:    key,
		SizeBytes:  int64(len(req.Payload)),
		Version:    1,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Insert(ctx, res); err != nil {
		if errors.Is(err, repository.ErrForeignKeyViolation) {
			return nil, ErrScenarioNotFound
		}
		if errors.Is(err, repository.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("creating result: %w", err)
	}
	return res, nil
}

// Get fetches a result row together with its payload.
func (s *Service) Get(ctx context.Context, userID, id string) (*Result, []byte, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, nil, ErrNotAuthenticated
	}
	res, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrResultNotFound
		}
		return nil, nil, fmt.Errorf("getting result: %w", err)
	}
	payload, err := s.payloads.Get(ctx, res.BlobKey)
	if err != nil {
		return nil, nil, fmt.Errorf("loading result payload: %w", err)
	}
	return res, payload, nil
}

// List returns the scenario's results, most recent first, with offset
// pagination. Payloads are not loaded.
func (s *Service) List(ctx context.Context, userID, scenarioID string, limit, offset int) ([]Result, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrNotAuthenticated
	}
	if scenarioID == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, userID, scenarioID, limit, offset)
}

// Rename updates a result's name after checking it isn't taken within the
// same scenario.
func (s *Service) Rename(ctx context.Context, userID, id, newName string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNotAuthenticated
	}
	newName = strings.TrimSpace(newName)
	if newName == "" || id == "" {
		return ErrInvalidInput
	}

	current, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResultNotFound
		}
		return fmt.Errorf("loading result: %w", err)
	}

	existing, err := s.repo.FindByName(ctx, userID, current.ScenarioID, newName)
	if err == nil && existing.ID != id {
		s.metrics.IncNameConflict()
		return &naming.ConflictError{Name: newName}
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("checking result name: %w", err)
	}

	if err := s.repo.UpdateName(ctx, userID, id, newName); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			s.metrics.IncNameConflict()
			return &naming.ConflictError{Name: newName}
		case errors.Is(err, repository.ErrNotFound):
			return ErrResultNotFound
		}
		return fmt.Errorf("renaming result: %w", err)
	}
	return nil
}

// Delete removes a result row and its payload. The freed result number is
// never reused. Payload deletion is best-effort; an orphaned blob is logged,
// not surfaced.
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if strings.TrimSpace(userID) == "" {
		return ErrNotAuthenticated
	}
	res, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResultNotFound
		}
		return fmt.Errorf("loading result: %w", err)
	}
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrResultNotFound
		}
		return fmt.Errorf("deleting result: %w", err)
	}
	if err := s.payloads.Delete(ctx, res.BlobKey); err != nil {
		s.logger.Warn("orphaned result payload", "key", res.BlobKey, "error", err)
	}
	return nil
}

// PayloadKey derives the blob key for a result payload.
func PayloadKey(scenarioID, resultID string) string {
	return fmt.Sprintf("results/%s/%s.json", scenarioID, resultID)
}

func handleOf(res *Result) *Handle {
	return &Handle{ID: res.ID, Name: res.Name, Number: res.Number, CreatedAt: res.CreatedAt}
}
