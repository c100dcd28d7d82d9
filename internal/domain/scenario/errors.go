package scenario

import "errors"

var (
	// ErrScenarioNotFound indicates the scenario doesn't exist.
	ErrScenarioNotFound = errors.New("scenario not found")
	// ErrProjectNotFound indicates the owning project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrNotAuthenticated indicates no owning user identity was supplied.
	ErrNotAuthenticated = errors.New("user identity required")
	// ErrInvalidTransition indicates an invalid status transition.
	ErrInvalidTransition = errors.New("invalid scenario status transition")
	// ErrInvalidInput indicates invalid scenario input.
	ErrInvalidInput = errors.New("invalid scenario input")
)
