package result

import "errors"

var (
	// ErrResultNotFound indicates the result doesn't exist.
	ErrResultNotFound = errors.New("result not found")
	// ErrScenarioNotFound indicates the owning scenario doesn't exist.
	ErrScenarioNotFound = errors.New("scenario not found")
	// ErrNotAuthenticated indicates no owning user identity was supplied.
	ErrNotAuthenticated = errors.New("user identity required")
	// ErrRaceExhausted indicates two consecutive uniqueness conflicts while
	// creating a result. The bounded retry gave up; the caller should retry
	// the whole operation.
	ErrRaceExhausted = errors.New("result creation conflicted twice, giving up")
	// ErrInvalidInput indicates invalid result input.
	ErrInvalidInput = errors.New("invalid result input")
)
