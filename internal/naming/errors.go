package naming

import "fmt"

// ConflictError reports that a requested name is already taken within its
// scope. Services return it both from the courtesy pre-check and when the
// store's uniqueness constraint fires after a race, so callers never see a
// raw constraint error.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("name %q already exists", e.Name)
}
