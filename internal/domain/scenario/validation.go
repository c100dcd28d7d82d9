package scenario

// ValidateTransition validates a requested status transition. Failed runs may
// move back to pending for a retry; completed scenarios are terminal.
func ValidateTransition(from, to Status) error {
	valid := false
	switch from {
	case StatusPending:
		valid = to == StatusRunning
	case StatusRunning:
		valid = to == StatusCompleted || to == StatusFailed
	case StatusFailed:
		valid = to == StatusPending
	}
	if !valid {
		return ErrInvalidTransition
	}
	return nil
}
