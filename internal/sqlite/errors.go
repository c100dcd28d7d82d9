package sqlite

import "strings"

// modernc.org/sqlite exposes constraint failures only through the error text,
// so classification is string-based.

// isForeignKeyViolation reports whether err is a missing-parent failure, e.g.
// inserting a scenario for a deleted project or a result for a deleted
// scenario.
func isForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// isUniqueViolation reports whether err comes from one of the uniqueness
// backstops: project and scenario names in their scope, or the per-scenario
// result name and result_number indexes. It is what the ensure and
// create-result workflows branch on to recover from lost races.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
