package repository_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chainplan/chainplan/internal/repository"
)

func TestSentinelsAreDistinct(t *testing.T) {
	require.NotErrorIs(t, repository.ErrConflict, repository.ErrNotFound)
	require.NotErrorIs(t, repository.ErrForeignKeyViolation, repository.ErrConflict)
	require.NotErrorIs(t, repository.ErrForeignKeyViolation, repository.ErrNotFound)
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("insert project: %w", repository.ErrConflict)
	require.ErrorIs(t, wrapped, repository.ErrConflict)
	require.NotErrorIs(t, wrapped, repository.ErrNotFound)
}

func TestReusePolicyDefaultsToFirstCreated(t *testing.T) {
	var policy repository.ReusePolicy
	require.Equal(t, repository.ReuseFirstCreated, policy)
	require.NotEqual(t, repository.ReuseLastUpdated, policy)
}
