package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/chainplan/chainplan/internal/domain/project"
	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/repository"
)

func newTestResult(id, userID, scenarioID string, number int, name string, createdAt time.Time) *result.Result {
	return &result.Result{
		ID:         id,
		UserID:     userID,
		ScenarioID: scenarioID,
		ProjectID:  "p1",
		Module:     scenario.ModuleGFA,
		Name:       name,
		Number:     number,
		BlobKey:    "results/" + scenarioID + "/" + id + ".json",
		SizeBytes:  42,
		Version:    1,
		CreatedAt:  createdAt,
	}
}

func seedScenario(t *testing.T, db *DB) {
	t.Helper()
	insertTestProject(t, db, "p1", "user1", "GFA 1", project.ToolGFA)
	insertTestScenario(t, db, "s1", "user1", "p1", "Scenario 1", scenario.ModuleGFA)
}

func TestResultRepository_InsertAndGet(t *testing.T) {
	db := NewTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()
	seedScenario(t, db)

	res := newTestResult("r1", "user1", "s1", 1, "Result 1", time.Now())
	res.Metrics = map[string]decimal.Decimal{
		"total_cost": decimal.RequireFromString("1234.56"),
	}
	require.NoError(t, repo.Insert(ctx, res))

	got, err := repo.Get(ctx, "user1", "r1")
	require.NoError(t, err)
	require.Equal(t, "Result 1", got.Name)
	require.Equal(t, 1, got.Number)
	require.Equal(t, 1, got.Version)
	require.True(t, got.Metrics["total_cost"].Equal(decimal.RequireFromString("1234.56")))
}

func TestResultRepository_UniqueNameAndNumber(t *testing.T) {
	db := NewTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()
	seedScenario(t, db)

	require.NoError(t, repo.Insert(ctx, newTestResult("r1", "user1", "s1", 1, "Result 1", time.Now())))

	sameName := newTestResult("r2", "user1", "s1", 2, "Result 1", time.Now())
	require.ErrorIs(t, repo.Insert(ctx, sameName), repository.ErrConflict)

	sameNumber := newTestResult("r3", "user1", "s1", 1, "Result 2", time.Now())
	require.ErrorIs(t, repo.Insert(ctx, sameNumber), repository.ErrConflict)
}

func TestResultRepository_InsertMissingScenario(t *testing.T) {
	db := NewTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()

	res := newTestResult("r1", "user1", "missing", 1, "Result 1", time.Now())
	require.ErrorIs(t, repo.Insert(ctx, res), repository.ErrForeignKeyViolation)
}

func TestResultRepository_MaxNumber(t *testing.T) {
	db := NewTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()
	seedScenario(t, db)

	max, err := repo.MaxNumber(ctx, "user1", "s1")
	require.NoError(t, err)
	require.Equal(t, 0, max)

	require.NoError(t, repo.Insert(ctx, newTestResult("r1", "user1", "s1", 1, "Result 1", time.Now())))
	require.NoError(t, repo.Insert(ctx, newTestResult("r2", "user1", "s1", 2, "Result 2", time.Now())))
	require.NoError(t, repo.Insert(ctx, newTestResult("r3", "user1", "s1", 3, "Result 3", time.Now())))

	// Deleting a middle row must not lower the max below the remaining peak.
	require.NoError(t, repo.Delete(ctx, "user1", "r2"))
	max, err = repo.MaxNumber(ctx, "user1", "s1")
	require.NoError(t, err)
	require.Equal(t, 3, max)
}

func TestResultRepository_ListPagination(t *testing.T) {
	db := NewTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()
	seedScenario(t, db)

	base := time.Now().Add(-time.Hour)
	for i := 1; i <= 15; i++ {
		res := newTestResult(
			fmt.Sprintf("r%02d", i), "user1", "s1", i,
			fmt.Sprintf("Result %d", i), base.Add(time.Duration(i)*time.Minute),
		)
		require.NoError(t, repo.Insert(ctx, res))
	}

	page1, err := repo.List(ctx, "user1", "s1", 10, 0)
	require.NoError(t, err)
	require.Len(t, page1, 10)
	require.Equal(t, 15, page1[0].Number, "most recent first")

	page2, err := repo.List(ctx, "user1", "s1", 10, 10)
	require.NoError(t, err)
	require.Len(t, page2, 5)

	seen := map[string]bool{}
	for _, r := range page1 {
		seen[r.ID] = true
	}
	for _, r := range page2 {
		require.False(t, seen[r.ID], "pages must not overlap")
	}
	require.Equal(t, 1, page2[len(page2)-1].Number, "oldest last")
}

func TestResultRepository_ListNames(t *testing.T) {
	db := NewTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()
	seedScenario(t, db)

	require.NoError(t, repo.Insert(ctx, newTestResult("r1", "user1", "s1", 1, "Result 1", time.Now())))
	require.NoError(t, repo.Insert(ctx, newTestResult("r2", "user1", "s1", 2, "Baseline", time.Now())))

	names, err := repo.ListNames(ctx, "user1", "s1")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"Result 1", "Baseline"}, names)
}

func TestResultRepository_UpdateName(t *testing.T) {
	db := NewTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()
	seedScenario(t, db)

	require.NoError(t, repo.Insert(ctx, newTestResult("r1", "user1", "s1", 1, "Result 1", time.Now())))
	require.NoError(t, repo.Insert(ctx, newTestResult("r2", "user1", "s1", 2, "Result 2", time.Now())))

	require.ErrorIs(t, repo.UpdateName(ctx, "user1", "r1", "Result 2"), repository.ErrConflict)
	require.NoError(t, repo.UpdateName(ctx, "user1", "r1", "Final run"))

	got, err := repo.Get(ctx, "user1", "r1")
	require.NoError(t, err)
	require.Equal(t, "Final run", got.Name)
}
