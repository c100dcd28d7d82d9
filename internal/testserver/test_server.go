// Package testserver spins up an in-process API server backed by in-memory
// SQLite and blob storage for integration tests.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainplan/chainplan/internal/blob"
	"github.com/chainplan/chainplan/internal/domain/project"
	"github.com/chainplan/chainplan/internal/domain/result"
	"github.com/chainplan/chainplan/internal/domain/scenario"
	"github.com/chainplan/chainplan/internal/sqlite"
	"github.com/chainplan/chainplan/internal/transport"
)

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Blobs  blob.Store

	Projects  *project.Service
	Scenarios *scenario.Service
	Results   *result.Service
	History   *result.History

	Token  string
	UserID string
}

func New(t *testing.T, token, userID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	projectRepo := sqlite.NewProjectRepository(db)
	scenarioRepo := sqlite.NewScenarioRepository(db)
	resultRepo := sqlite.NewResultRepository(db)
	apiKeyRepo := sqlite.NewAPIKeyRepository(db)

	blobs := blob.NewMemory()

	projectSvc := project.NewService(projectRepo, nil)
	scenarioSvc := scenario.NewService(scenarioRepo, nil)
	resultSvc := result.NewService(resultRepo, blobs, nil)
	history := result.NewHistory()

	handler := transport.NewServer(transport.Config{
		Services: transport.Services{
			Projects:  projectSvc,
			Scenarios: scenarioSvc,
			Results:   resultSvc,
			History:   history,
		},
		Resolver: &apiKeyResolver{repo: apiKeyRepo},
	})
	server := httptest.NewServer(handler)

	ts := &TestServer{
		Server:    server,
		DB:        db,
		Blobs:     blobs,
		Projects:  projectSvc,
		Scenarios: scenarioSvc,
		Results:   resultSvc,
		History:   history,
		Token:     token,
		UserID:    userID,
	}

	require.NoError(t, ts.AddAPIKey(token, userID))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

func (ts *TestServer) AddAPIKey(token, userID string) error {
	_, err := ts.DB.Exec(
		`INSERT INTO api_keys (key_hash, user_id, created_at) VALUES (?, ?, ?)`,
		transport.HashKey(token), userID, time.Now(),
	)
	return err
}

type apiKeyResolver struct {
	repo *sqlite.APIKeyRepository
}

func (r *apiKeyResolver) ResolveUser(ctx context.Context, key string) (string, error) {
	userID, err := r.repo.FindUserByHash(ctx, transport.HashKey(key))
	if err != nil || userID == "" {
		return "", transport.ErrUnauthorized
	}
	return userID, nil
}
