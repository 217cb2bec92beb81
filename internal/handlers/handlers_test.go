package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jwebster45206/orchard-engine/internal/services/queue"
	"github.com/jwebster45206/orchard-engine/internal/storage"
	"github.com/jwebster45206/orchard-engine/internal/worker"
	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/tutorial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testAPI struct {
	router *mux.Router
	store  *storage.MockStorage
	queue  *queue.ActionQueue
	mr     *miniredis.Miniredis
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := queue.NewClient(mr.Addr(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	log := testLogger()
	store := storage.NewMockStorage()
	q := queue.NewActionQueue(client)
	processor := worker.NewProcessor(store, nil, 0, log)

	router := NewRouter(RouterConfig{
		Health:  NewHealthHandler(map[string]Pinger{"storage": store, "queue": client}, log),
		Catalog: NewCatalogHandler(catalog.Default(), log),
		Games:   NewGamesHandler(processor, store, q, nil, log),
		Logger:  log,
	})
	return &testAPI{router: router, store: store, queue: q, mr: mr}
}

func (a *testAPI) do(t *testing.T, method, path string, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func (a *testAPI) createGame(t *testing.T) uuid.UUID {
	t.Helper()
	rr := a.do(t, http.MethodPost, "/v1/games", "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var resp GameResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.ID
}

func TestGames_CreateAndRead(t *testing.T) {
	api := newTestAPI(t)
	id := api.createGame(t)

	rr := api.do(t, http.MethodGet, "/v1/games/"+id.String(), "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp GameResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.ID)
	assert.Equal(t, 1, resp.View.Level)
	assert.Equal(t, string(tutorial.StepMove), resp.View.Tutorial.Step)
	assert.Len(t, resp.View.Plots, 8)
	require.Len(t, resp.View.NPCs, 1)
	assert.Equal(t, "E1", resp.View.NPCs[0].QuestID)
}

func TestGames_ReadErrors(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"bad id", "/v1/games/not-a-uuid", http.StatusBadRequest},
		{"unknown game", "/v1/games/" + uuid.NewString(), http.StatusNotFound},
		{"unknown snapshot", "/v1/games/" + uuid.NewString() + "/snapshot", http.StatusNotFound},
		{"bad format", "/v1/games/" + uuid.NewString() + "/snapshot?format=xml", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, rr.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestGames_QueueAction(t *testing.T) {
	api := newTestAPI(t)
	id := api.createGame(t)
	path := "/v1/games/" + id.String() + "/actions"

	rr := api.do(t, http.MethodPost, path, `{"kind":"plant","plotId":"plot-1","treeId":"oak"}`)
	require.Equal(t, http.StatusAccepted, rr.Code, rr.Body.String())

	var resp ActionResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, queue.StatusQueued, resp.Status)
	assert.Equal(t, id, resp.GameID)

	depth, err := api.queue.RequestQueueDepth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, depth)

	rr = api.do(t, http.MethodGet, "/v1/games/"+id.String()+"/requests/"+resp.RequestID, "")
	require.Equal(t, http.StatusOK, rr.Code)
	var status queue.Status
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, queue.StatusQueued, status.Status)

	rr = api.do(t, http.MethodGet, "/v1/games/"+uuid.NewString()+"/requests/"+resp.RequestID, "")
	assert.Equal(t, http.StatusNotFound, rr.Code, "status is scoped to its game")
}

func TestGames_QueueActionErrors(t *testing.T) {
	api := newTestAPI(t)
	id := api.createGame(t)

	tests := []struct {
		name   string
		game   string
		body   string
		status int
	}{
		{"malformed", id.String(), `{"kind":`, http.StatusBadRequest},
		{"unknown kind", id.String(), `{"kind":"dance"}`, http.StatusBadRequest},
		{"missing field", id.String(), `{"kind":"water"}`, http.StatusBadRequest},
		{"unknown game", uuid.NewString(), `{"kind":"move"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := api.do(t, http.MethodPost, "/v1/games/"+tt.game+"/actions", tt.body)
			assert.Equal(t, tt.status, rr.Code)
		})
	}

	depth, err := api.queue.RequestQueueDepth(context.Background())
	require.NoError(t, err)
	assert.Zero(t, depth)
}

func TestGames_SnapshotExportImport(t *testing.T) {
	api := newTestAPI(t)
	id := api.createGame(t)
	path := "/v1/games/" + id.String() + "/snapshot"

	rr := api.do(t, http.MethodGet, path+"?format=yaml", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/yaml", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "tutorial:")

	yamlBody := rr.Body.String()
	other := uuid.New()
	rr = api.do(t, http.MethodPut, "/v1/games/"+other.String()+"/snapshot", yamlBody, "Content-Type", "application/yaml")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var imported ImportResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &imported))
	assert.Equal(t, other, imported.ID)
	assert.Equal(t, string(tutorial.StepMove), imported.View.Tutorial.Step)

	rr = api.do(t, http.MethodGet, "/v1/games/"+other.String()+"/snapshot", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	rr = api.do(t, http.MethodPut, path, "{not json", "Content-Type", "application/json")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	huge := bytes.Repeat([]byte(" "), maxSnapshotBytes+1)
	rr = api.do(t, http.MethodPut, path, string(huge))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestGames_Delete(t *testing.T) {
	api := newTestAPI(t)
	id := api.createGame(t)

	rr := api.do(t, http.MethodDelete, "/v1/games/"+id.String(), "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = api.do(t, http.MethodGet, "/v1/games/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGames_MethodNotAllowed(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodPatch, "/v1/games/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestCatalogHandler(t *testing.T) {
	api := newTestAPI(t)
	rr := api.do(t, http.MethodGet, "/v1/catalog", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var cat catalog.Catalog
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cat))
	assert.NotEmpty(t, cat.Trees)
	assert.NotEmpty(t, cat.Quests)
	assert.Len(t, cat.Plots, 8)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		components     map[string]Pinger
		expectedStatus int
		expectedHealth string
	}{
		{
			name:           "all healthy",
			components:     map[string]Pinger{"storage": fakePinger{}, "queue": fakePinger{}},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
		},
		{
			name:           "unhealthy storage",
			components:     map[string]Pinger{"storage": fakePinger{err: errors.New("connection failed")}, "queue": fakePinger{}},
			expectedStatus: http.StatusServiceUnavailable,
			expectedHealth: "degraded",
		},
		{
			name:           "nil components skipped",
			components:     map[string]Pinger{"storage": fakePinger{}, "queue": nil},
			expectedStatus: http.StatusOK,
			expectedHealth: "healthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.components, testLogger())
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, rr.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.expectedHealth, resp.Status)
			assert.Equal(t, "orchard-engine", resp.Service)
		})
	}
}
