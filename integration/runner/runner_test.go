package runner

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/orchard-engine/internal/handlers"
	"github.com/jwebster45206/orchard-engine/internal/services/events"
	"github.com/jwebster45206/orchard-engine/internal/services/queue"
	"github.com/jwebster45206/orchard-engine/internal/storage"
	"github.com/jwebster45206/orchard-engine/internal/worker"
	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

func ptr[T any](v T) *T { return &v }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// startStack runs the API and a worker in process against miniredis and
// file storage, the way docker-compose runs them.
func startStack(t *testing.T) string {
	t.Helper()
	log := testLogger()
	mr := miniredis.RunT(t)

	client, err := queue.NewClient(mr.Addr(), log)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	store, err := storage.NewFileStorage(t.TempDir(), save.JSONCodec{}, log)
	require.NoError(t, err)

	q := queue.NewActionQueue(client)
	processor := worker.NewProcessor(store, catalog.Default(), 0, log)
	broadcaster := events.NewBroadcaster(client.GetRedisClient(), log)

	router := handlers.NewRouter(handlers.RouterConfig{
		Health:  handlers.NewHealthHandler(map[string]handlers.Pinger{"storage": store, "queue": client}, log),
		Catalog: handlers.NewCatalogHandler(catalog.Default(), log),
		Games:   handlers.NewGamesHandler(processor, store, q, broadcaster, log),
		Logger:  log,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	w := worker.New(q, processor, client.GetRedisClient(), log, "runner-test")
	go func() { _ = w.Start() }()
	t.Cleanup(w.Stop)

	return srv.URL
}

func TestRunSuite_OpeningMoves(t *testing.T) {
	r := NewRunner(startStack(t))
	r.Logger = t.Logf
	r.ErrorHandlingMode = ErrorHandlingExit

	suite := TestSuite{
		Name: "opening moves",
		Steps: []TestStep{
			{
				Name:         "walk",
				Action:       &world.Action{Kind: world.ActMove},
				Expectations: Expectations{TutorialStep: ptr("InteractNPC"), Level: ptr(1)},
			},
			{
				Name:         "mayor arrives",
				Action:       &world.Action{Kind: world.ActTick, Seconds: 6},
				Expectations: Expectations{NPCs: []string{"E1"}},
			},
			{
				Name:         "accept",
				Action:       &world.Action{Kind: world.ActAccept, QuestID: "E1"},
				Expectations: Expectations{Quests: map[string]string{"E1": "active"}},
			},
			{
				Name:         "claim too early",
				Action:       &world.Action{Kind: world.ActClaim, QuestID: "E1"},
				ExpectReject: "not ready to claim",
			},
			{
				Name:         "buy",
				Action:       &world.Action{Kind: world.ActBuySeed, TreeID: "oak"},
				Expectations: Expectations{Seeds: map[string]int{"Oak": 1}},
			},
			{
				Name:   "plant",
				Action: &world.Action{Kind: world.ActPlant, PlotID: "plot-1", TreeID: "oak"},
				Expectations: Expectations{
					Seeds: map[string]int{"Oak": 0},
					Plots: map[string]string{"plot-1": "oak", "plot-2": "empty"},
				},
			},
			{
				Name:   "start over",
				Reseed: true,
				Expectations: Expectations{
					Coins:        ptr(300),
					TutorialStep: ptr("Move"),
					Plots:        map[string]string{"plot-1": "empty"},
				},
			},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.NoError(t, err)
	require.Len(t, result.Results, len(suite.Steps))
	for _, step := range result.Results {
		assert.True(t, step.Success, step.StepName)
	}
	assert.True(t, result.Results[len(result.Results)-1].IsReseed)
}

func TestRunSuite_ReportsFailures(t *testing.T) {
	r := NewRunner(startStack(t))

	suite := TestSuite{
		Name: "wrong expectations",
		Steps: []TestStep{
			{Name: "rich", Action: &world.Action{Kind: world.ActMove}, Expectations: Expectations{Coins: ptr(1)}},
			{Name: "rejected", Action: &world.Action{Kind: world.ActShake, PlotID: "plot-1"}},
			{Name: "empty"},
		},
	}

	result, err := r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	require.Len(t, result.Results, 3, "continue mode runs every step")
	assert.Contains(t, result.Results[0].Error.Error(), "expected 1 coins")
	assert.Contains(t, result.Results[1].Error.Error(), "was rejected")
	assert.Contains(t, result.Results[2].Error.Error(), "no action")

	r.ErrorHandlingMode = ErrorHandlingExit
	result, err = r.RunSuite(context.Background(), suite)
	require.Error(t, err)
	assert.Len(t, result.Results, 1)
}

func TestRunSuite_Seed(t *testing.T) {
	r := NewRunner(startStack(t))

	w := world.New(world.Options{})
	w.NewGame()
	require.NoError(t, w.Apply(context.Background(), world.Action{Kind: world.ActBuySeed, TreeID: "oak"}))
	seed := w.Export()

	suite := TestSuite{
		Name: "seeded",
		Seed: seed,
		Steps: []TestStep{
			{
				Name:         "plant seeded oak",
				Action:       &world.Action{Kind: world.ActPlant, PlotID: "plot-4", TreeID: "oak"},
				Expectations: Expectations{Plots: map[string]string{"plot-4": "oak"}},
			},
			{
				Name:         "back to seed",
				Reseed:       true,
				Expectations: Expectations{Seeds: map[string]int{"Oak": 1}, Plots: map[string]string{"plot-4": "empty"}},
			},
		},
	}

	_, err := r.RunSuite(context.Background(), suite)
	require.NoError(t, err)
}

func TestCheckExpectations(t *testing.T) {
	v := &world.View{
		Level:  2,
		Coins:  50,
		XP:     10,
		Seeds:  map[string]int{"Oak": 2},
		Fruits: map[string]int{"Oak": 0},
		Plots: []world.PlotView{
			{ID: "plot-1", Tree: &world.TreeView{Template: "oak"}},
			{ID: "plot-2"},
		},
		Quests:   []world.QuestView{{ID: "E1", Status: "completed"}},
		NPCs:     []world.NPCView{{QuestID: "E2", Ready: true}, {QuestID: "M1"}},
		Tutorial: world.TutorialView{Step: "SellFruit"},
	}

	tests := []struct {
		name    string
		exp     Expectations
		wantErr string
	}{
		{"empty", Expectations{}, ""},
		{"all match", Expectations{
			Level:        ptr(2),
			Coins:        ptr(50),
			MinXP:        ptr(5),
			TutorialStep: ptr("SellFruit"),
			Seeds:        map[string]int{"Oak": 2},
			Plots:        map[string]string{"plot-1": "oak", "plot-2": "empty"},
			Quests:       map[string]string{"E1": "completed"},
			NPCs:         []string{"E2"},
		}, ""},
		{"level", Expectations{Level: ptr(3)}, "expected level 3"},
		{"xp", Expectations{MinXP: ptr(11)}, "at least 11 xp"},
		{"result", Expectations{Result: ptr("won")}, "expected result"},
		{"finished", Expectations{TutorialFinished: ptr(true)}, "tutorial finished"},
		{"fruit", Expectations{Fruits: map[string]int{"Oak": 1}}, "Oak fruit"},
		{"missing plot", Expectations{Plots: map[string]string{"plot-9": "empty"}}, "plot plot-9 to exist"},
		{"plot tree", Expectations{Plots: map[string]string{"plot-2": "oak"}}, "to hold oak, got empty"},
		{"untracked quest", Expectations{Quests: map[string]string{"E3": "active"}}, "E3 to be tracked"},
		{"npc walking", Expectations{NPCs: []string{"M1"}}, "waiting with quest M1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckExpectations(tt.exp, v)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadTestSuiteWithExpansion(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		return path
	}

	write("walk.yaml", `name: walk
steps:
  - name: move
    action:
      kind: move
    expect:
      tutorial_step: InteractNPC
`)
	write("buy.json", `{"name": "buy", "steps": [{"action": {"kind": "buy_seed", "treeId": "oak"}, "expect": {"seeds": {"Oak": 1}}}]}`)
	write("inner.json", `{"name": "inner", "cases": ["buy.json"]}`)
	all := write("all.json", `{"name": "all", "cases": ["walk.yaml", "inner.json"]}`)

	jobs, err := LoadTestSuiteWithExpansion(all, dir)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "walk", jobs[0].Name)
	assert.Equal(t, world.ActMove, jobs[0].Suite.Steps[0].Action.Kind)
	assert.Equal(t, "InteractNPC", *jobs[0].Suite.Steps[0].Expectations.TutorialStep)
	assert.Equal(t, "buy", jobs[1].Name)
	assert.Equal(t, 1, jobs[1].Suite.Steps[0].Expectations.Seeds["Oak"])

	write("broken.json", `{"name": "broken", "cases": ["missing.json"]}`)
	_, err = LoadTestSuiteWithExpansion(filepath.Join(dir, "broken.json"), dir)
	assert.ErrorContains(t, err, "missing.json")
}
