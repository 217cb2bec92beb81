package tree

import (
	"log/slog"
	"math"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistry(t *testing.T) (*Registry, *events.Recorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	rec := &events.Recorder{}
	plots := []catalog.PlotConfig{
		{ID: "plot-1", Position: catalog.Vec3{X: 1}, SpawnOffset: catalog.Vec3{Y: 0.5}},
		{ID: "plot-2", Position: catalog.Vec3{X: 2}},
	}
	return NewRegistry(plots, rec, logger), rec
}

func TestRegistry_Plant(t *testing.T) {
	r, rec := newRegistry(t)

	tr, err := r.Plant("plot-1", oak())
	require.NoError(t, err)
	assert.Equal(t, "plot-1", tr.PlotID())
	assert.Equal(t, catalog.Vec3{X: 1, Y: 0.5}, tr.Position())
	assert.Equal(t, 1, rec.Count(events.TreePlanted))

	p, _ := r.Plot("plot-1")
	assert.Same(t, tr, p.Tree())

	_, err = r.Plant("plot-1", oak())
	assert.ErrorIs(t, err, ErrPlotOccupied)

	_, err = r.Plant("plot-9", oak())
	assert.ErrorIs(t, err, ErrUnknownPlot)
}

func TestRegistry_PlantReplacesDeadTree(t *testing.T) {
	r, _ := newRegistry(t)
	tmpl := oak()
	tmpl.StartHealth = 1

	dead, err := r.Plant("plot-1", tmpl)
	require.NoError(t, err)
	r.Tick(10)
	require.True(t, dead.Dead())

	fresh, err := r.Plant("plot-1", oak())
	require.NoError(t, err)
	assert.NotEqual(t, dead.ID(), fresh.ID())
	assert.Len(t, r.Trees(), 1)
}

func TestRegistry_Chop(t *testing.T) {
	r, rec := newRegistry(t)
	tmpl := oak()
	tmpl.StartHealth = 1

	assert.ErrorIs(t, r.Chop("plot-1"), ErrNoTree)
	assert.ErrorIs(t, r.Chop("nope"), ErrUnknownPlot)

	tr, err := r.Plant("plot-1", tmpl)
	require.NoError(t, err)
	assert.ErrorIs(t, r.Chop("plot-1"), ErrTreeAlive)

	r.Tick(1)
	require.True(t, tr.Dead())
	require.NoError(t, r.Chop("plot-1"))

	p, _ := r.Plot("plot-1")
	assert.True(t, p.Empty())
	assert.Empty(t, r.Trees())
	assert.Equal(t, 1, rec.Count(events.TreeChopped))
}

func TestRegistry_SpawnAndClear(t *testing.T) {
	r, rec := newRegistry(t)

	tr, err := r.Spawn(oak(), Record{TreeID: "oak", PlotID: "plot-2", Health: 80, GrowTimer: 12})
	require.NoError(t, err)
	assert.Equal(t, 80.0, tr.Health())
	assert.Empty(t, rec.Events(), "restoring does not announce a planting")

	p, _ := r.Plot("plot-2")
	assert.Same(t, tr, p.Tree())

	_, err = r.Spawn(oak(), Record{TreeID: "oak", PlotID: "plot-404"})
	assert.ErrorIs(t, err, ErrUnknownPlot)

	loose, err := r.Spawn(oak(), Record{TreeID: "oak", Health: 10})
	require.NoError(t, err)
	assert.Equal(t, "", loose.PlotID())
	assert.Len(t, r.Records(), 2)

	r.Clear()
	assert.Empty(t, r.Trees())
	assert.True(t, p.Empty())
}

func TestRegistry_SpawnKeepsSavedID(t *testing.T) {
	r, _ := newRegistry(t)

	planted, err := r.Plant("plot-1", oak())
	require.NoError(t, err)
	_, err = uuid.Parse(planted.ID())
	assert.NoError(t, err, "planted trees get uuid IDs")

	saved := planted.Record()
	r.Clear()

	restored, err := r.Spawn(oak(), saved)
	require.NoError(t, err)
	assert.Equal(t, planted.ID(), restored.ID())

	// a second record claiming the same ID gets a fresh one
	dup := saved
	dup.PlotID = "plot-2"
	other, err := r.Spawn(oak(), dup)
	require.NoError(t, err)
	assert.NotEqual(t, saved.ID, other.ID())

	unnamed, err := r.Spawn(oak(), Record{TreeID: "oak", Health: 10})
	require.NoError(t, err)
	assert.NotEmpty(t, unnamed.ID())
}

func TestRegistry_SpawnRejectsInvalidRecord(t *testing.T) {
	r, _ := newRegistry(t)

	_, err := r.Spawn(oak(), Record{TreeID: "oak", PlotID: "plot-1", Health: math.NaN()})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	p, _ := r.Plot("plot-1")
	assert.True(t, p.Empty())
	assert.Empty(t, r.Trees())
}

func TestRegistry_PlotsInCatalogOrder(t *testing.T) {
	r, _ := newRegistry(t)
	plots := r.Plots()
	require.Len(t, plots, 2)
	assert.Equal(t, "plot-1", plots[0].ID)
	assert.Equal(t, "plot-2", plots[1].ID)
}
