package events

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestBus_DeliversToTypedAndCatchAll(t *testing.T) {
	bus := NewBus(testLogger())

	var typed, all []Type
	bus.Subscribe(TreeGrown, func(e Event) { typed = append(typed, e.Type) })
	bus.SubscribeAll(func(e Event) { all = append(all, e.Type) })

	bus.Publish(New(TreeGrown, "tree-1"))
	bus.Publish(New(TreeDied, "tree-1"))

	assert.Equal(t, []Type{TreeGrown}, typed)
	assert.Equal(t, []Type{TreeGrown, TreeDied}, all)
}

func TestBus_NestedPublishIsQueued(t *testing.T) {
	bus := NewBus(testLogger())

	var order []string
	bus.Subscribe(QuestCompleted, func(e Event) {
		order = append(order, "completed:start")
		bus.Publish(New(QuestClaimed, e.ID))
		order = append(order, "completed:end")
	})
	bus.Subscribe(QuestClaimed, func(e Event) {
		order = append(order, "claimed")
	})

	bus.Publish(New(QuestCompleted, "E1"))

	assert.Equal(t, []string{"completed:start", "completed:end", "claimed"}, order)
}

func TestBus_NoSubscribers(t *testing.T) {
	bus := NewBus(nil)
	assert.NotPanics(t, func() { bus.Publish(New(PlayerMove, "")) })
}

func TestEvent_WithCopiesData(t *testing.T) {
	base := New(QuestProgress, "E1").With("progress", 1)
	next := base.With("required", 3)

	assert.Len(t, base.Data, 1)
	assert.Equal(t, 3, next.Data["required"])
	assert.Equal(t, 1, next.Data["progress"])
}

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Publish(New(TreeGrown, "a"))
	r.Publish(New(TreeGrown, "b"))
	r.Publish(New(TreeDied, "a"))

	assert.Equal(t, 2, r.Count(TreeGrown))
	assert.Equal(t, "b", r.Of(TreeGrown)[1].ID)
	assert.Len(t, r.Events(), 3)

	r.Reset()
	assert.Empty(t, r.Events())
}
