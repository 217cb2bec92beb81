package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/tutorial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockStorage_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	id := uuid.New()

	loaded, err := store.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, loaded, "missing saves load as nil")

	snap := &save.Snapshot{Tutorial: tutorial.State{CurrentStep: tutorial.StepMove}}
	require.NoError(t, store.SaveSnapshot(ctx, id, snap))
	loaded, err = store.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
	assert.Equal(t, 1, store.Saves())

	require.NoError(t, store.DeleteSnapshot(ctx, id))
	loaded, err = store.LoadSnapshot(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	assert.Error(t, store.SaveSnapshot(ctx, id, nil))
}

func TestMockStorage_Errors(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	assert.NoError(t, store.Ping(ctx))

	boom := errors.New("boom")
	store.SetPingError(boom)
	assert.ErrorIs(t, store.Ping(ctx), boom)

	store.SetSaveError(boom)
	assert.ErrorIs(t, store.SaveSnapshot(ctx, uuid.New(), &save.Snapshot{}), boom)
	assert.Zero(t, store.Saves())
}

func TestSlot(t *testing.T) {
	ctx := context.Background()
	store := NewMockStorage()
	slot := Slot{Store: store, ID: uuid.New()}

	empty, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)

	snap := &save.Snapshot{}
	snap.Game.Coins = 42
	require.NoError(t, slot.Write(ctx, snap))

	got, err := slot.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, 42, got.Game.Coins)
}
