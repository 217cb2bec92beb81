package queue

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/pkg/queue"
	"github.com/jwebster45206/orchard-engine/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client, err := NewClient("redis://"+mr.Addr(), logger)
	if err != nil {
		mr.Close()
		t.Fatalf("Failed to create queue client: %v", err)
	}

	return client, mr
}

func TestActionQueue_FIFO(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewActionQueue(client)
	ctx := context.Background()
	gameID := uuid.New()

	reqs := []*queue.Request{
		queue.NewGameRequest(gameID),
		queue.NewActionRequest(gameID, world.Action{Kind: world.ActMove}),
		queue.NewActionRequest(gameID, world.Action{Kind: world.ActTick, Seconds: 5}),
	}
	for _, r := range reqs {
		require.NoError(t, q.EnqueueRequest(ctx, r))
	}

	depth, err := q.RequestQueueDepth(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, depth)

	for _, want := range reqs {
		got, err := q.DequeueRequest(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want.RequestID, got.RequestID)
		assert.Equal(t, want.Type, got.Type)
	}

	empty, err := q.DequeueRequest(ctx)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestActionQueue_RejectsInvalid(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewActionQueue(client)
	ctx := context.Background()

	err := q.EnqueueRequest(ctx, queue.NewActionRequest(uuid.New(), world.Action{Kind: "dance"}))
	assert.Error(t, err)

	depth, err := q.RequestQueueDepth(ctx)
	require.NoError(t, err)
	assert.Zero(t, depth)

	mr.RPush(requestsKey, `{"type":"chat"}`)
	_, err = q.DequeueRequest(ctx)
	assert.Error(t, err)
}

func TestActionQueue_BlockingDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewActionQueue(client)
	ctx := context.Background()
	req := queue.NewGameRequest(uuid.New())

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = q.EnqueueRequest(ctx, req)
	}()

	got, err := q.BlockingDequeueRequest(ctx, 2*time.Second)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, req.RequestID, got.RequestID)
}

func TestActionQueue_BlockingDequeueCancelled(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewActionQueue(client)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	got, err := q.BlockingDequeueRequest(ctx, 0)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestActionQueue_Status(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewActionQueue(client)
	ctx := context.Background()
	req := queue.NewActionRequest(uuid.New(), world.Action{Kind: world.ActMove})

	missing, err := q.GetStatus(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, q.SetStatus(ctx, req, StatusQueued, nil))
	require.NoError(t, q.SetStatus(ctx, req, StatusFailed, errors.New("game is over")))

	s, err := q.GetStatus(ctx, req.RequestID)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, StatusFailed, s.Status)
	assert.Equal(t, "game is over", s.Error)
	assert.Equal(t, req.GameID.String(), s.GameID)

	mr.FastForward(StatusTTL + time.Second)
	s, err = q.GetStatus(ctx, req.RequestID)
	require.NoError(t, err)
	assert.Nil(t, s)
}
