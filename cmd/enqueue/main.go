package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/internal/services/queue"
	queuePkg "github.com/jwebster45206/orchard-engine/pkg/queue"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

func main() {
	redisURL := flag.String("redis", "redis://localhost:6379", "Redis URL")
	game := flag.String("game", "00000000-0000-0000-0000-000000000001", "game ID")
	newGame := flag.Bool("new", false, "enqueue a new-game request")
	kind := flag.String("action", "", fmt.Sprintf("action kind, one of %v", world.Kinds()))
	questID := flag.String("quest", "", "quest ID for talk, accept and claim")
	plotID := flag.String("plot", "", "plot ID for plot actions")
	treeID := flag.String("tree", "", "tree ID for buy_seed, plant and sell")
	amount := flag.Int("amount", 0, "fruit count for sell")
	seconds := flag.Float64("seconds", 0, "seconds for tick and water")
	wait := flag.Duration("wait", 0, "wait this long for the request to finish")
	flag.Parse()

	gameID, err := uuid.Parse(*game)
	if err != nil {
		log.Fatal("Invalid game ID:", err)
	}

	var req *queuePkg.Request
	switch {
	case *newGame:
		req = queuePkg.NewGameRequest(gameID)
	case *kind != "":
		req = queuePkg.NewActionRequest(gameID, world.Action{
			Kind:    world.Kind(*kind),
			QuestID: *questID,
			PlotID:  *plotID,
			TreeID:  *treeID,
			Amount:  *amount,
			Seconds: *seconds,
		})
	default:
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	client, err := queue.NewClient(*redisURL, logger)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer client.Close()

	ctx := context.Background()
	q := queue.NewActionQueue(client)

	if err := q.EnqueueRequest(ctx, req); err != nil {
		log.Fatal("Failed to enqueue request:", err)
	}
	if err := q.SetStatus(ctx, req, queue.StatusQueued, nil); err != nil {
		log.Println("Failed to store request status:", err)
	}
	fmt.Printf("Enqueued %s request %s for game %s\n", req.Type, req.RequestID, gameID)

	depth, err := q.RequestQueueDepth(ctx)
	if err != nil {
		log.Fatal("Failed to get queue depth:", err)
	}
	fmt.Printf("Queue depth: %d requests\n", depth)

	if *wait <= 0 {
		return
	}
	deadline := time.Now().Add(*wait)
	for time.Now().Before(deadline) {
		status, err := q.GetStatus(ctx, req.RequestID)
		if err != nil {
			log.Fatal("Failed to read request status:", err)
		}
		if status != nil && (status.Status == queue.StatusCompleted || status.Status == queue.StatusFailed) {
			fmt.Printf("Request %s: %s %s\n", req.RequestID, status.Status, status.Error)
			if status.Status == queue.StatusFailed {
				os.Exit(1)
			}
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	fmt.Println("Timed out waiting for a worker")
	os.Exit(1)
}
