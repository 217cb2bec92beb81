package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/internal/services/events"
	"github.com/jwebster45206/orchard-engine/internal/services/queue"
	queuePkg "github.com/jwebster45206/orchard-engine/pkg/queue"
	"github.com/redis/go-redis/v9"
)

const (
	workerTimeout = 5 * time.Second
	lockTTL       = 30 * time.Second
)

var releaseLockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// Worker processes requests from the action queue
type Worker struct {
	id          string
	queue       *queue.ActionQueue
	processor   *Processor
	broadcaster *events.Broadcaster
	redisClient *redis.Client
	log         *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
}

// New creates a new worker instance
func New(actionQueue *queue.ActionQueue, processor *Processor, redisClient *redis.Client, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:          workerID,
		queue:       actionQueue,
		processor:   processor,
		broadcaster: events.NewBroadcaster(redisClient, log),
		redisClient: redisClient,
		log:         log,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (w *Worker) ID() string { return w.id }

// Start begins processing requests from the queue
func (w *Worker) Start() error {
	w.log.Info("Worker starting", "worker_id", w.id)

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down", "worker_id", w.id)
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err, "worker_id", w.id)
				// Back off briefly, then keep processing
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested", "worker_id", w.id)
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	// Block waiting for next request (timeout after 5 seconds to check for shutdown)
	req, err := w.queue.BlockingDequeueRequest(w.ctx, workerTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		// Queue is empty or timeout occurred - this is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"type", req.Type,
		"game_id", req.GameID.String(),
	)

	// Try to acquire game lock
	locked, err := w.acquireGameLock(req.GameID)
	if err != nil {
		return fmt.Errorf("failed to acquire game lock: %w", err)
	}
	if !locked {
		// Another worker is processing this game
		// Re-queue at the end and try next request
		w.log.Info("Game already locked, re-queueing request",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"game_id", req.GameID.String(),
		)
		if err := w.queue.EnqueueRequest(w.ctx, req); err != nil {
			return fmt.Errorf("failed to re-queue request: %w", err)
		}
		return nil
	}

	defer w.releaseGameLock(req.GameID)

	// Process the request, blocking the worker until done
	return w.processRequest(req)
}

// acquireGameLock attempts to acquire a lock for a game
// Returns true if lock was acquired, false if already locked
func (w *Worker) acquireGameLock(gameID uuid.UUID) (bool, error) {
	return w.redisClient.SetNX(w.ctx, lockKey(gameID), w.id, lockTTL).Result()
}

// releaseGameLock releases the lock for a game
func (w *Worker) releaseGameLock(gameID uuid.UUID) {
	// Only delete if we own the lock
	if err := releaseLockScript.Run(context.Background(), w.redisClient, []string{lockKey(gameID)}, w.id).Err(); err != nil {
		w.log.Error("Failed to release game lock", "error", err, "game_id", gameID.String())
	}
}

func lockKey(gameID uuid.UUID) string {
	return fmt.Sprintf("game-lock:%s", gameID.String())
}

// processRequest runs one request and reports its outcome on the game's
// channel. A rejected action is a failed request, not a worker error.
func (w *Worker) processRequest(req *queuePkg.Request) error {
	start := time.Now()
	action := ""
	if req.Action != nil {
		action = req.Action.String()
	}

	// Publish processing event with the action
	w.setStatus(req, queue.StatusProcessing, nil)
	if err := w.broadcaster.PublishRequestProcessing(w.ctx, req.GameID, req.RequestID, string(req.Type), action); err != nil {
		// Don't fail the request just because event publishing failed
		w.log.Error("Failed to publish processing event", "error", err)
	}

	// Load the game, apply the request, save the result
	result, err := w.processor.Process(w.ctx, req)
	if err != nil {
		w.log.Warn("Request failed",
			"worker_id", w.id,
			"request_id", req.RequestID,
			"game_id", req.GameID.String(),
			"error", err,
		)
		// Publish failure event
		w.setStatus(req, queue.StatusFailed, err)
		if pubErr := w.broadcaster.PublishRequestFailed(w.ctx, req.GameID, req.RequestID, err.Error()); pubErr != nil {
			w.log.Error("Failed to publish failure event", "error", pubErr)
		}
		return nil
	}

	// Forward game events to subscribers in the order they fired
	if err := w.broadcaster.PublishDomainEvents(w.ctx, req.GameID, req.RequestID, result.Events); err != nil {
		w.log.Error("Failed to publish game events", "error", err)
	}

	// Publish completion event with the new state summary
	summary := result.Summary()
	summary["duration_ms"] = time.Since(start).Milliseconds()
	w.setStatus(req, queue.StatusCompleted, nil)
	if err := w.broadcaster.PublishRequestCompleted(w.ctx, req.GameID, req.RequestID, summary); err != nil {
		w.log.Error("Failed to publish completion event", "error", err)
	}
	if err := w.broadcaster.PublishGameStateUpdated(w.ctx, req.GameID, result.Summary()); err != nil {
		w.log.Error("Failed to publish state update", "error", err)
	}

	w.log.Info("Request processed successfully",
		"worker_id", w.id,
		"request_id", req.RequestID,
		"events", len(result.Events),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func (w *Worker) setStatus(req *queuePkg.Request, status string, reqErr error) {
	if err := w.queue.SetStatus(w.ctx, req, status, reqErr); err != nil {
		w.log.Error("Failed to store request status", "error", err, "request_id", req.RequestID)
	}
}
