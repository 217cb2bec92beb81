package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	domain "github.com/jwebster45206/orchard-engine/pkg/events"
	"github.com/redis/go-redis/v9"
)

// EventType represents the type of event being broadcast. Domain events
// keep their own type names, such as "tree.grown".
type EventType string

const (
	EventTypeRequestQueued     EventType = "request.queued"
	EventTypeRequestProcessing EventType = "request.processing"
	EventTypeRequestCompleted  EventType = "request.completed"
	EventTypeRequestFailed     EventType = "request.failed"
	EventTypeGameStateUpdated  EventType = "game.state_updated"
)

// Event represents a generic event structure
type Event struct {
	Type      EventType      `json:"type"`
	RequestID string         `json:"request_id,omitempty"`
	GameID    string         `json:"game_id,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Channel is the Pub/Sub channel carrying one game's events.
func Channel(gameID uuid.UUID) string {
	return fmt.Sprintf("game-events:%s", gameID.String())
}

// Broadcaster publishes events to Redis Pub/Sub for SSE and websocket
// distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishRequestQueued publishes a request.queued event
func (b *Broadcaster) PublishRequestQueued(ctx context.Context, gameID uuid.UUID, requestID string, requestType string) error {
	return b.publishToGame(ctx, gameID, Event{
		Type:      EventTypeRequestQueued,
		RequestID: requestID,
		GameID:    gameID.String(),
		Data: map[string]any{
			"status": "queued",
			"type":   requestType,
		},
	})
}

// PublishRequestProcessing publishes a request.processing event
func (b *Broadcaster) PublishRequestProcessing(ctx context.Context, gameID uuid.UUID, requestID string, requestType string, action string) error {
	return b.publishToGame(ctx, gameID, Event{
		Type:      EventTypeRequestProcessing,
		RequestID: requestID,
		GameID:    gameID.String(),
		Data: map[string]any{
			"status": "processing",
			"type":   requestType,
			"action": action,
		},
	})
}

// PublishRequestCompleted publishes a request.completed event
func (b *Broadcaster) PublishRequestCompleted(ctx context.Context, gameID uuid.UUID, requestID string, result map[string]any) error {
	return b.publishToGame(ctx, gameID, Event{
		Type:      EventTypeRequestCompleted,
		RequestID: requestID,
		GameID:    gameID.String(),
		Data: map[string]any{
			"status": "completed",
			"result": result,
		},
	})
}

// PublishRequestFailed publishes a request.failed event
func (b *Broadcaster) PublishRequestFailed(ctx context.Context, gameID uuid.UUID, requestID string, errorMsg string) error {
	return b.publishToGame(ctx, gameID, Event{
		Type:      EventTypeRequestFailed,
		RequestID: requestID,
		GameID:    gameID.String(),
		Data: map[string]any{
			"status": "failed",
			"error":  errorMsg,
		},
	})
}

// PublishDomainEvents forwards what a request caused in the game, in the
// order it happened. It stops at the first publish error.
func (b *Broadcaster) PublishDomainEvents(ctx context.Context, gameID uuid.UUID, requestID string, evts []domain.Event) error {
	for _, e := range evts {
		data := make(map[string]any, len(e.Data)+1)
		for k, v := range e.Data {
			data[k] = v
		}
		if e.ID != "" {
			data["id"] = e.ID
		}
		err := b.publishToGame(ctx, gameID, Event{
			Type:      EventType(e.Type),
			RequestID: requestID,
			GameID:    gameID.String(),
			Data:      data,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// PublishGameStateUpdated publishes a game.state_updated event
func (b *Broadcaster) PublishGameStateUpdated(ctx context.Context, gameID uuid.UUID, summary map[string]any) error {
	return b.publishToGame(ctx, gameID, Event{
		Type:   EventTypeGameStateUpdated,
		GameID: gameID.String(),
		Data:   summary,
	})
}

// publishToGame publishes an event to the game-specific channel
func (b *Broadcaster) publishToGame(ctx context.Context, gameID uuid.UUID, event Event) error {
	channel := Channel(gameID)

	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "event", event.Type)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published",
		"channel", channel,
		"event_type", event.Type,
		"request_id", event.RequestID,
	)

	return nil
}
