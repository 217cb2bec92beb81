package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

// RequestType identifies the type of request in the queue
type RequestType string

const (
	// RequestTypeAction applies one player action to a saved game
	RequestTypeAction RequestType = "action"

	// RequestTypeNewGame starts the game over from the beginning
	RequestTypeNewGame RequestType = "new_game"
)

// Request is one unit of work for a worker. Requests for the same game are
// applied one at a time.
type Request struct {
	RequestID string      `json:"request_id"`
	Type      RequestType `json:"type"`
	GameID    uuid.UUID   `json:"game_id"`

	// Action-specific fields
	Action *world.Action `json:"action,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewActionRequest builds a request that applies a to the game.
func NewActionRequest(gameID uuid.UUID, a world.Action) *Request {
	return &Request{
		RequestID:  uuid.NewString(),
		Type:       RequestTypeAction,
		GameID:     gameID,
		Action:     &a,
		EnqueuedAt: time.Now().UTC(),
	}
}

// NewGameRequest builds a request that resets the game.
func NewGameRequest(gameID uuid.UUID) *Request {
	return &Request{
		RequestID:  uuid.NewString(),
		Type:       RequestTypeNewGame,
		GameID:     gameID,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Validate rejects requests a worker could not process.
func (r *Request) Validate() error {
	if r.RequestID == "" {
		return errors.New("request_id is required")
	}
	if r.GameID == uuid.Nil {
		return errors.New("game_id is required")
	}
	switch r.Type {
	case RequestTypeNewGame:
		return nil
	case RequestTypeAction:
		if r.Action == nil {
			return errors.New("action is required")
		}
		return r.Action.Validate()
	}
	return fmt.Errorf("unknown request type: %s", r.Type)
}

// ToJSON converts the request to JSON bytes for Redis
func (r *Request) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// FromJSON parses and validates a request from JSON bytes
func FromJSON(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	return &req, nil
}
