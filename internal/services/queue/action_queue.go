package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jwebster45206/orchard-engine/pkg/queue"
	"github.com/redis/go-redis/v9"
)

const (
	requestsKey = "requests"

	// StatusTTL is how long a request's status stays readable.
	StatusTTL = time.Hour
)

// Request statuses.
const (
	StatusQueued     = "queued"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Status is the last known state of a request.
type Status struct {
	RequestID string    `json:"request_id"`
	GameID    string    `json:"game_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActionQueue is the global FIFO of game requests shared by the API and
// the workers.
type ActionQueue struct {
	client *Client
}

func NewActionQueue(client *Client) *ActionQueue {
	return &ActionQueue{
		client: client,
	}
}

func statusKey(requestID string) string {
	return fmt.Sprintf("request-status:%s", requestID)
}

// EnqueueRequest adds a request to the end of the global queue
func (q *ActionQueue) EnqueueRequest(ctx context.Context, req *queue.Request) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	data, err := req.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize request: %w", err)
	}

	if err := q.client.rdb.RPush(ctx, requestsKey, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue request: %w", err)
	}
	return nil
}

// DequeueRequest removes and returns the next request from the global queue
// Returns nil if queue is empty
func (q *ActionQueue) DequeueRequest(ctx context.Context) (*queue.Request, error) {
	result, err := q.client.rdb.LPop(ctx, requestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	req, err := queue.FromJSON([]byte(result))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// BlockingDequeueRequest waits up to timeout for a request. It returns nil
// when the wait times out or ctx is done.
func (q *ActionQueue) BlockingDequeueRequest(ctx context.Context, timeout time.Duration) (*queue.Request, error) {
	result, err := q.client.rdb.BLPop(ctx, timeout, requestsKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to dequeue request: %w", err)
	}

	// BLPop returns [key, value]
	if len(result) != 2 {
		return nil, fmt.Errorf("unexpected BLPop result: %v", result)
	}

	req, err := queue.FromJSON([]byte(result[1]))
	if err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return req, nil
}

// RequestQueueDepth returns the number of requests in the global queue
func (q *ActionQueue) RequestQueueDepth(ctx context.Context) (int, error) {
	count, err := q.client.rdb.LLen(ctx, requestsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get request queue depth: %w", err)
	}
	return int(count), nil
}

// SetStatus records the state of a request for StatusTTL.
func (q *ActionQueue) SetStatus(ctx context.Context, req *queue.Request, status string, reqErr error) error {
	s := Status{
		RequestID: req.RequestID,
		GameID:    req.GameID.String(),
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	}
	if reqErr != nil {
		s.Error = reqErr.Error()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to serialize status: %w", err)
	}
	if err := q.client.rdb.Set(ctx, statusKey(req.RequestID), data, StatusTTL).Err(); err != nil {
		return fmt.Errorf("failed to store request status: %w", err)
	}
	return nil
}

// GetStatus returns nil when the request is unknown or its status expired.
func (q *ActionQueue) GetStatus(ctx context.Context, requestID string) (*Status, error) {
	data, err := q.client.rdb.Get(ctx, statusKey(requestID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load request status: %w", err)
	}
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse request status: %w", err)
	}
	return &s, nil
}
