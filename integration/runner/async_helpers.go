package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

const (
	// PollInterval is how often to check a request's status
	PollInterval = 100 * time.Millisecond
	// RequestTimeout is max time to wait for the worker to finish a request
	RequestTimeout = 30 * time.Second
)

// GameResponse mirrors the API's game body.
type GameResponse struct {
	ID   uuid.UUID  `json:"id"`
	View world.View `json:"view"`
}

// ActionResponse is the response from the async action endpoint
type ActionResponse struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
}

// RequestStatus is where a queued request is in its lifecycle.
type RequestStatus struct {
	RequestID string `json:"request_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

func (s *RequestStatus) Done() bool {
	return s.Status == "completed" || s.Status == "failed"
}

func doJSON(ctx context.Context, client *http.Client, method, url, contentType string, body []byte, wantStatus int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send %s %s: %w", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned %d (expected %d): %s", method, url, resp.StatusCode, wantStatus, string(data))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CreateGame starts a new game and returns its ID.
func CreateGame(ctx context.Context, client *http.Client, baseURL string) (uuid.UUID, error) {
	var game GameResponse
	if err := doJSON(ctx, client, http.MethodPost, baseURL+"/v1/games", "", nil, http.StatusCreated, &game); err != nil {
		return uuid.Nil, err
	}
	return game.ID, nil
}

// PutSnapshot replaces a game's save.
func PutSnapshot(ctx context.Context, client *http.Client, baseURL string, gameID uuid.UUID, snap *save.Snapshot) error {
	codec := save.JSONCodec{}
	data, err := codec.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode seed: %w", err)
	}
	url := fmt.Sprintf("%s/v1/games/%s/snapshot", baseURL, gameID)
	return doJSON(ctx, client, http.MethodPut, url, codec.ContentType(), data, http.StatusOK, nil)
}

// GetGame retrieves the current view of a game.
func GetGame(ctx context.Context, client *http.Client, baseURL string, gameID uuid.UUID) (*world.View, error) {
	var game GameResponse
	url := fmt.Sprintf("%s/v1/games/%s", baseURL, gameID)
	if err := doJSON(ctx, client, http.MethodGet, url, "", nil, http.StatusOK, &game); err != nil {
		return nil, err
	}
	return &game.View, nil
}

// PostAction queues an action and returns the request ID.
func PostAction(ctx context.Context, client *http.Client, baseURL string, gameID uuid.UUID, a world.Action) (string, error) {
	body, err := json.Marshal(a)
	if err != nil {
		return "", fmt.Errorf("failed to marshal action: %w", err)
	}
	var resp ActionResponse
	url := fmt.Sprintf("%s/v1/games/%s/actions", baseURL, gameID)
	if err := doJSON(ctx, client, http.MethodPost, url, "application/json", body, http.StatusAccepted, &resp); err != nil {
		return "", err
	}
	return resp.RequestID, nil
}

// PollForRequest polls a request's status until the worker has finished it.
func PollForRequest(ctx context.Context, client *http.Client, baseURL string, gameID uuid.UUID, requestID string) (*RequestStatus, error) {
	timeout := time.After(RequestTimeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	url := fmt.Sprintf("%s/v1/games/%s/requests/%s", baseURL, gameID, requestID)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timeout:
			return nil, fmt.Errorf("timeout waiting for request %s (waited %v)", requestID, RequestTimeout)
		case <-ticker.C:
			var status RequestStatus
			if err := doJSON(ctx, client, http.MethodGet, url, "", nil, http.StatusOK, &status); err != nil {
				// Status may not be visible yet; keep polling
				continue
			}
			if status.Done() {
				return &status, nil
			}
		}
	}
}
