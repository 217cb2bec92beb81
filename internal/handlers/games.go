package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/jwebster45206/orchard-engine/internal/services/queue"
	"github.com/jwebster45206/orchard-engine/internal/storage"
	"github.com/jwebster45206/orchard-engine/internal/worker"
	queuePkg "github.com/jwebster45206/orchard-engine/pkg/queue"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

const maxSnapshotBytes = 1 << 20

// RequestQueue is the part of the action queue the API writes to.
type RequestQueue interface {
	EnqueueRequest(ctx context.Context, req *queuePkg.Request) error
	SetStatus(ctx context.Context, req *queuePkg.Request, status string, reqErr error) error
	GetStatus(ctx context.Context, requestID string) (*queue.Status, error)
}

// RequestNotifier announces queued requests to event stream clients.
type RequestNotifier interface {
	PublishRequestQueued(ctx context.Context, gameID uuid.UUID, requestID string, requestType string) error
}

type GamesHandler struct {
	processor *worker.Processor
	storage   storage.Storage
	queue     RequestQueue
	notifier  RequestNotifier
	logger    *slog.Logger
}

func NewGamesHandler(processor *worker.Processor, store storage.Storage, q RequestQueue, notifier RequestNotifier, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{
		processor: processor,
		storage:   store,
		queue:     q,
		notifier:  notifier,
		logger:    logger,
	}
}

// Register mounts the game routes:
//
//	POST   /v1/games                          create a game
//	GET    /v1/games/{id}                     read the game view
//	DELETE /v1/games/{id}                     delete the save
//	POST   /v1/games/{id}/actions             queue an action
//	GET    /v1/games/{id}/requests/{request}  read a queued request's status
//	GET    /v1/games/{id}/snapshot            download the save (?format=yaml)
//	PUT    /v1/games/{id}/snapshot            replace the save
func (h *GamesHandler) Register(r *mux.Router) {
	r.HandleFunc("/v1/games", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/v1/games/{id}", h.handleRead).Methods(http.MethodGet)
	r.HandleFunc("/v1/games/{id}", h.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/v1/games/{id}/actions", h.handleAction).Methods(http.MethodPost)
	r.HandleFunc("/v1/games/{id}/requests/{request}", h.handleRequestStatus).Methods(http.MethodGet)
	r.HandleFunc("/v1/games/{id}/snapshot", h.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/v1/games/{id}/snapshot", h.handleImport).Methods(http.MethodPut)
}

type GameResponse struct {
	ID   uuid.UUID  `json:"id"`
	View world.View `json:"view"`
}

type ActionResponse struct {
	RequestID string    `json:"request_id"`
	GameID    uuid.UUID `json:"game_id"`
	Status    string    `json:"status"`
}

type ImportResponse struct {
	ID     uuid.UUID   `json:"id"`
	Report save.Report `json:"report"`
	View   world.View  `json:"view"`
}

func (h *GamesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id := uuid.New()
	result, err := h.processor.NewGame(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to create game", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create game")
		return
	}
	h.logger.Info("Game created", "game_id", id.String())
	writeJSON(w, h.logger, http.StatusCreated, GameResponse{ID: id, View: result.View})
}

func (h *GamesHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	gw, err := h.processor.Load(r.Context(), id)
	if err != nil {
		h.writeLoadError(w, id, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, GameResponse{ID: id, View: gw.View()})
}

func (h *GamesHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}
	if err := h.storage.DeleteSnapshot(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete game", "game_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete game")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAction validates and queues an action. The worker applies it; the
// outcome arrives on the game's event stream and through the request
// status endpoint.
func (h *GamesHandler) handleAction(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	var a world.Action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if err := a.Validate(); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	req, err := h.Submit(r.Context(), id, a)
	if err != nil {
		if errors.Is(err, worker.ErrGameNotFound) {
			writeError(w, h.logger, http.StatusNotFound, "Game not found")
			return
		}
		h.logger.Error("Failed to queue action", "game_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to queue action")
		return
	}

	h.logger.Debug("Action queued", "game_id", id.String(), "request_id", req.RequestID, "action", a.String())
	writeJSON(w, h.logger, http.StatusAccepted, ActionResponse{
		RequestID: req.RequestID,
		GameID:    id,
		Status:    queue.StatusQueued,
	})
}

// Submit queues a validated action for an existing game. A reset becomes
// a new-game request.
func (h *GamesHandler) Submit(ctx context.Context, id uuid.UUID, a world.Action) (*queuePkg.Request, error) {
	snap, err := h.storage.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, worker.ErrGameNotFound
	}

	req := queuePkg.NewActionRequest(id, a)
	if a.Kind == world.ActReset {
		req = queuePkg.NewGameRequest(id)
	}
	if err := h.queue.EnqueueRequest(ctx, req); err != nil {
		return nil, err
	}
	if err := h.queue.SetStatus(ctx, req, queue.StatusQueued, nil); err != nil {
		h.logger.Warn("Failed to store request status", "request_id", req.RequestID, "error", err)
	}
	if h.notifier != nil {
		if err := h.notifier.PublishRequestQueued(ctx, id, req.RequestID, string(req.Type)); err != nil {
			h.logger.Warn("Failed to publish queued event", "request_id", req.RequestID, "error", err)
		}
	}
	return req, nil
}

func (h *GamesHandler) handleRequestStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}
	status, err := h.queue.GetStatus(r.Context(), mux.Vars(r)["request"])
	if err != nil {
		h.logger.Error("Failed to load request status", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load request status")
		return
	}
	if status == nil || status.GameID != id.String() {
		writeError(w, h.logger, http.StatusNotFound, "Request not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, status)
}

func (h *GamesHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}
	codec, err := save.CodecFor(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.storage.LoadSnapshot(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load snapshot", "game_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
		return
	}
	if snap == nil {
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}

	data, err := codec.Marshal(snap)
	if err != nil {
		h.logger.Error("Failed to encode snapshot", "game_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to encode snapshot")
		return
	}
	w.Header().Set("Content-Type", codec.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write snapshot", "error", err)
	}
}

func (h *GamesHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSnapshotBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, h.logger, http.StatusRequestEntityTooLarge, "Snapshot too large")
			return
		}
		writeError(w, h.logger, http.StatusBadRequest, "Failed to read request body")
		return
	}
	codec := save.Codec(save.JSONCodec{})
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		codec = save.YAMLCodec{}
	}
	snap, err := codec.Unmarshal(data)
	if err != nil {
		h.logger.Warn("Invalid snapshot upload", "game_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	result, report, err := h.processor.ImportSnapshot(r.Context(), id, snap)
	if err != nil {
		h.logger.Error("Failed to import snapshot", "game_id", id.String(), "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to import snapshot")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ImportResponse{ID: id, Report: report, View: result.View})
}

func (h *GamesHandler) writeLoadError(w http.ResponseWriter, id uuid.UUID, err error) {
	if errors.Is(err, worker.ErrGameNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Game not found")
		return
	}
	h.logger.Error("Failed to load game", "game_id", id.String(), "error", err)
	writeError(w, h.logger, http.StatusInternalServerError, "Failed to load game")
}
