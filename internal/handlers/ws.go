package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/orchard-engine/internal/services/events"
	queuePkg "github.com/jwebster45206/orchard-engine/pkg/queue"
	"github.com/jwebster45206/orchard-engine/pkg/world"
	"github.com/redis/go-redis/v9"
)

const wsWriteWait = 10 * time.Second

// ActionSubmitter queues actions on behalf of a connected client.
type ActionSubmitter interface {
	Submit(ctx context.Context, id uuid.UUID, a world.Action) (*queuePkg.Request, error)
}

// wsReply acknowledges one client message.
type wsReply struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// SocketHandler is a two-way alternative to the SSE stream: the game's
// events are pushed as text frames and each frame the client sends is
// queued as an action.
type SocketHandler struct {
	redisClient *redis.Client
	submitter   ActionSubmitter
	logger      *slog.Logger
	upgrader    websocket.Upgrader
}

func NewSocketHandler(redisClient *redis.Client, submitter ActionSubmitter, logger *slog.Logger) *SocketHandler {
	return &SocketHandler{
		redisClient: redisClient,
		submitter:   submitter,
		logger:      logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// GET /v1/games/{id}/ws
func (h *SocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := gameID(r)
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid game ID format")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("Websocket upgrade failed", "game_id", id.String(), "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	pubsub := h.redisClient.Subscribe(ctx, events.Channel(id))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		h.logger.Error("Failed to subscribe to game events", "game_id", id.String(), "error", err)
		return
	}

	h.logger.Info("Websocket connection established", "game_id", id.String(), "remote_addr", r.RemoteAddr)

	// Only this goroutine writes to conn; replies from the read loop are
	// handed over on a channel.
	replies := make(chan wsReply, 8)
	go h.readLoop(ctx, cancel, conn, id, replies)

	msgChan := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Websocket client disconnected", "game_id", id.String())
			return
		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			if err := h.write(conn, []byte(msg.Payload)); err != nil {
				return
			}
		case reply := <-replies:
			data, err := json.Marshal(reply)
			if err != nil {
				h.logger.Error("Failed to marshal reply", "error", err)
				continue
			}
			if err := h.write(conn, data); err != nil {
				return
			}
		}
	}
}

func (h *SocketHandler) write(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		h.logger.Debug("Websocket write failed", "error", err)
		return err
	}
	return nil
}

func (h *SocketHandler) readLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, id uuid.UUID, replies chan<- wsReply) {
	defer cancel()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return
		}

		reply := wsReply{Type: "ack"}
		var a world.Action
		if err := json.Unmarshal(payload, &a); err != nil {
			reply = wsReply{Type: "error", Error: "malformed action"}
		} else if err := a.Validate(); err != nil {
			reply = wsReply{Type: "error", Error: err.Error()}
		} else if req, err := h.submitter.Submit(ctx, id, a); err != nil {
			reply = wsReply{Type: "error", Error: err.Error()}
		} else {
			reply.RequestID = req.RequestID
		}

		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}
