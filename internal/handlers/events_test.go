package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jwebster45206/orchard-engine/internal/services/events"
	"github.com/jwebster45206/orchard-engine/internal/services/queue"
	"github.com/jwebster45206/orchard-engine/internal/storage"
	"github.com/jwebster45206/orchard-engine/internal/worker"
	domain "github.com/jwebster45206/orchard-engine/pkg/events"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streamAPI struct {
	server      *httptest.Server
	broadcaster *events.Broadcaster
	games       *GamesHandler
	queue       *queue.ActionQueue
}

func newStreamAPI(t *testing.T) *streamAPI {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	client, err := queue.NewClient(mr.Addr(), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	log := testLogger()
	store := storage.NewMockStorage()
	q := queue.NewActionQueue(client)
	broadcaster := events.NewBroadcaster(rdb, log)
	games := NewGamesHandler(worker.NewProcessor(store, nil, 0, log), store, q, broadcaster, log)

	server := httptest.NewServer(NewRouter(RouterConfig{
		Games:  games,
		Events: NewEventsHandler(rdb, log),
		Socket: NewSocketHandler(rdb, games, log),
		Logger: log,
	}))
	t.Cleanup(server.Close)
	return &streamAPI{server: server, broadcaster: broadcaster, games: games, queue: q}
}

// publishUntil keeps publishing until done, since the handler subscribes
// some time after the response headers are sent.
func (s *streamAPI) publishUntil(id uuid.UUID, done <-chan struct{}) {
	evts := []domain.Event{domain.New(domain.TreeGrown, "tree-1")}
	for {
		select {
		case <-done:
			return
		case <-time.After(20 * time.Millisecond):
			_ = s.broadcaster.PublishDomainEvents(context.Background(), id, "r1", evts)
		}
	}
}

func TestEventsHandler_StreamsGameEvents(t *testing.T) {
	api := newStreamAPI(t)
	id := uuid.New()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, api.server.URL+"/v1/games/"+id.String()+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	done := make(chan struct{})
	go api.publishUntil(id, done)
	defer close(done)

	scanner := bufio.NewScanner(resp.Body)
	var names []string
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
			if name == string(domain.TreeGrown) {
				break
			}
		}
	}
	require.NotEmpty(t, names)
	assert.Equal(t, "connected", names[0])
	assert.Equal(t, string(domain.TreeGrown), names[len(names)-1])
}

func TestEventsHandler_BadID(t *testing.T) {
	api := newStreamAPI(t)
	resp, err := http.Get(api.server.URL + "/v1/games/nope/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSocketHandler_ActionsAndEvents(t *testing.T) {
	api := newStreamAPI(t)

	resp, err := http.Post(api.server.URL+"/v1/games", "application/json", nil)
	require.NoError(t, err)
	var created GameResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	wsURL := "ws" + strings.TrimPrefix(api.server.URL, "http") + "/v1/games/" + created.ID.String() + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"dance"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"kind":"move"}`)))

	// The queued event and the ack for the move can arrive in either order.
	var errReply, ack wsReply
	var queued bool
	for errReply.Type == "" || ack.Type == "" || !queued {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var envelope struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(data, &envelope))
		switch envelope.Type {
		case "error":
			require.NoError(t, json.Unmarshal(data, &errReply))
		case "ack":
			require.NoError(t, json.Unmarshal(data, &ack))
		case string(events.EventTypeRequestQueued):
			queued = true
		}
	}
	assert.Contains(t, errReply.Error, "unknown action")
	assert.NotEmpty(t, ack.RequestID)

	depth, err := api.queue.RequestQueueDepth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}
