package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jwebster45206/orchard-engine/internal/middleware"
)

type RouterConfig struct {
	Health  *HealthHandler
	Catalog *CatalogHandler
	Games   *GamesHandler
	Events  *EventsHandler
	Socket  *SocketHandler
	Logger  *slog.Logger
}

// NewRouter mounts every handler that is set. Event streams are optional
// so the API can run without Pub/Sub.
func NewRouter(cfg RouterConfig) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logger(cfg.Logger))

	if cfg.Health != nil {
		r.Handle("/health", cfg.Health).Methods(http.MethodGet)
	}
	if cfg.Catalog != nil {
		r.Handle("/v1/catalog", cfg.Catalog).Methods(http.MethodGet)
	}
	if cfg.Events != nil {
		r.Handle("/v1/games/{id}/events", cfg.Events).Methods(http.MethodGet)
	}
	if cfg.Socket != nil {
		r.Handle("/v1/games/{id}/ws", cfg.Socket).Methods(http.MethodGet)
	}
	if cfg.Games != nil {
		cfg.Games.Register(r)
	}
	return r
}
