package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
)

// CatalogHandler serves the static game data clients need to draw the
// world: trees, quests, plots and landmarks.
type CatalogHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

func NewCatalogHandler(cat *catalog.Catalog, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: cat, logger: logger}
}

// GET /v1/catalog
func (h *CatalogHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.catalog)
}
