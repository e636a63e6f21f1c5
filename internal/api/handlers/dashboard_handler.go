package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/markagu-dev/Vectora/internal/core"
)

// DashboardHandler serves the portal's read-only views over the ingestion
// history and the vector collection.
type DashboardHandler struct {
	history    core.HistoryStore
	vectors    core.VectorStore
	collection string
	log        *zap.Logger
}

func NewDashboardHandler(history core.HistoryStore, vectors core.VectorStore, collection string, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{history: history, vectors: vectors, collection: collection, log: log}
}

func (h *DashboardHandler) History(w http.ResponseWriter, r *http.Request) {
	records, err := h.history.List(r.Context())
	if err != nil {
		h.log.Error("list history", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	stats, err := h.history.Stats(r.Context())
	if err != nil {
		h.log.Error("history stats", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	writeSuccess(w, map[string]any{"records": records, "stats": stats})
}

func (h *DashboardHandler) Collections(w http.ResponseWriter, r *http.Request) {
	info, err := h.vectors.CollectionInfo(r.Context(), h.collection)
	if err != nil {
		h.log.Error("collection info", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch collection info")
		return
	}
	writeSuccess(w, info)
}

func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]string{"status": "ok"})
}
