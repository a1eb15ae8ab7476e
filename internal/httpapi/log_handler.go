package httpapi

import (
	"net/http"

	"crowdguard/internal/service"
)

// ListLogs GET /api/logs?limit=20
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), service.DefaultLogLimit)
	logs, err := h.svcs.Logs.ListLogs(r.Context(), limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// Health GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
