package httpapi

import (
	"net/http"

	"crowdguard/internal/models"

	"github.com/go-chi/chi/v5"
)

// ListAlerts GET /alerts?status=
func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	status := models.AlertStatus(r.URL.Query().Get("status"))
	alerts, err := h.svcs.Alerts.ListAlerts(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

// GetAlert GET /alerts/{alertID}
func (h *Handler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.svcs.Alerts.GetAlert(r.Context(), chi.URLParam(r, "alertID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alert)
}

// CreateAlert POST /alerts
func (h *Handler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var alert models.Alert
	if err := readBodyJSON(r, &alert); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svcs.Alerts.CreateAlert(r.Context(), alert); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Alert created successfully")
}

// UpdateAlert PUT /alerts/{alertID}
func (h *Handler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	var update models.AlertUpdate
	if err := readBodyJSON(r, &update); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svcs.Alerts.UpdateAlertStatus(r.Context(), chi.URLParam(r, "alertID"), update); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Alert updated successfully")
}
