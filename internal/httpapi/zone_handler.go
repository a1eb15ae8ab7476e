package httpapi

import (
	"net/http"

	"crowdguard/internal/models"

	"github.com/go-chi/chi/v5"
)

// ListZones GET /zones
func (h *Handler) ListZones(w http.ResponseWriter, r *http.Request) {
	zones, err := h.svcs.Zones.ListZones(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zones)
}

// GetZone GET /zones/{zoneID}
func (h *Handler) GetZone(w http.ResponseWriter, r *http.Request) {
	zone, err := h.svcs.Zones.GetZone(r.Context(), chi.URLParam(r, "zoneID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, zone)
}

// CreateZone POST /zones
func (h *Handler) CreateZone(w http.ResponseWriter, r *http.Request) {
	var zone models.Zone
	if err := readBodyJSON(r, &zone); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svcs.Zones.CreateZone(r.Context(), zone); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Zone created successfully")
}

// UpdateZone PUT /zones/{zoneID}
func (h *Handler) UpdateZone(w http.ResponseWriter, r *http.Request) {
	var patch models.ZonePatch
	if err := readBodyJSON(r, &patch); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svcs.Zones.UpdateZone(r.Context(), chi.URLParam(r, "zoneID"), patch); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Zone updated successfully")
}

// DeleteZone DELETE /zones/{zoneID}
func (h *Handler) DeleteZone(w http.ResponseWriter, r *http.Request) {
	if err := h.svcs.Zones.DeleteZone(r.Context(), chi.URLParam(r, "zoneID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Zone deleted successfully")
}
