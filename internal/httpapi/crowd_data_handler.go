package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"crowdguard/internal/service"

	"go.uber.org/zap"
)

// ListCrowdData GET /crowd-data?zone_id=
func (h *Handler) ListCrowdData(w http.ResponseWriter, r *http.Request) {
	readings, err := h.svcs.CrowdData.ListReadings(r.Context(), r.URL.Query().Get("zone_id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// LatestCrowdData GET /crowd-data/latest
func (h *Handler) LatestCrowdData(w http.ResponseWriter, r *http.Request) {
	readings, err := h.svcs.CrowdData.LatestReadings(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, readings)
}

// AddCrowdData POST /crowd-data
func (h *Handler) AddCrowdData(w http.ResponseWriter, r *http.Request) {
	var req service.AddReadingRequest
	if err := readBodyJSON(r, &req); err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.svcs.CrowdData.AddReading(r.Context(), req); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeMessage(w, "Crowd data added successfully")
}

// ExportCrowdData GET /crowd-data/export?zone_id= 导出 XLSX
func (h *Handler) ExportCrowdData(w http.ResponseWriter, r *http.Request) {
	zoneID := r.URL.Query().Get("zone_id")
	readings, err := h.svcs.CrowdData.ExportReadings(r.Context(), zoneID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	data, err := GenerateCrowdDataExport(readings)
	if err != nil {
		h.logger.Error("Failed to generate crowd data export", zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "Failed to generate export")
		return
	}

	scope := "all"
	if zoneID != "" {
		scope = zoneID
	}
	filename := fmt.Sprintf("crowd_data_%s_%s.xlsx", scope, time.Now().UTC().Format("20060102_150405"))

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
