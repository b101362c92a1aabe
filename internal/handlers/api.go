package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"campus-paths/internal/coordinator"
	"campus-paths/internal/mapview"
	"campus-paths/internal/models"
)

const defaultHistoryLimit = 20

// BuildingListResponse is the response for GET /api/v1/buildings
type BuildingListResponse struct {
	Buildings []models.DirectoryEntry `json:"buildings"`
	Total     int                     `json:"total"`
}

// HistoryListResponse is the response for GET /api/v1/history
type HistoryListResponse struct {
	Queries []models.QueryRecord `json:"queries"`
	Total   int                  `json:"total"`
}

// dbPathReporter is implemented by file-backed stores
type dbPathReporter interface {
	GetDBPath() string
}

// HandleHealthCheck handles GET /api/v1/health
func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	dbStatus := "memory"
	dbPath := ""

	if h.DB != nil {
		dbStatus = "connected"
		if err := h.DB.HealthCheck(r.Context()); err != nil {
			status = "degraded"
			dbStatus = "error"
		}
		if p, ok := h.DB.(dbPathReporter); ok {
			dbPath = p.GetDBPath()
		}
	}

	view := h.Shell.View()
	if !view.DirectoryLoaded || view.Image == mapview.ImageFailed {
		status = "degraded"
	}

	resp := map[string]string{
		"status":    status,
		"version":   "1.0.0",
		"database":  dbStatus,
		"map_image": string(view.Image),
	}
	if dbPath != "" {
		resp["database_path"] = dbPath
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// HandleListBuildings handles GET /api/v1/buildings
func (h *Handler) HandleListBuildings(w http.ResponseWriter, r *http.Request) {
	buildings := h.Shell.Buildings()
	h.writeJSON(w, http.StatusOK, BuildingListResponse{
		Buildings: buildings,
		Total:     len(buildings),
	})
}

// HandleGetState handles GET /api/v1/state
func (h *Handler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.Shell.View())
}

// HandleUpdateSelection handles PUT /api/v1/selection. Only the slots present
// in the request are overwritten.
func (h *Handler) HandleUpdateSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Origin      *string `json:"origin"`
		Destination *string `json:"destination"`
	}

	contentType := r.Header.Get("Content-Type")

	if strings.Contains(contentType, "application/x-www-form-urlencoded") || strings.Contains(contentType, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			log.Printf("[HTTP] PUT /api/v1/selection: form_parse_error err=%v", err)
			h.handleValidationError(w, "Invalid form data")
			return
		}
		if _, ok := r.Form["origin"]; ok {
			v := r.FormValue("origin")
			req.Origin = &v
		}
		if _, ok := r.Form["destination"]; ok {
			v := r.FormValue("destination")
			req.Destination = &v
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("[HTTP] PUT /api/v1/selection: invalid_json err=%v", err)
			h.handleValidationError(w, "Invalid request body")
			return
		}
	}

	if req.Origin == nil && req.Destination == nil {
		h.handleValidationError(w, "origin or destination is required")
		return
	}

	if req.Origin != nil {
		h.Shell.SetOrigin(models.LocationCode(*req.Origin))
	}
	if req.Destination != nil {
		h.Shell.SetDestination(models.LocationCode(*req.Destination))
	}

	h.writeJSON(w, http.StatusOK, h.Shell.View())
}

// HandleClearSelection handles DELETE /api/v1/selection. The displayed route is kept.
func (h *Handler) HandleClearSelection(w http.ResponseWriter, r *http.Request) {
	h.Shell.SetOrigin("")
	h.Shell.SetDestination("")
	h.writeJSON(w, http.StatusOK, h.Shell.View())
}

// HandleFindPath handles POST /api/v1/find-path
func (h *Handler) HandleFindPath(w http.ResponseWriter, r *http.Request) {
	result, err := h.Shell.FindPath(r.Context())
	if errors.Is(err, coordinator.ErrSuperseded) {
		log.Printf("[HTTP] POST /api/v1/find-path: superseded seq=%d", result.Sequence)
		h.writeError(w, http.StatusConflict, "SUPERSEDED", err.Error(), map[string]interface{}{
			"sequence": result.Sequence,
		})
		return
	}
	if err != nil {
		log.Printf("[HTTP] POST /api/v1/find-path: failed err=%v", err)
		h.handlePathQueryError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// HandleClear handles POST /api/v1/clear
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.Shell.Clear()
	h.writeJSON(w, http.StatusOK, h.Shell.View())
}

// HandleMapImage handles GET /api/v1/map.png
func (h *Handler) HandleMapImage(w http.ResponseWriter, r *http.Request) {
	var opts mapview.ExportOptions

	if raw := r.URL.Query().Get("max_width"); raw != "" {
		width, err := strconv.Atoi(raw)
		if err != nil || width < 0 {
			h.handleValidationError(w, "max_width must be a non-negative integer")
			return
		}
		opts.MaxWidth = width
	}
	opts.Caption = r.URL.Query().Get("caption")

	var buf bytes.Buffer
	if err := h.Shell.EncodeMap(&buf, opts); err != nil {
		if errors.Is(err, mapview.ErrImageNotReady) {
			h.writeError(w, http.StatusServiceUnavailable, "MAP_NOT_READY", err.Error(), map[string]interface{}{
				"image": h.Shell.View().Image,
			})
			return
		}
		h.handleInternalError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// HandleDrainNotifications handles GET /api/v1/notifications
func (h *Handler) HandleDrainNotifications(w http.ResponseWriter, r *http.Request) {
	notifications := []models.Notification{}
	if h.Notifications != nil {
		notifications = h.Notifications.Drain()
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

// HandleListHistory handles GET /api/v1/history
func (h *Handler) HandleListHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			h.handleValidationError(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	history := h.Shell.History()
	if history == nil {
		h.writeJSON(w, http.StatusOK, HistoryListResponse{Queries: []models.QueryRecord{}})
		return
	}

	queries, err := history.List(r.Context(), limit)
	if err != nil {
		log.Printf("[ERROR] Failed to list history: err=%v", err)
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, HistoryListResponse{
		Queries: queries,
		Total:   len(queries),
	})
}

// HandleGetHistoryEntry handles GET /api/v1/history/{id}
func (h *Handler) HandleGetHistoryEntry(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/v1/history/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.handleValidationError(w, "Invalid query ID")
		return
	}

	history := h.Shell.History()
	if history == nil {
		h.handleNotFound(w, "Query not found")
		return
	}

	record, err := history.GetByID(r.Context(), id)
	if err != nil {
		if h.checkNotFound(err) {
			h.handleNotFound(w, "Query not found")
			return
		}
		h.handleInternalError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

// HandleClearHistory handles DELETE /api/v1/history
func (h *Handler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	if history := h.Shell.History(); history != nil {
		if err := history.Clear(r.Context()); err != nil {
			log.Printf("[ERROR] Failed to clear history: err=%v", err)
			h.handleInternalError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
