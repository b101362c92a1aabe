package handlers

import (
	"net/http"

	"campus-paths/internal/models"
)

// HandleIndexPage handles GET /
func (h *Handler) HandleIndexPage(w http.ResponseWriter, r *http.Request) {
	data := map[string]interface{}{
		"Title":      "Campus Paths",
		"ActivePage": "home",
		"View":       h.Shell.View(),
	}

	h.renderTemplate(w, "index.html", data)
}

// HandleHistoryPage handles GET /history
func (h *Handler) HandleHistoryPage(w http.ResponseWriter, r *http.Request) {
	queries := []models.QueryRecord{}
	if history := h.Shell.History(); history != nil {
		var err error
		queries, err = history.List(r.Context(), 100)
		if err != nil {
			h.handleInternalError(w, err)
			return
		}
	}

	data := map[string]interface{}{
		"Title":      "Query History",
		"ActivePage": "history",
		"Queries":    queries,
		"View":       h.Shell.View(),
	}

	h.renderTemplate(w, "history.html", data)
}
