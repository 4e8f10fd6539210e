package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type HTTPHandler struct {
	audit Service
	log   *zap.Logger
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(svc Service, log *zap.Logger) *HTTPHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HTTPHandler{audit: svc, log: log}
}

func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/audit/tables/{tableID}/hands", h.handleRecent)
}

func (h *HTTPHandler) handleRecent(w http.ResponseWriter, r *http.Request) {
	tableID := strings.TrimSpace(chi.URLParam(r, "tableID"))
	if tableID == "" {
		writeError(w, http.StatusBadRequest, "missing table id")
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"))
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	items, err := h.audit.ListRecent(ctx, tableID, limit)
	if err != nil {
		h.log.Error("list recent hands failed", zap.String("table", tableID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "query recent hands failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
	})
}

func parseLimit(raw string) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return defaultListLimit
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return defaultListLimit
	}
	return clampLimit(n)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
