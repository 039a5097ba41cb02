package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
)

// handleConfig returns a read-only view of the configuration
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := s.GetConfig()

	// Commands are left out, they are long scripts and not useful here
	sanitized := struct {
		PollIntervalMs   int    `json:"pollIntervalMs"`
		CommandTimeoutMs int    `json:"commandTimeoutMs"`
		Shell            string `json:"shell"`
		LogLevel         string `json:"logLevel"`
		HistoryEnabled   bool   `json:"historyEnabled"`
		RetentionDays    int    `json:"retentionDays"`
		WebPort          int    `json:"webPort"`
	}{
		PollIntervalMs:   cfg.Poll.IntervalMs,
		CommandTimeoutMs: cfg.Commands.TimeoutMs,
		Shell:            cfg.Commands.Shell,
		LogLevel:         cfg.Log.Level,
		HistoryEnabled:   cfg.History.Enabled,
		RetentionDays:    cfg.History.RetentionDays,
		WebPort:          cfg.Web.Port,
	}

	writeJSON(w, sanitized)
}

// handleStatus returns the last polled Zoom status and visible buttons
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, s.source.Snapshot())
}

// handleHistory returns paginated status transitions
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !s.historyRequest(w, r) {
		return
	}

	limit, offset := pagination(r)

	changes, err := s.db.GetStatusChanges(limit, offset)
	if err != nil {
		slog.Error("Failed to get status changes", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	total, err := s.db.GetStatusChangeCount()
	if err != nil {
		slog.Error("Failed to get status change count", "error", err)
		http.Error(w, "Failed to get history", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"changes": changes,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	}

	writeJSON(w, response)
}

// handleActions returns paginated key presses
func (s *Server) handleActions(w http.ResponseWriter, r *http.Request) {
	if !s.historyRequest(w, r) {
		return
	}

	limit, offset := pagination(r)

	actions, err := s.db.GetActions(limit, offset)
	if err != nil {
		slog.Error("Failed to get actions", "error", err)
		http.Error(w, "Failed to get actions", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"actions": actions,
		"limit":   limit,
		"offset":  offset,
	}

	writeJSON(w, response)
}

// handleStats returns per-action statistics for the specified time range
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.historyRequest(w, r) {
		return
	}

	daysStr := r.URL.Query().Get("days")
	days := 7 // default to 7 days
	if daysStr != "" {
		if d, err := strconv.Atoi(daysStr); err == nil && d > 0 {
			days = d
		}
	}

	stats, err := s.db.GetActionStats(days)
	if err != nil {
		slog.Error("Failed to get action stats", "error", err)
		http.Error(w, "Failed to get statistics", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"days":    days,
		"actions": stats,
	}

	writeJSON(w, response)
}

// historyRequest checks method and that history is enabled
func (s *Server) historyRequest(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if s.db == nil {
		http.Error(w, "History is disabled", http.StatusNotFound)
		return false
	}
	return true
}

func pagination(r *http.Request) (limit, offset int) {
	limit = 50 // default

	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		limit = l
	}
	if o, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && o >= 0 {
		offset = o
	}

	return limit, offset
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", "error", err)
	}
}
