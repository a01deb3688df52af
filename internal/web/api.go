// pattern: Imperative Shell

package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"gitok/internal/engine"
	"gitok/internal/scheduler"
	"gitok/internal/status"
)

// StatusResponse is the body of GET /api/status. Result and Summary are
// null until the first scan of the current root is applied.
type StatusResponse struct {
	State   scheduler.State    `json:"state"`
	Result  *status.ScanResult `json:"result"`
	Summary *status.Summary    `json:"summary"`
}

// RootRequest is the body of PUT /api/root. An empty path clears the root.
type RootRequest struct {
	Path string `json:"path"`
}

func (s *Server) buildStatus() StatusResponse {
	resp := StatusResponse{State: s.backend.State()}
	if latest, ok := s.backend.Latest(); ok {
		summary := status.Summarize(latest.Projects)
		resp.Result = &latest
		resp.Summary = &summary
	}
	return resp
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.buildStatus())
}

// handleScan handles POST /api/scan?remote=true|false.
// Responds 409 when there is no root or a scan of the same kind is
// already running.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	remote := false
	if v := r.URL.Query().Get("remote"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "remote must be true or false")
			return
		}
		remote = b
	}

	if s.backend.State().Root() == "" {
		writeError(w, http.StatusConflict, scheduler.ErrNoRoot.Error())
		return
	}

	result, ok := s.backend.Scan(r.Context(), remote)
	if !ok {
		writeError(w, http.StatusConflict, "scan skipped: one is already running or the root changed")
		return
	}
	s.logger.Info("scan requested over http", "remote", remote, "attention", result.AttentionCount)
	writeJSON(w, http.StatusOK, result)
}

// handleStartPolling handles POST /api/polling/start.
func (s *Server) handleStartPolling(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.StartPolling(); err != nil {
		if errors.Is(err, scheduler.ErrNoRoot) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.backend.State())
}

// handleStopPolling handles POST /api/polling/stop.
func (s *Server) handleStopPolling(w http.ResponseWriter, r *http.Request) {
	if err := s.backend.StopPolling(); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.backend.State())
}

// handleSetRoot handles PUT /api/root.
func (s *Server) handleSetRoot(w http.ResponseWriter, r *http.Request) {
	var req RootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	root, err := s.backend.SetRoot(req.Path)
	if err != nil {
		if errors.Is(err, engine.ErrNotDirectory) || errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("root set over http", "root", root)
	writeJSON(w, http.StatusOK, s.backend.State())
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
