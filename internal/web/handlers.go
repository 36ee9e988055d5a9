package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cft-yamuna/quiz-agent/internal/app"
	"github.com/cft-yamuna/quiz-agent/internal/logging"
	"github.com/cft-yamuna/quiz-agent/internal/project"
	"github.com/cft-yamuna/quiz-agent/internal/shell"
	"github.com/cft-yamuna/quiz-agent/internal/snapshot"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

type buildRequest struct {
	Prompt      string `json:"prompt"`
	ProjectName string `json:"project_name,omitempty"`
}

type answerRequest struct {
	Answer string `json:"answer"`
}

type stopRequest struct {
	SessionID string `json:"session_id,omitempty"`
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := project.List(s.app.OutputDir())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if projects == nil {
		projects = []project.Info{}
	}
	respondJSON(w, http.StatusOK, projects)
}

func (s *Server) startBuild(w http.ResponseWriter, r *http.Request) {
	var req buildRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.Prompt = strings.TrimSpace(req.Prompt)
	if req.Prompt == "" {
		respondError(w, http.StatusBadRequest, "Prompt is required")
		return
	}

	id, err := s.launch(req.Prompt, req.ProjectName)
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	logging.Info("build started", "session", id, "project", req.ProjectName)
	respondJSON(w, http.StatusOK, map[string]string{"session_id": id})
}

// stream relays a session's messages as server-sent events until done.
func (s *Server) stream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	idle := time.NewTimer(s.keepAlive)
	defer idle.Stop()

	for {
		var msg Message
		select {
		case <-r.Context().Done():
			return
		case msg = <-sess.events:
		case <-idle.C:
			msg = Message{Type: TypeLog, Message: KeepAliveText}
		}

		data, _ := json.Marshal(msg)
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		flusher.Flush()

		if msg.Type == TypeDone {
			s.sessions.remove(sess.id)
			return
		}
		if !idle.Stop() {
			select {
			case <-idle.C:
			default:
			}
		}
		idle.Reset(s.keepAlive)
	}
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "sessionID"))
	if !ok {
		respondError(w, http.StatusNotFound, "Session not found or not waiting for input")
		return
	}
	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !sess.answer(strings.TrimSpace(req.Answer)) {
		respondError(w, http.StatusNotFound, "Session not found or not waiting for input")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// stopBuild cancels one session, or every running build when no session
// is named.
func (s *Server) stopBuild(w http.ResponseWriter, r *http.Request) {
	var req stopRequest
	if r.ContentLength > 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.SessionID != "" {
		sess, ok := s.sessions.get(req.SessionID)
		if !ok {
			respondError(w, http.StatusNotFound, "Session not found")
			return
		}
		sess.cancel()
	} else {
		n := s.sessions.cancelAll()
		logging.Info("stop requested", "sessions", n)
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "stop requested"})
}

func (s *Server) stopServer(w http.ResponseWriter, r *http.Request) {
	dev := s.app.DevServer()
	dev.Stop()
	shell.KillPort(dev.Port)
	respondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

func (s *Server) runProject(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "project")
	status, err := s.app.RunProject(r.Context(), name)
	switch {
	case errors.Is(err, app.ErrProjectNotFound):
		respondError(w, http.StatusNotFound, fmt.Sprintf("Project '%s' not found", name))
		return
	case err != nil:
		logging.Error("run project failed", "project", name, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, status)
}

func (s *Server) running(w http.ResponseWriter, r *http.Request) {
	status, ok := s.app.DevServer().Running()
	if !ok {
		respondJSON(w, http.StatusOK, map[string]any{"running": false})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"running": true,
		"project": status.Project,
		"url":     status.URL,
	})
}

func (s *Server) memory(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"context": s.app.Memory().RelevantContext("recent projects"),
	})
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps := s.app.Snapshots()
	if snaps == nil {
		respondJSON(w, http.StatusOK, []snapshot.Manifest{})
		return
	}
	list, err := snaps.List(chi.URLParam(r, "project"))
	if err != nil {
		respondSnapshotError(w, err)
		return
	}
	if list == nil {
		list = []snapshot.Manifest{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) revertSnapshot(w http.ResponseWriter, r *http.Request) {
	snaps := s.app.Snapshots()
	if snaps == nil {
		respondError(w, http.StatusNotFound, "Snapshots are disabled")
		return
	}
	name, id := chi.URLParam(r, "project"), chi.URLParam(r, "snapshotID")
	if err := snaps.Revert(name, id); err != nil {
		respondSnapshotError(w, err)
		return
	}
	logging.Info("snapshot restored", "project", name, "snapshot", id)
	respondJSON(w, http.StatusOK, map[string]string{"status": "reverted", "snapshot_id": id})
}

func (s *Server) diffSnapshot(w http.ResponseWriter, r *http.Request) {
	snaps := s.app.Snapshots()
	if snaps == nil {
		respondError(w, http.StatusNotFound, "Snapshots are disabled")
		return
	}
	diffs, err := snaps.Diff(chi.URLParam(r, "project"), chi.URLParam(r, "snapshotID"))
	if err != nil {
		respondSnapshotError(w, err)
		return
	}
	if diffs == nil {
		diffs = []snapshot.FileDiff{}
	}
	respondJSON(w, http.StatusOK, diffs)
}

func respondSnapshotError(w http.ResponseWriter, err error) {
	if errors.Is(err, snapshot.ErrNotFound) || errors.Is(err, snapshot.ErrNoProject) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	respondError(w, http.StatusInternalServerError, err.Error())
}

// ── Helpers ─────────────────────────────────────────────────

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Debug("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
