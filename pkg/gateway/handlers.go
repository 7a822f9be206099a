package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sameehj/vsh/pkg/session"
	"github.com/sameehj/vsh/pkg/shell"
	"github.com/sameehj/vsh/pkg/version"
)

type sessionResponse struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	History []string `json:"history"`
}

type commandRequest struct {
	Line string `json:"line"`
}

type completeRequest struct {
	Input string `json:"input"`
}

type completeResponse struct {
	Input string `json:"input"`
}

type historyResponse struct {
	History  []string              `json:"history"`
	Commands []shell.CommandRecord `json:"commands"`
}

type fileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type executeRequest struct {
	Code string `json:"code"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sessions := 0
	if s.sessions != nil {
		sessions = s.sessions.Len()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"uptime":   int64(time.Since(s.started).Seconds()),
		"sessions": sessions,
		"version":  version.Get(),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.RemoteAddr)
	if err != nil {
		s.writeSessionError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{
		ID:      sess.ID,
		Prompt:  sess.Shell.Prompt(),
		History: sess.Shell.History(),
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		s.writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req commandRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, sess.Shell.Run(req.Line))
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req completeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{Input: sess.Shell.Complete(req.Input)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{
		History:  sess.Shell.History(),
		Commands: sess.Shell.Commands(),
	})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	tree, err := sess.Shell.Tree()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleWriteFile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req fileRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if err := sess.Shell.WriteFile(req.Path, []byte(req.Content)); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res := s.sandbox.Execute(r.Context(), req.Code)
	if res.Err != nil {
		s.logWarn("sandbox_run_failed", "kind", s.sandbox.Kind(), "outcome", string(res.Outcome()), "error", res.Err)
	}
	writeJSON(w, http.StatusOK, res.Response())
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeSessionError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) writeSessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, session.ErrLimitReached):
		writeError(w, http.StatusTooManyRequests, err.Error())
	default:
		s.logError("session_error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out interface{}) bool {
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
