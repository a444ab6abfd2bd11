package server

import (
	"net/http"

	"whisperli/core/session"
	"whisperli/logger"
	"whisperli/model"

	"github.com/gorilla/mux"
)

type saveSessionRequest struct {
	Description string `json:"description"`
}

// ListSessionsHandler summarizes every stored session. Sessions that fail
// to decode are listed by name only.
func (s *Server) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	names, err := s.app.Sessions.List(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}
	infos := make([]model.SessionInfo, 0, len(names))
	for _, name := range names {
		info, err := s.app.Sessions.Info(ctx, name)
		if err != nil {
			logger.Warn("unreadable session", logger.String("name", name), logger.ErrorField(err))
			info = model.SessionInfo{Name: name}
		}
		infos = append(infos, info)
	}
	writeJSON(w, http.StatusOK, infos)
}

// GetSessionHandler returns the stored document, as YAML with ?format=yaml.
func (s *Server) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sess, err := s.app.Sessions.Get(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") != "yaml" {
		writeJSON(w, http.StatusOK, sess)
		return
	}
	data, err := session.MarshalYAML(sess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Write(data)
}

// SaveSessionHandler stores the current mix under the name in the path.
func (s *Server) SaveSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req saveSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	sess, err := s.app.SaveSession(r.Context(), mux.Vars(r)["name"], model.Metadata{Description: req.Description})
	if err != nil {
		writeError(w, r, err)
		return
	}
	client, _ := ClientFromContext(r.Context())
	logger.Info("session saved over http",
		logger.String("name", sess.Metadata.Name),
		logger.String("client", client))
	writeJSON(w, http.StatusCreated, sess)
}

// LoadSessionHandler replaces the mix with a stored session.
func (s *Server) LoadSessionHandler(w http.ResponseWriter, r *http.Request) {
	report, err := s.app.LoadSession(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// DeleteSessionHandler removes a stored session.
func (s *Server) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	ok, err := s.app.Sessions.Delete(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
