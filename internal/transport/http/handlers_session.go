package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mtaylorio/iam-server/internal/domain"
)

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	uid, err := s.store.GetUserID(r.Context(), domain.ParseUserIdentifier(chi.URLParam(r, "ident")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	offset, limit := pageParams(r)
	sessions, err := s.store.ListUserSessions(r.Context(), uid, offset, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]sessionDTO, len(sessions))
	for i, sess := range sessions {
		out[i] = newSessionDTO(sess, false)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	uid, err := s.store.GetUserID(r.Context(), domain.ParseUserIdentifier(chi.URLParam(r, "ident")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, err := s.sessions.Create(r.Context(), uid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionDTO(sess, true))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	uid, err := s.store.GetUserID(r.Context(), domain.ParseUserIdentifier(chi.URLParam(r, "ident")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sid, err := parseUUIDParam(chi.URLParam(r, "sid"))
	if err != nil {
		s.writeError(w, domain.NewNotFound("session", chi.URLParam(r, "sid")))
		return
	}
	sess, err := s.store.GetSessionByID(r.Context(), uid, sid)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newSessionDTO(sess, false))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	uid, err := s.store.GetUserID(r.Context(), domain.ParseUserIdentifier(chi.URLParam(r, "ident")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	sid, err := parseUUIDParam(chi.URLParam(r, "sid"))
	if err != nil {
		s.writeError(w, domain.NewNotFound("session", chi.URLParam(r, "sid")))
		return
	}
	if err := s.sessions.Revoke(r.Context(), uid, sid); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
