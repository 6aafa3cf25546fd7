package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mtaylorio/iam-server/internal/domain"
)

func (s *Server) handleCreateMembership(w http.ResponseWriter, r *http.Request) {
	uident := domain.ParseUserIdentifier(chi.URLParam(r, "uid"))
	gident := domain.ParseGroupIdentifier(chi.URLParam(r, "gid"))
	if err := s.store.CreateMembership(r.Context(), uident, gident); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteMembership(w http.ResponseWriter, r *http.Request) {
	uident := domain.ParseUserIdentifier(chi.URLParam(r, "uid"))
	gident := domain.ParseGroupIdentifier(chi.URLParam(r, "gid"))
	if err := s.store.DeleteMembership(r.Context(), uident, gident); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
