package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mtaylorio/iam-server/internal/domain"
)

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	groups, err := s.store.ListGroups(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]groupDTO, len(groups))
	for i, g := range groups {
		out[i] = newGroupDTO(g)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	group, err := domain.NewGroup(req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.CreateGroup(r.Context(), group); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newGroupDTO(group))
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	ident := domain.ParseGroupIdentifier(chi.URLParam(r, "ident"))
	group, err := s.store.GetGroup(r.Context(), ident)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newGroupDTO(group))
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	ident := domain.ParseGroupIdentifier(chi.URLParam(r, "ident"))
	if err := s.store.DeleteGroup(r.Context(), ident); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttachGroupPolicy(w http.ResponseWriter, r *http.Request) {
	gident := domain.ParseGroupIdentifier(chi.URLParam(r, "ident"))
	pident := domain.ParsePolicyIdentifier(chi.URLParam(r, "pident"))
	if err := s.store.CreateGroupPolicyAttachment(r.Context(), gident, pident); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDetachGroupPolicy(w http.ResponseWriter, r *http.Request) {
	gident := domain.ParseGroupIdentifier(chi.URLParam(r, "ident"))
	pident := domain.ParsePolicyIdentifier(chi.URLParam(r, "pident"))
	if err := s.store.DeleteGroupPolicyAttachment(r.Context(), gident, pident); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
