package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mtaylorio/iam-server/internal/domain"
)

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	users, err := s.store.ListUsers(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]userDTO, len(users))
	for i, u := range users {
		out[i] = newUserDTO(u)
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	user, err := req.toDomain()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newUserDTO(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	ident := domain.ParseUserIdentifier(chi.URLParam(r, "ident"))
	user, err := s.store.GetUser(r.Context(), ident)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newUserDTO(user))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	ident := domain.ParseUserIdentifier(chi.URLParam(r, "ident"))
	if err := s.store.DeleteUser(r.Context(), ident); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAttachUserPolicy(w http.ResponseWriter, r *http.Request) {
	uident := domain.ParseUserIdentifier(chi.URLParam(r, "ident"))
	pident := domain.ParsePolicyIdentifier(chi.URLParam(r, "pident"))
	if err := s.store.CreateUserPolicyAttachment(r.Context(), uident, pident); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDetachUserPolicy(w http.ResponseWriter, r *http.Request) {
	uident := domain.ParseUserIdentifier(chi.URLParam(r, "ident"))
	pident := domain.ParsePolicyIdentifier(chi.URLParam(r, "pident"))
	if err := s.store.DeleteUserPolicyAttachment(r.Context(), uident, pident); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
