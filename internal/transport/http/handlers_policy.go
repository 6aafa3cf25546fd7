package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mtaylorio/iam-server/internal/domain"
)

func (s *Server) handleListPolicies(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	ids, err := s.store.ListPolicyIDs(r.Context(), offset, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]policyDTO, 0, len(ids))
	for _, id := range ids {
		p, err := s.store.GetPolicy(r.Context(), domain.PolicyID(id))
		if err != nil {
			s.writeError(w, err)
			return
		}
		out = append(out, newPolicyDTO(p))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req createPolicyRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	policy, err := domain.NewPolicy(req.Name, req.Hostname, req.rules())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.CreatePolicy(r.Context(), policy); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPolicyDTO(policy))
}

func (s *Server) handleGetPolicy(w http.ResponseWriter, r *http.Request) {
	ident := domain.ParsePolicyIdentifier(chi.URLParam(r, "ident"))
	policy, err := s.store.GetPolicy(r.Context(), ident)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPolicyDTO(policy))
}

func (s *Server) handleUpdatePolicy(w http.ResponseWriter, r *http.Request) {
	ident := domain.ParsePolicyIdentifier(chi.URLParam(r, "ident"))
	existing, err := s.store.GetPolicy(r.Context(), ident)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req createPolicyRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	updated := existing.Clone()
	if req.Name != "" {
		updated.Name = req.Name
	}
	if req.Hostname != "" {
		updated.Hostname = req.Hostname
	}
	if req.Rules != nil {
		updated.Rules = req.rules()
	}
	if err := updated.Validate(); err != nil {
		s.writeError(w, err)
		return
	}

	if err := s.store.UpdatePolicy(r.Context(), updated); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, newPolicyDTO(updated))
}

func (s *Server) handleDeletePolicy(w http.ResponseWriter, r *http.Request) {
	ident := domain.ParsePolicyIdentifier(chi.URLParam(r, "ident"))
	if err := s.store.DeletePolicy(r.Context(), ident); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
