// Package http provides the HTTP transport layer for the IAM server: the
// request router, the authentication/authorization middleware chain, and
// the REST handlers.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mtaylorio/iam-server/internal/authn"
	"github.com/mtaylorio/iam-server/internal/authz"
	"github.com/mtaylorio/iam-server/internal/config"
	"github.com/mtaylorio/iam-server/internal/domain"
	"github.com/mtaylorio/iam-server/internal/session"
	"github.com/mtaylorio/iam-server/internal/storage"
)

// Server is the HTTP server for the IAM core.
type Server struct {
	httpServer    *http.Server
	router        *chi.Mux
	store         storage.Store
	sessions      *session.Manager
	authenticator *authn.Authenticator
	authorizer    *authz.Authorizer
	logger        *slog.Logger
}

// NewServer wires an HTTP server over store, using authenticator and
// authorizer for every request and sessions for the session-lifecycle
// endpoints.
func NewServer(
	cfg *config.Config,
	store storage.Store,
	sessions *session.Manager,
	authenticator *authn.Authenticator,
	authorizer *authz.Authorizer,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		store:         store,
		sessions:      sessions,
		authenticator: authenticator,
		authorizer:    authorizer,
		logger:        logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ListenAndServe starts the HTTP(S) server on addr. If both certFile and
// keyFile are set, it serves TLS; otherwise plaintext.
func (s *Server) ListenAndServe(addr string, certFile, keyFile string) error {
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if certFile != "" && keyFile != "" {
		return s.httpServer.ListenAndServeTLS(certFile, keyFile)
	}
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", s.handleListUsers)
			r.Post("/", s.handleCreateUser)

			r.Route("/{ident}", func(r chi.Router) {
				r.Get("/", s.handleGetUser)
				r.Delete("/", s.handleDeleteUser)

				r.Route("/sessions", func(r chi.Router) {
					r.Get("/", s.handleListSessions)
					r.Post("/", s.handleCreateSession)
					r.Get("/{sid}", s.handleGetSession)
					r.Delete("/{sid}", s.handleDeleteSession)
				})

				r.Route("/policies/{pident}", func(r chi.Router) {
					r.Post("/", s.handleAttachUserPolicy)
					r.Delete("/", s.handleDetachUserPolicy)
				})
			})
		})

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", s.handleListGroups)
			r.Post("/", s.handleCreateGroup)

			r.Route("/{ident}", func(r chi.Router) {
				r.Get("/", s.handleGetGroup)
				r.Delete("/", s.handleDeleteGroup)

				r.Route("/policies/{pident}", func(r chi.Router) {
					r.Post("/", s.handleAttachGroupPolicy)
					r.Delete("/", s.handleDetachGroupPolicy)
				})
			})
		})

		r.Route("/policies", func(r chi.Router) {
			r.Get("/", s.handleListPolicies)
			r.Post("/", s.handleCreatePolicy)

			r.Route("/{ident}", func(r chi.Router) {
				r.Get("/", s.handleGetPolicy)
				r.Put("/", s.handleUpdatePolicy)
				r.Delete("/", s.handleDeletePolicy)
			})
		})

		r.Route("/memberships/{uid}/{gid}", func(r chi.Router) {
			r.Post("/", s.handleCreateMembership)
			r.Delete("/", s.handleDeleteMembership)
		})
	})
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Response helpers

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError maps a domain error to its status code and body shape.
// Error kinds never reveal whether a resource exists when the failure is
// authentication or authorization.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var notFound *domain.NotFoundError
	var authErr *domain.AuthenticationError
	var valErrs domain.ValidationErrors
	var valErr domain.ValidationError

	switch {
	case errors.As(err, &notFound):
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: "not_found", Message: notFound.Error()})

	case errors.Is(err, domain.ErrAlreadyExists):
		s.writeJSON(w, http.StatusConflict, errorResponse{Error: "already_exists", Message: "resource already exists"})

	case errors.As(err, &authErr):
		s.logger.Info("authentication failed", slog.String("reason", string(authErr.Reason)))
		s.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication_failed", Message: "authentication failed"})

	case errors.Is(err, domain.ErrNotAuthorized):
		s.writeJSON(w, http.StatusForbidden, errorResponse{Error: "not_authorized", Message: "not authorized"})

	case errors.As(err, &valErrs):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Message: valErrs.Error()})

	case errors.As(err, &valErr):
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_input", Message: valErr.Error()})

	default:
		s.logger.Error("unhandled error", slog.String("error", err.Error()))
		s.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal_error", Message: "internal error"})
	}
}

func (s *Server) readJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.ValidationError{Field: "body", Message: "invalid JSON"}
	}
	return nil
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.status),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Context helpers

type contextKey string

const authContextKey contextKey = "iam_auth"

func setAuth(ctx context.Context, auth *authz.Auth) context.Context {
	return context.WithValue(ctx, authContextKey, auth)
}
