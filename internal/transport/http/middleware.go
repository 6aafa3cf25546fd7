package http

import (
	"net/http"

	"github.com/mtaylorio/iam-server/internal/authn"
)

// authMiddleware runs the authentication handler followed by
// the authorization handler on every request behind it. The
// raw path and query are captured here, before chi's routing touches the
// request, so the canonical string-to-sign is built from the exact bytes
// of the request line.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawPath := r.URL.EscapedPath()
		rawQuery := r.URL.RawQuery

		result, err := s.authenticator.Verify(r.Context(), r, rawPath, rawQuery)
		if err != nil {
			s.writeError(w, err)
			return
		}

		auth, err := s.authorizer.Authorize(r.Context(), result.User, result.SessionToken, authn.HostWithoutPort(r.Host), r.Method, rawPath)
		if err != nil {
			s.writeError(w, err)
			return
		}

		ctx := setAuth(r.Context(), auth)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
