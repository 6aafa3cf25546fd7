package authn

import (
	"fmt"
	"net/http"
)

// Headers names the configurable, prefixed header set. The
// prefix is set once at server startup (default "IAM").
type Headers struct {
	Prefix string
}

func (h Headers) userID() string     { return fmt.Sprintf("X-%s-User-Id", h.Prefix) }
func (h Headers) publicKey() string  { return fmt.Sprintf("X-%s-Public-Key", h.Prefix) }
func (h Headers) requestID() string  { return fmt.Sprintf("X-%s-Request-Id", h.Prefix) }

// raw holds the as-received header values before any parsing.
type raw struct {
	authorization string
	userID        string
	publicKey     string
	requestID     string
	sessionToken  string
}

// extract pulls the mandatory and optional headers off r. It does not
// validate their contents — that happens in Verify.
func (h Headers) extract(r *http.Request) (raw, bool) {
	out := raw{
		authorization: r.Header.Get("Authorization"),
		userID:        r.Header.Get(h.userID()),
		publicKey:     r.Header.Get(h.publicKey()),
		requestID:     r.Header.Get(h.requestID()),
		sessionToken:  r.Header.Get("Session-Token"),
	}
	if out.authorization == "" || out.userID == "" || out.publicKey == "" || out.requestID == "" {
		return raw{}, false
	}
	return out, true
}
