package authn

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/mtaylorio/iam-server/internal/domain"
	"github.com/mtaylorio/iam-server/internal/storage"
)

const signaturePrefix = "Signature "

// ReplayCache records (uid, request-id) pairs already seen, to satisfy the
// open question. A Remember call that returns false means the pair was
// already present — the caller should reject the request as a replay.
// Implementations bound memory by expiring entries after a window aligned
// to allowed clock skew.
type ReplayCache interface {
	Remember(ctx context.Context, uid, requestID string) (fresh bool, err error)
}

// Result is what a successful Verify call hands to the authorization
// handler.
type Result struct {
	User         *domain.User
	RequestID    string
	SessionToken string
}

// Authenticator implements the authentication handler.
type Authenticator struct {
	Users   storage.UserStore
	Headers Headers
	// Host is the server's configured hostname, compared byte-for-byte
	// (case-sensitive) against the request's Host header with its port
	// stripped.
	Host   string
	Replay ReplayCache
}

// Verify runs the full authentication procedure against r and returns the
// resolved user. rawPath and rawQuery must be the untouched bytes from the
// request line, for deterministic reconstruction — callers pass
// r.URL.EscapedPath() and r.URL.RawQuery, captured before any router
// rewrites them.
func (a *Authenticator) Verify(ctx context.Context, r *http.Request, rawPath, rawQuery string) (*Result, error) {
	h, ok := a.Headers.extract(r)
	if !ok {
		return nil, domain.NewAuthenticationError(domain.ReasonInvalidHeaders)
	}

	sig, ok := parseSignatureHeader(h.authorization)
	if !ok {
		return nil, domain.NewAuthenticationError(domain.ReasonInvalidHeaders)
	}

	pubKeyBytes, err := base64.StdEncoding.DecodeString(h.publicKey)
	if err != nil || len(pubKeyBytes) != ed25519.PublicKeySize {
		return nil, domain.NewAuthenticationError(domain.ReasonInvalidHeaders)
	}

	host := HostWithoutPort(r.Host)
	if host != a.Host {
		return nil, domain.NewAuthenticationError(domain.ReasonInvalidHost)
	}

	user, err := a.Users.GetUser(ctx, domain.ParseUserIdentifier(h.userID))
	if err != nil {
		return nil, domain.NewAuthenticationError(domain.ReasonUserNotFound)
	}

	var pubKey [32]byte
	copy(pubKey[:], pubKeyBytes)
	if !user.HasPublicKey(pubKey) {
		return nil, domain.NewAuthenticationError(domain.ReasonInvalidSignature)
	}

	signed := CanonicalString(r.Method, host, rawPath, rawQuery, h.requestID, h.sessionToken)
	if !ed25519.Verify(ed25519.PublicKey(pubKeyBytes), []byte(signed), sig) {
		return nil, domain.NewAuthenticationError(domain.ReasonInvalidSignature)
	}

	if a.Replay != nil {
		fresh, err := a.Replay.Remember(ctx, user.ID.String(), h.requestID)
		if err != nil {
			return nil, domain.ErrInternal
		}
		if !fresh {
			return nil, domain.NewAuthenticationError(domain.ReasonInvalidSignature)
		}
	}

	return &Result{User: user, RequestID: h.requestID, SessionToken: h.sessionToken}, nil
}

func parseSignatureHeader(v string) ([]byte, bool) {
	if !strings.HasPrefix(v, signaturePrefix) {
		return nil, false
	}
	sig, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(v, signaturePrefix))
	if err != nil || len(sig) != ed25519.SignatureSize {
		return nil, false
	}
	return sig, true
}
