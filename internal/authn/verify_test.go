package authn_test

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mtaylorio/iam-server/internal/authn"
	"github.com/mtaylorio/iam-server/internal/domain"
	"github.com/mtaylorio/iam-server/internal/storage/memory"
)

func setupSignedRequest(t *testing.T, method, host, path, query, requestID, sessionToken string) (*http.Request, ed25519.PublicKey, *memory.Store, uuid.UUID) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	var key [32]byte
	copy(key[:], pub)

	store := memory.New()
	user, err := domain.NewUser("alice@example.com", []domain.UserPublicKey{{Key: key, Description: "laptop"}})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), user))

	signed := authn.CanonicalString(method, authn.HostWithoutPort(host), path, query, requestID, sessionToken)
	sig := ed25519.Sign(priv, []byte(signed))

	target := path
	if query != "" {
		target += "?" + query
	}
	r := httptest.NewRequest(method, target, nil)
	r.Host = host
	r.Header.Set("Authorization", "Signature "+base64.StdEncoding.EncodeToString(sig))
	r.Header.Set("X-IAM-User-Id", user.Email)
	r.Header.Set("X-IAM-Public-Key", base64.StdEncoding.EncodeToString(pub))
	r.Header.Set("X-IAM-Request-Id", requestID)
	if sessionToken != "" {
		r.Header.Set("Session-Token", sessionToken)
	}
	return r, pub, store, user.ID
}

func TestVerify_Success(t *testing.T) {
	r, _, store, uid := setupSignedRequest(t, "GET", "iam.example.com", "/users/123", "", "22222222-2222-2222-2222-222222222222", "")
	a := &authn.Authenticator{Users: store, Headers: authn.Headers{Prefix: "IAM"}, Host: "iam.example.com"}

	res, err := a.Verify(context.Background(), r, r.URL.EscapedPath(), r.URL.RawQuery)
	require.NoError(t, err)
	require.Equal(t, uid, res.User.ID)
}

func TestVerify_HostMismatch(t *testing.T) {
	r, _, store, _ := setupSignedRequest(t, "GET", "iam.example.com", "/users/123", "", "22222222-2222-2222-2222-222222222222", "")
	a := &authn.Authenticator{Users: store, Headers: authn.Headers{Prefix: "IAM"}, Host: "evil.example.com"}

	_, err := a.Verify(context.Background(), r, r.URL.EscapedPath(), r.URL.RawQuery)
	require.Error(t, err)
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, domain.ReasonInvalidHost, authErr.Reason)
}

func TestVerify_SignatureMismatch(t *testing.T) {
	r, _, store, _ := setupSignedRequest(t, "GET", "iam.example.com", "/users/123", "", "22222222-2222-2222-2222-222222222222", "")

	sigHeader := r.Header.Get("Authorization")
	raw, err := base64.StdEncoding.DecodeString(sigHeader[len("Signature "):])
	require.NoError(t, err)
	raw[0] ^= 0xFF
	r.Header.Set("Authorization", "Signature "+base64.StdEncoding.EncodeToString(raw))

	a := &authn.Authenticator{Users: store, Headers: authn.Headers{Prefix: "IAM"}, Host: "iam.example.com"}
	_, err = a.Verify(context.Background(), r, r.URL.EscapedPath(), r.URL.RawQuery)
	require.Error(t, err)
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, domain.ReasonInvalidSignature, authErr.Reason)
}

func TestVerify_MissingHeaderFails(t *testing.T) {
	r, _, store, _ := setupSignedRequest(t, "GET", "iam.example.com", "/users/123", "", "22222222-2222-2222-2222-222222222222", "")
	r.Header.Del("X-IAM-Request-Id")

	a := &authn.Authenticator{Users: store, Headers: authn.Headers{Prefix: "IAM"}, Host: "iam.example.com"}
	_, err := a.Verify(context.Background(), r, r.URL.EscapedPath(), r.URL.RawQuery)
	require.Error(t, err)
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, domain.ReasonInvalidHeaders, authErr.Reason)
}

func TestVerify_UnknownUserMapsToUserNotFoundReason(t *testing.T) {
	r, _, store, _ := setupSignedRequest(t, "GET", "iam.example.com", "/users/123", "", "22222222-2222-2222-2222-222222222222", "")
	r.Header.Set("X-IAM-User-Id", "nobody@example.com")

	a := &authn.Authenticator{Users: store, Headers: authn.Headers{Prefix: "IAM"}, Host: "iam.example.com"}
	_, err := a.Verify(context.Background(), r, r.URL.EscapedPath(), r.URL.RawQuery)
	require.Error(t, err)
	var authErr *domain.AuthenticationError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, domain.ReasonUserNotFound, authErr.Reason)
}

func TestReplayCache_RejectsRepeat(t *testing.T) {
	cache := authn.NewInProcessReplayCache(0, 0)
	fresh, err := cache.Remember(context.Background(), "u1", "r1")
	require.NoError(t, err)
	require.True(t, fresh)

	fresh, err = cache.Remember(context.Background(), "u1", "r1")
	require.NoError(t, err)
	require.False(t, fresh)
}
