package http

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mtaylorio/iam-server/internal/authn"
	"github.com/mtaylorio/iam-server/internal/authz"
	"github.com/mtaylorio/iam-server/internal/domain"
	"github.com/mtaylorio/iam-server/internal/session"
	"github.com/mtaylorio/iam-server/internal/storage/memory"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testHost = "iam.test"

// testHarness wires a real Server against an in-memory store, with one
// registered user whose private key is available for signing requests.
type testHarness struct {
	server *Server
	store  *memory.Store
	user   *domain.User
	priv   ed25519.PrivateKey
}

func newTestHarness(t *testing.T) *testHarness {
	t.Helper()
	store := memory.New()

	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	var pubArr [32]byte
	copy(pubArr[:], pub)

	u, err := domain.NewUser("admin@example.com", []domain.UserPublicKey{{Key: pubArr, Description: "primary"}})
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(context.Background(), u))

	authenticator := &authn.Authenticator{
		Users:   store,
		Headers: authn.Headers{Prefix: "IAM"},
		Host:    testHost,
	}
	authorizer := &authz.Authorizer{Store: store}
	sessions := session.NewManager(store, 0)

	srv := NewServer(nil, store, sessions, authenticator, authorizer, testLogger())
	return &testHarness{server: srv, store: store, user: u, priv: priv}
}

func (h *testHarness) signedRequest(t *testing.T, method, path string, body []byte) *http.Request {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Host = testHost

	requestID := uuid.New().String()
	signed := authn.CanonicalString(method, testHost, req.URL.EscapedPath(), req.URL.RawQuery, requestID, "")
	sig := ed25519.Sign(h.priv, []byte(signed))

	req.Header.Set("Authorization", "Signature "+base64.StdEncoding.EncodeToString(sig))
	req.Header.Set("X-IAM-User-Id", h.user.ID.String())
	req.Header.Set("X-IAM-Public-Key", base64.StdEncoding.EncodeToString(h.priv.Public().(ed25519.PublicKey)))
	req.Header.Set("X-IAM-Request-Id", requestID)
	return req
}

func TestServer_CreateUser_RequiresPolicy(t *testing.T) {
	h := newTestHarness(t)
	body, err := json.Marshal(createUserRequest{
		Email: "new@example.com",
		PublicKeys: []publicKeyDTO{{
			Key: base64.StdEncoding.EncodeToString(make([]byte, 32)),
		}},
	})
	require.NoError(t, err)

	req := h.signedRequest(t, http.MethodPost, "/users/", body)
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)

	// The admin user has no policy attached yet, so the request is
	// denied by default-deny.
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestServer_CreateUser_AllowedByPolicy(t *testing.T) {
	h := newTestHarness(t)

	p, err := domain.NewPolicy("admin", testHost, []domain.Rule{
		{Effect: domain.EffectAllow, Action: domain.ActionWrite, Resource: "/users/*"},
		{Effect: domain.EffectAllow, Action: domain.ActionRead, Resource: "/users/*"},
	})
	require.NoError(t, err)
	require.NoError(t, h.store.CreatePolicy(context.Background(), p))
	require.NoError(t, h.store.CreateUserPolicyAttachment(context.Background(), domain.UserID(h.user.ID), domain.PolicyID(p.ID)))

	body, err := json.Marshal(createUserRequest{
		Email: "new@example.com",
		PublicKeys: []publicKeyDTO{{
			Key: base64.StdEncoding.EncodeToString(make([]byte, 32)),
		}},
	})
	require.NoError(t, err)

	req := h.signedRequest(t, http.MethodPost, "/users/", body)
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got userDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "new@example.com", got.Email)
}

func TestServer_UnsignedRequest_Unauthorized(t *testing.T) {
	h := newTestHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/users/", nil)
	req.Host = testHost
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_TamperedSignature_Unauthorized(t *testing.T) {
	h := newTestHarness(t)
	req := h.signedRequest(t, http.MethodGet, "/users/", nil)
	// Flip the request id after signing so it no longer matches the
	// signed canonical string.
	req.Header.Set("X-IAM-Request-Id", "tampered")
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_Health_IsUnauthenticated(t *testing.T) {
	h := newTestHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}
