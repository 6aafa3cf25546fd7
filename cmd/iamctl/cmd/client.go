package cmd

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/mtaylorio/iam-server/internal/authn"
)

// client is a minimal signing HTTP client for the IAM wire protocol. It
// builds the same canonical string the server reconstructs, so it must
// capture the exact raw path and query it sends.
type client struct {
	http       *http.Client
	baseURL    string
	prefix     string
	userID     string
	privateKey ed25519.PrivateKey
	publicKey  string // base64, derived from privateKey

	sessionToken string
}

func newClient() (*client, error) {
	if flagUserID == "" {
		return nil, fmt.Errorf("--user is required")
	}
	if flagKeyFile == "" {
		return nil, fmt.Errorf("--key is required")
	}
	priv, err := loadPrivateKey(flagKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load key: %w", err)
	}
	pub := priv.Public().(ed25519.PublicKey)

	scheme := "http"
	if flagTLS {
		scheme = "https"
	}

	return &client{
		http:         http.DefaultClient,
		baseURL:      scheme + "://" + flagHost,
		prefix:       flagPrefix,
		userID:       flagUserID,
		privateKey:   priv,
		publicKey:    base64.StdEncoding.EncodeToString(pub),
		sessionToken: os.Getenv(flagPrefix + "_SESSION_TOKEN"),
	}, nil
}

func (c *client) headerName(suffix string) string {
	return fmt.Sprintf("X-%s-%s", c.prefix, suffix)
}

// do sends a signed request for method/path (path must start with "/"),
// with query already encoded and body marshaled to JSON if non-nil. It
// returns the decoded JSON response body, or an error carrying the
// server's status and message on non-2xx responses.
func (c *client) do(method, path string, query url.Values, body any) (map[string]any, error) {
	var bodyBytes []byte
	if body != nil {
		var err error
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	rawQuery := ""
	if query != nil {
		rawQuery = query.Encode()
	}

	u := c.baseURL + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}

	req, err := http.NewRequest(method, u, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, err
	}
	if bodyBytes != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	requestID := uuid.New().String()
	host := authn.HostWithoutPort(req.Host)
	signed := authn.CanonicalString(method, host, path, rawQuery, requestID, c.sessionToken)
	sig := ed25519.Sign(c.privateKey, []byte(signed))

	req.Header.Set("Authorization", "Signature "+base64.StdEncoding.EncodeToString(sig))
	req.Header.Set(c.headerName("User-Id"), c.userID)
	req.Header.Set(c.headerName("Public-Key"), c.publicKey)
	req.Header.Set(c.headerName("Request-Id"), requestID)
	if c.sessionToken != "" {
		req.Header.Set("Session-Token", c.sessionToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 300 {
		var errBody struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if jsonErr := json.Unmarshal(raw, &errBody); jsonErr == nil && errBody.Error != "" {
			return nil, fmt.Errorf("%s: %s", errBody.Error, errBody.Message)
		}
		return nil, fmt.Errorf("request failed: %s", strings.TrimSpace(string(raw)))
	}

	if len(raw) == 0 {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		var list []any
		if err2 := json.Unmarshal(raw, &list); err2 == nil {
			return map[string]any{"items": list}, nil
		}
		return nil, err
	}
	return out, nil
}

func loadPrivateKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, fmt.Errorf("key file is not base64: %w", err)
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("key file does not contain a %d-byte ed25519 private key", ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(decoded), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
