// Package authn implements the request authentication handler: it parses
// the signature headers, rebuilds the canonical string-to-sign, and
// verifies the Ed25519 signature against one of the caller's registered
// public keys.
package authn

import "strings"

// CanonicalString builds the deterministic byte string the signer and
// verifier must agree on. rawPath and rawQuery must be the
// exact, unmodified bytes from the request line — no percent-decoding or
// re-encoding — and host must already have its port stripped.
func CanonicalString(method, host, rawPath, rawQuery, requestID, sessionToken string) string {
	return strings.Join([]string{
		method,
		host,
		rawPath,
		rawQuery,
		requestID,
		sessionToken,
	}, "\n")
}

// HostWithoutPort drops everything at and after the first ':' in host.
func HostWithoutPort(host string) string {
	if i := strings.IndexByte(host, ':'); i >= 0 {
		return host[:i]
	}
	return host
}
