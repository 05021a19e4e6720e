// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package auth implements the optional shared-secret check.
package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// DefaultHeader carries the key when no header is configured.
const DefaultHeader = "X-API-Key"

// ExtractKey retrieves the API key from the request.
//  1. The configured header (default X-API-Key)
//  2. Authorization: Bearer <key>
//
// Query parameters are never consulted; keys in URLs end up in proxy logs.
func ExtractKey(r *http.Request, header string) string {
	if header == "" {
		header = DefaultHeader
	}
	if k := strings.TrimSpace(r.Header.Get(header)); k != "" {
		return k
	}

	authz := r.Header.Get("Authorization")
	if len(authz) > 7 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}

// AuthorizeToken returns true if got matches expected using constant-time comparison.
// Empty keys are always treated as unauthorized.
func AuthorizeToken(got, expected string) bool {
	if strings.TrimSpace(expected) == "" || got == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}
