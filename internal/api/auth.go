// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/ManuGH/ffgate/internal/auth"
	"github.com/ManuGH/ffgate/internal/log"
)

// authMiddleware enforces the shared secret when one is configured. It
// runs before the body is read, so a rejected request never writes an
// upload or spawns a process.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		key := s.cfg.Auth.APIKey
		header := s.cfg.Auth.Header
		s.mu.RUnlock()

		if key == "" {
			next.ServeHTTP(w, r)
			return
		}

		logger := log.WithComponentFromContext(r.Context(), "auth")

		got := auth.ExtractKey(r, header)
		if got == "" {
			logger.Warn().Str(log.FieldEvent, "auth.missing_key").Msg("API key missing")
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "")
			return
		}

		// Use constant-time comparison to prevent timing attacks
		if !auth.AuthorizeToken(got, key) {
			logger.Warn().Str(log.FieldEvent, "auth.invalid_key").Msg("invalid API key")
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "")
			return
		}

		next.ServeHTTP(w, r)
	})
}
