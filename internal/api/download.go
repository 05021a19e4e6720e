// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/media"
	"github.com/ManuGH/ffgate/internal/metrics"
	"golang.org/x/text/unicode/norm"
)

const maxDownloadNameLen = 200

// sendOutput streams out to the client and removes it afterwards,
// whether or not the copy completed.
func (s *Server) sendOutput(w http.ResponseWriter, r *http.Request, out *media.Output, clientName string) {
	ctx := r.Context()
	defer s.ws.Remove(ctx, out.Path)

	logger := log.WithContext(ctx, s.logger)

	f, err := os.Open(out.Path)
	if err != nil {
		logger.Error().Err(err).Str(log.FieldPath, out.Path).Msg("open output")
		writeError(w, r, http.StatusInternalServerError, "internal error", "")
		return
	}
	defer func() { _ = f.Close() }()

	h := w.Header()
	h.Set("Content-Type", out.ContentType)
	h.Set("Content-Length", strconv.FormatInt(out.Size, 10))
	disposition := mime.FormatMediaType("attachment", map[string]string{
		"filename": downloadName(clientName, out.Ext),
	})
	if disposition != "" {
		h.Set("Content-Disposition", disposition)
	}
	w.WriteHeader(http.StatusOK)

	n, err := io.Copy(w, f)
	metrics.AddResponseBytes(n)
	if err != nil {
		// Headers are gone; the client sees a short body.
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "download.aborted").
			Int64(log.FieldBytes, n).
			Msg("response copy failed")
	}
}

// downloadName derives the attachment name from the client's file name:
// NFC normalized, path and control characters dropped, extension replaced.
func downloadName(clientName, ext string) string {
	base := filepath.Base(strings.ReplaceAll(clientName, `\`, "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = norm.NFC.String(base)

	base = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r), r == unicode.ReplacementChar:
			return -1
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return -1
		}
		return r
	}, base)
	base = strings.Trim(base, ". ")

	if len(base) > maxDownloadNameLen {
		base = truncateRunes(base, maxDownloadNameLen)
	}
	if base == "" {
		base = "output"
	}
	return base + ext
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	cut := 0
	for i := range s {
		if i > n {
			break
		}
		cut = i
	}
	return s[:cut]
}
