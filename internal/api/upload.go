// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"

	"github.com/ManuGH/ffgate/internal/log"
	"github.com/ManuGH/ffgate/internal/media"
	"github.com/ManuGH/ffgate/internal/metrics"
)

const (
	uploadField = "file"

	maxFormFields    = 32
	maxFormValueSize = 4 << 10
)

var (
	errNoFile           = errors.New("no file uploaded")
	errInvalidMultipart = errors.New("invalid multipart form")
	errTooLarge         = errors.New("file too large")
)

// upload is a parsed request: the committed input plus the text fields.
type upload struct {
	input media.Input
	form  url.Values
}

// readUpload streams a multipart body. The file part goes straight to the
// workspace; nothing is buffered in memory beyond the small text fields.
// On error any partially committed input has already been removed.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	cfg := s.config()
	r.Body = http.MaxBytesReader(w, r.Body, cfg.Server.MaxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidMultipart, err)
	}

	up := &upload{form: url.Values{}}
	fields := 0
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.ws.Remove(r.Context(), up.input.Path)
			return nil, multipartErr(err)
		}

		if part.FormName() == uploadField && part.FileName() != "" {
			if up.input.Path != "" {
				// Only the first file part counts.
				_, _ = io.Copy(io.Discard, part)
				continue
			}
			if err := s.saveFilePart(r, part, &up.input); err != nil {
				s.ws.Remove(r.Context(), up.input.Path)
				return nil, err
			}
			continue
		}

		fields++
		if fields > maxFormFields {
			s.ws.Remove(r.Context(), up.input.Path)
			return nil, fmt.Errorf("%w: too many fields", errInvalidMultipart)
		}
		v, err := readField(part)
		if err != nil {
			s.ws.Remove(r.Context(), up.input.Path)
			return nil, err
		}
		up.form.Add(part.FormName(), v)
	}

	if up.input.Path == "" {
		return nil, errNoFile
	}
	if up.input.Size == 0 {
		s.ws.Remove(r.Context(), up.input.Path)
		return nil, errNoFile
	}
	return up, nil
}

func (s *Server) saveFilePart(r *http.Request, part *multipart.Part, in *media.Input) error {
	name := part.FileName()
	path, n, err := s.ws.SaveUpload(r.Context(), part, filepath.Ext(name))
	metrics.AddUploadBytes(n)
	if err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return fmt.Errorf("%w: %w", errTooLarge, err)
		}
		return fmt.Errorf("save upload: %w", err)
	}
	*in = media.Input{Path: path, Name: name, Size: n}

	logger := log.WithContext(r.Context(), s.logger)
	logger.Debug().
		Str(log.FieldEvent, "upload.saved").
		Str(log.FieldPath, path).
		Int64(log.FieldBytes, n).
		Msg("upload committed")
	return nil
}

func readField(part *multipart.Part) (string, error) {
	b, err := io.ReadAll(io.LimitReader(part, maxFormValueSize+1))
	if err != nil {
		return "", multipartErr(err)
	}
	if len(b) > maxFormValueSize {
		return "", fmt.Errorf("%w: field %q too long", errInvalidMultipart, part.FormName())
	}
	return string(b), nil
}

// multipartErr keeps the size-limit error recognizable and folds every
// other decoding failure into errInvalidMultipart.
func multipartErr(err error) error {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return fmt.Errorf("%w: %w", errTooLarge, err)
	}
	return fmt.Errorf("%w: %v", errInvalidMultipart, err)
}
