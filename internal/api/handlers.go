// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package api

import (
	"net/http"

	"github.com/ManuGH/ffgate/internal/infra/ffmpeg"
	"github.com/ManuGH/ffgate/internal/media"
	"github.com/go-chi/chi/v5"
)

// transcodeFunc turns a parsed upload into a result file.
type transcodeFunc func(r *http.Request, up *upload) (*media.Output, error)

// handleHealth is the bare liveness probe.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// serveTranscode runs the shared upload → tool → download path. The input
// is removed when the handler returns; sendOutput removes the output.
func (s *Server) serveTranscode(w http.ResponseWriter, r *http.Request, op string, fn transcodeFunc) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.writeMediaError(w, r, op, err)
		return
	}
	defer s.ws.Remove(r.Context(), up.input.Path)

	out, err := fn(r, up)
	if err != nil {
		s.writeMediaError(w, r, op, err)
		return
	}
	s.sendOutput(w, r, out, up.input.Name)
}

// pathFormat validates the {format} URL segment before the body is read,
// so a bad format costs no upload.
func pathFormat(r *http.Request, kinds ...ffmpeg.Kind) (string, error) {
	name := chi.URLParam(r, "format")
	if len(kinds) == 0 {
		_, err := ffmpeg.Lookup(name)
		return name, err
	}
	_, err := ffmpeg.LookupKind(name, kinds...)
	return name, err
}

func (s *Server) handleCompress(w http.ResponseWriter, r *http.Request) {
	format, err := pathFormat(r)
	if err != nil {
		s.writeMediaError(w, r, media.OpCompress, err)
		return
	}
	s.serveTranscode(w, r, media.OpCompress, func(r *http.Request, up *upload) (*media.Output, error) {
		q, err := ffmpeg.ParseQuality(up.form.Get("quality"))
		if err != nil {
			return nil, err
		}
		return s.media.Compress(r.Context(), up.input, format, q)
	})
}

func (s *Server) handleCompressCustom(w http.ResponseWriter, r *http.Request) {
	s.serveTranscode(w, r, media.OpCompressCustom, func(r *http.Request, up *upload) (*media.Output, error) {
		opts, err := ffmpeg.ParseCustomOptions(up.form)
		if err != nil {
			return nil, err
		}
		return s.media.CompressCustom(r.Context(), up.input, opts)
	})
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	format, err := pathFormat(r)
	if err != nil {
		s.writeMediaError(w, r, media.OpConvert, err)
		return
	}
	s.serveTranscode(w, r, media.OpConvert, func(r *http.Request, up *upload) (*media.Output, error) {
		streamCopy, err := ffmpeg.ParseFlag("copy", up.form.Get("copy"))
		if err != nil {
			return nil, err
		}
		return s.media.Convert(r.Context(), up.input, format, streamCopy)
	})
}

func (s *Server) handleExtractAudio(w http.ResponseWriter, r *http.Request) {
	format, err := pathFormat(r, ffmpeg.KindAudio)
	if err != nil {
		s.writeMediaError(w, r, media.OpExtractAudio, err)
		return
	}
	s.serveTranscode(w, r, media.OpExtractAudio, func(r *http.Request, up *upload) (*media.Output, error) {
		bitrate, err := ffmpeg.ParseBitrate("bitrate", up.form.Get("bitrate"))
		if err != nil {
			return nil, err
		}
		return s.media.ExtractAudio(r.Context(), up.input, format, bitrate)
	})
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	s.serveTranscode(w, r, media.OpSplit, func(r *http.Request, up *upload) (*media.Output, error) {
		segment, err := ffmpeg.ParseSegmentTime(up.form.Get("segment_time"))
		if err != nil {
			return nil, err
		}
		return s.media.Split(r.Context(), up.input, up.form.Get("format"), segment)
	})
}

func (s *Server) handleTrim(w http.ResponseWriter, r *http.Request) {
	s.serveTranscode(w, r, media.OpTrim, func(r *http.Request, up *upload) (*media.Output, error) {
		span, err := ffmpeg.ParseTrimRange(up.form.Get("start"), up.form.Get("duration"), up.form.Get("end"))
		if err != nil {
			return nil, err
		}
		return s.media.Trim(r.Context(), up.input, up.form.Get("format"), span)
	})
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	up, err := s.readUpload(w, r)
	if err != nil {
		s.writeMediaError(w, r, media.OpMetadata, err)
		return
	}
	defer s.ws.Remove(r.Context(), up.input.Path)

	report, err := s.media.Probe(r.Context(), up.input)
	if err != nil {
		s.writeMediaError(w, r, media.OpMetadata, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
