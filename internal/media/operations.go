// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package media

import (
	"context"
	"path/filepath"
	"time"

	"github.com/ManuGH/ffgate/internal/infra/ffmpeg"
)

const defaultContainer = "mp4"

// Compress re-encodes in into format with a quality preset.
func (s *Service) Compress(ctx context.Context, in Input, format string, q ffmpeg.Quality) (*Output, error) {
	f, err := ffmpeg.Lookup(format)
	if err != nil {
		return nil, s.invalid(OpCompress, err)
	}
	out := s.ws.OutputPath(f.Ext)
	args := ffmpeg.CompressArgs(in.Path, out, f, q)
	return s.transcode(ctx, job{op: OpCompress, format: f.Name, input: in}, f, out, args)
}

// CompressCustom re-encodes in with validated client options.
func (s *Service) CompressCustom(ctx context.Context, in Input, opts ffmpeg.CustomOptions) (*Output, error) {
	f := opts.Format
	out := s.ws.OutputPath(f.Ext)
	args := ffmpeg.CustomArgs(in.Path, out, opts)
	return s.transcode(ctx, job{op: OpCompressCustom, format: f.Name, input: in}, f, out, args)
}

// Convert changes container and codecs, or only the container when
// streamCopy is set.
func (s *Service) Convert(ctx context.Context, in Input, format string, streamCopy bool) (*Output, error) {
	f, err := ffmpeg.Lookup(format)
	if err != nil {
		return nil, s.invalid(OpConvert, err)
	}
	out := s.ws.OutputPath(f.Ext)
	args, err := ffmpeg.ConvertArgs(in.Path, out, f, streamCopy)
	if err != nil {
		return nil, s.invalid(OpConvert, err)
	}
	return s.transcode(ctx, job{op: OpConvert, format: f.Name, input: in}, f, out, args)
}

// ExtractAudio drops the picture and encodes the audio track into an
// audio format. bitrate is optional and already validated.
func (s *Service) ExtractAudio(ctx context.Context, in Input, format, bitrate string) (*Output, error) {
	f, err := ffmpeg.LookupKind(format, ffmpeg.KindAudio)
	if err != nil {
		return nil, s.invalid(OpExtractAudio, err)
	}
	out := s.ws.OutputPath(f.Ext)
	args, err := ffmpeg.ExtractAudioArgs(in.Path, out, f, bitrate)
	if err != nil {
		return nil, s.invalid(OpExtractAudio, err)
	}
	return s.transcode(ctx, job{op: OpExtractAudio, format: f.Name, input: in}, f, out, args)
}

// Trim cuts one range out of in. An empty format keeps the upload's
// container when it is a video or audio format, else mp4.
func (s *Service) Trim(ctx context.Context, in Input, format string, r ffmpeg.TrimRange) (*Output, error) {
	f, err := s.containerFor(in, format)
	if err != nil {
		return nil, s.invalid(OpTrim, err)
	}
	out := s.ws.OutputPath(f.Ext)
	args := ffmpeg.TrimArgs(in.Path, out, f, r)
	return s.transcode(ctx, job{op: OpTrim, format: f.Name, input: in}, f, out, args)
}

// Split cuts in into segment-long pieces with stream copy and returns a
// zip archive holding them in order.
func (s *Service) Split(ctx context.Context, in Input, format string, segment time.Duration) (*Output, error) {
	f, err := s.containerFor(in, format)
	if err != nil {
		return nil, s.invalid(OpSplit, err)
	}

	dir, err := s.ws.SegmentDir()
	if err != nil {
		return nil, err
	}
	defer s.ws.Remove(ctx, dir)

	args, err := ffmpeg.SegmentArgs(in.Path, dir, f, segment)
	if err != nil {
		return nil, s.invalid(OpSplit, err)
	}

	err = s.execute(ctx, job{op: OpSplit, format: f.Name, input: in}, func(ctx context.Context) error {
		return s.runner.Run(ctx, args)
	})
	if err != nil {
		return nil, err
	}

	archive := s.ws.OutputPath(archiveExt)
	if err := zipSegments(ctx, dir, f.Ext, archive); err != nil {
		s.ws.Remove(ctx, archive)
		return nil, err
	}
	return s.finalize(ctx, archive, "."+archiveExt, archiveMIME)
}

// Probe runs ffprobe on in. The report names the client's file rather
// than the workspace path.
func (s *Service) Probe(ctx context.Context, in Input) (*ffmpeg.Report, error) {
	var report *ffmpeg.Report
	err := s.execute(ctx, job{op: OpMetadata, input: in}, func(ctx context.Context) error {
		r, err := s.prober.Probe(ctx, in.Path)
		if err != nil {
			return err
		}
		report = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	report.Format.Filename = filepath.Base(in.Name)
	return report, nil
}

// containerFor resolves an explicit format, or derives one from the
// upload's extension.
func (s *Service) containerFor(in Input, format string) (ffmpeg.Format, error) {
	if format != "" {
		return ffmpeg.LookupKind(format, ffmpeg.KindVideo, ffmpeg.KindAudio)
	}
	if ext := filepath.Ext(in.Name); ext != "" {
		if f, err := ffmpeg.LookupKind(ext, ffmpeg.KindVideo, ffmpeg.KindAudio); err == nil {
			return f, nil
		}
	}
	return ffmpeg.Lookup(defaultContainer)
}
