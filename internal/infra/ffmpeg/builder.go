// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// SegmentPattern is the output name template for the segment muxer.
const SegmentPattern = "segment_%03d"

type qualityTable[T any] map[Quality]T

var (
	x26xCRF    = qualityTable[int]{QualityLow: 32, QualityMedium: 28, QualityHigh: 23}
	x26xPreset = qualityTable[string]{QualityLow: "faster", QualityMedium: "medium", QualityHigh: "slow"}
	vp9CRF     = qualityTable[int]{QualityLow: 40, QualityMedium: 34, QualityHigh: 28}
	mpeg4Q     = qualityTable[int]{QualityLow: 10, QualityMedium: 6, QualityHigh: 3}
	audioRate  = qualityTable[string]{QualityLow: "64k", QualityMedium: "128k", QualityHigh: "192k"}
	jpegQ      = qualityTable[int]{QualityLow: 12, QualityMedium: 6, QualityHigh: 2}
	webpQ      = qualityTable[int]{QualityLow: 50, QualityMedium: 75, QualityHigh: 90}
	gifFPS     = qualityTable[int]{QualityLow: 8, QualityMedium: 10, QualityHigh: 15}
	gifWidth   = qualityTable[int]{QualityLow: 320, QualityMedium: 480, QualityHigh: 640}

	lossyAudio = []string{"aac", "libmp3lame", "libopus", "libvorbis"}
)

// baseArgs opens every invocation. seek goes before -i so it applies to the input.
func baseArgs(input string, seek ...string) []string {
	args := []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error"}
	args = append(args, seek...)
	return append(args, "-i", input)
}

func pixFmt(codec string) string {
	if codec == "prores_ks" {
		return "yuv422p10le"
	}
	return "yuv420p"
}

// defaultEncodeArgs re-encodes with the format's default codecs and encoder defaults.
func defaultEncodeArgs(f Format) []string {
	var args []string
	switch f.Kind {
	case KindVideo:
		args = append(args, "-c:v", f.VideoCodec, "-pix_fmt", pixFmt(f.VideoCodec), "-c:a", f.AudioCodec)
	case KindAudio:
		args = append(args, "-vn", "-c:a", f.AudioCodec)
	case KindImage:
		args = append(args, "-frames:v", "1", "-c:v", f.VideoCodec)
	case KindAnimation:
		args = append(args, "-an", "-c:v", f.VideoCodec, "-loop", "0")
	}
	return args
}

func finish(args []string, f Format, output string) []string {
	if f.Faststart {
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, output)
}

// CompressArgs builds the preset compression command for f at quality q.
func CompressArgs(input, output string, f Format, q Quality) []string {
	args := baseArgs(input)

	switch f.Kind {
	case KindVideo:
		args = append(args, videoQualityArgs(f.VideoCodec, q)...)
		args = append(args, "-pix_fmt", pixFmt(f.VideoCodec))
		args = append(args, audioQualityArgs(f.AudioCodec, q)...)
	case KindAudio:
		args = append(args, "-vn")
		args = append(args, audioQualityArgs(f.AudioCodec, q)...)
	case KindImage:
		args = append(args, "-frames:v", "1", "-c:v", f.VideoCodec)
		switch f.VideoCodec {
		case "mjpeg":
			args = append(args, "-q:v", strconv.Itoa(jpegQ[q]))
		case "libwebp":
			args = append(args, "-quality", strconv.Itoa(webpQ[q]))
		case "png":
			args = append(args, "-compression_level", "9")
		}
	case KindAnimation:
		vf := "fps=" + strconv.Itoa(gifFPS[q]) + ",scale=" + strconv.Itoa(gifWidth[q]) + ":-1:flags=lanczos"
		args = append(args, "-an", "-vf", vf, "-c:v", f.VideoCodec, "-loop", "0")
	}

	return finish(args, f, output)
}

func videoQualityArgs(codec string, q Quality) []string {
	switch codec {
	case "libx264", "libx265":
		return []string{"-c:v", codec, "-preset", x26xPreset[q], "-crf", strconv.Itoa(x26xCRF[q])}
	case "libvpx-vp9":
		return []string{"-c:v", codec, "-crf", strconv.Itoa(vp9CRF[q]), "-b:v", "0"}
	case "mpeg4":
		return []string{"-c:v", codec, "-q:v", strconv.Itoa(mpeg4Q[q])}
	default:
		return []string{"-c:v", codec}
	}
}

func audioQualityArgs(codec string, q Quality) []string {
	switch {
	case slices.Contains(lossyAudio, codec):
		return []string{"-c:a", codec, "-b:a", audioRate[q]}
	case codec == "flac":
		return []string{"-c:a", codec, "-compression_level", "8"}
	default:
		return []string{"-c:a", codec}
	}
}

// CustomArgs builds the command for validated custom options.
func CustomArgs(input, output string, o CustomOptions) []string {
	args := baseArgs(input)
	f := o.Format

	if f.Kind == KindImage {
		args = append(args, "-frames:v", "1")
	}

	if o.VideoCodec == "" {
		args = append(args, "-vn")
	} else {
		args = append(args, "-c:v", o.VideoCodec)
		if o.VideoCodec != "copy" {
			if o.CRF >= 0 {
				args = append(args, "-crf", strconv.Itoa(o.CRF))
				if strings.HasPrefix(o.VideoCodec, "libvpx") && o.VideoBitrate == "" {
					args = append(args, "-b:v", "0")
				}
			}
			if o.Preset != "" {
				args = append(args, "-preset", o.Preset)
			}
			if o.VideoBitrate != "" {
				args = append(args, "-b:v", o.VideoBitrate)
			}
			var filters []string
			if o.Scale != "" {
				filters = append(filters, "scale="+o.Scale)
			}
			if o.FPS > 0 {
				filters = append(filters, "fps="+strconv.Itoa(o.FPS))
			}
			if len(filters) > 0 {
				args = append(args, "-vf", strings.Join(filters, ","))
			}
			if f.Kind == KindVideo {
				args = append(args, "-pix_fmt", pixFmt(o.VideoCodec))
			}
		}
		if f.Kind == KindAnimation {
			args = append(args, "-loop", "0")
		}
	}

	if o.AudioCodec == "" {
		args = append(args, "-an")
	} else {
		args = append(args, "-c:a", o.AudioCodec)
		if o.AudioBitrate != "" {
			args = append(args, "-b:a", o.AudioBitrate)
		}
		if o.SampleRate > 0 {
			args = append(args, "-ar", strconv.Itoa(o.SampleRate))
		}
		if o.Channels > 0 {
			args = append(args, "-ac", strconv.Itoa(o.Channels))
		}
	}

	return finish(args, f, output)
}

// ConvertArgs re-encodes into f with its default codecs, or remuxes when
// streamCopy is set.
func ConvertArgs(input, output string, f Format, streamCopy bool) ([]string, error) {
	args := baseArgs(input)
	if !streamCopy {
		return finish(append(args, defaultEncodeArgs(f)...), f, output), nil
	}

	switch f.Kind {
	case KindVideo:
		args = append(args, "-c", "copy")
	case KindAudio:
		args = append(args, "-vn", "-c:a", "copy")
	default:
		return nil, invalidf("copy is not supported for %s", f.Name)
	}
	return finish(args, f, output), nil
}

// ExtractAudioArgs drops video and encodes the audio track into f.
// bitrate applies to lossy codecs only.
func ExtractAudioArgs(input, output string, f Format, bitrate string) ([]string, error) {
	if f.Kind != KindAudio {
		return nil, invalidf("%s is not an audio format", f.Name)
	}
	args := append(baseArgs(input), "-vn", "-sn", "-dn", "-c:a", f.AudioCodec)
	if bitrate != "" {
		if !slices.Contains(lossyAudio, f.AudioCodec) {
			return nil, invalidf("bitrate is not supported for lossless %s", f.Name)
		}
		args = append(args, "-b:a", bitrate)
	}
	return finish(args, f, output), nil
}

// SegmentArgs splits input into seg-long pieces with stream copy. dir holds
// the numbered outputs.
func SegmentArgs(input, dir string, f Format, seg time.Duration) ([]string, error) {
	if !f.Segmentable() {
		return nil, invalidf("cannot split into %s", f.Name)
	}
	args := baseArgs(input)
	if f.Kind == KindAudio {
		args = append(args, "-vn", "-map", "0:a", "-c:a", "copy")
	} else {
		args = append(args, "-map", "0:v?", "-map", "0:a?", "-c", "copy")
	}
	args = append(args,
		"-f", "segment",
		"-segment_time", seconds(seg),
		"-reset_timestamps", "1",
	)
	if f.Faststart {
		args = append(args, "-segment_format_options", "movflags=+faststart")
	}
	return append(args, strings.TrimRight(dir, "/")+"/"+SegmentPattern+f.Ext), nil
}

// TrimArgs cuts [r.Start, r.Start+r.Duration) and re-encodes so the cut
// is frame accurate.
func TrimArgs(input, output string, f Format, r TrimRange) []string {
	args := baseArgs(input, "-ss", seconds(r.Start))
	args = append(args, "-t", seconds(r.Duration))
	args = append(args, defaultEncodeArgs(f)...)
	return finish(args, f, output)
}
