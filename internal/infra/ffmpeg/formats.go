// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"slices"
	"sort"
	"strings"
)

// Kind groups formats by the streams they carry.
type Kind string

const (
	KindVideo     Kind = "video"
	KindAudio     Kind = "audio"
	KindImage     Kind = "image"
	KindAnimation Kind = "animation"
)

// Format is one catalogue entry.
type Format struct {
	Name string
	Ext  string
	MIME string
	Kind Kind

	// Defaults used when re-encoding. Empty means the stream is dropped.
	VideoCodec string
	AudioCodec string

	// Encoders a client may request for this container, "copy" included where it makes sense.
	VideoCodecs []string
	AudioCodecs []string

	// Faststart moves the moov atom to the front (-movflags +faststart).
	Faststart bool
}

// HasVideo reports whether outputs carry a picture stream.
func (f Format) HasVideo() bool { return f.VideoCodec != "" }

// HasAudio reports whether outputs carry an audio stream.
func (f Format) HasAudio() bool { return f.AudioCodec != "" }

// Segmentable reports whether the segment muxer can split into this format.
func (f Format) Segmentable() bool { return f.Kind == KindVideo || f.Kind == KindAudio }

var catalogue = map[string]Format{
	"mp4": {
		Kind: KindVideo, MIME: "video/mp4", VideoCodec: "libx264", AudioCodec: "aac", Faststart: true,
		VideoCodecs: []string{"libx264", "libx265", "mpeg4", "copy"},
		AudioCodecs: []string{"aac", "libmp3lame", "libopus", "copy"},
	},
	"mov": {
		Kind: KindVideo, MIME: "video/quicktime", VideoCodec: "libx264", AudioCodec: "aac", Faststart: true,
		VideoCodecs: []string{"libx264", "libx265", "mpeg4", "prores_ks", "copy"},
		AudioCodecs: []string{"aac", "libmp3lame", "pcm_s16le", "copy"},
	},
	"mkv": {
		Kind: KindVideo, MIME: "video/x-matroska", VideoCodec: "libx264", AudioCodec: "aac",
		VideoCodecs: []string{"libx264", "libx265", "libvpx-vp9", "mpeg4", "copy"},
		AudioCodecs: []string{"aac", "libmp3lame", "libopus", "libvorbis", "flac", "copy"},
	},
	"webm": {
		Kind: KindVideo, MIME: "video/webm", VideoCodec: "libvpx-vp9", AudioCodec: "libopus",
		VideoCodecs: []string{"libvpx-vp9", "libvpx", "copy"},
		AudioCodecs: []string{"libopus", "libvorbis", "copy"},
	},
	"avi": {
		Kind: KindVideo, MIME: "video/x-msvideo", VideoCodec: "mpeg4", AudioCodec: "libmp3lame",
		VideoCodecs: []string{"mpeg4", "libx264", "copy"},
		AudioCodecs: []string{"libmp3lame", "pcm_s16le", "copy"},
	},
	"gif": {
		Kind: KindAnimation, MIME: "image/gif", VideoCodec: "gif",
		VideoCodecs: []string{"gif"},
	},
	"mp3": {
		Kind: KindAudio, MIME: "audio/mpeg", AudioCodec: "libmp3lame",
		AudioCodecs: []string{"libmp3lame", "copy"},
	},
	"aac": {
		Kind: KindAudio, MIME: "audio/aac", AudioCodec: "aac",
		AudioCodecs: []string{"aac", "copy"},
	},
	"m4a": {
		Kind: KindAudio, MIME: "audio/mp4", AudioCodec: "aac", Faststart: true,
		AudioCodecs: []string{"aac", "alac", "copy"},
	},
	"ogg": {
		Kind: KindAudio, MIME: "audio/ogg", AudioCodec: "libvorbis",
		AudioCodecs: []string{"libvorbis", "libopus", "flac", "copy"},
	},
	"opus": {
		Kind: KindAudio, MIME: "audio/opus", AudioCodec: "libopus",
		AudioCodecs: []string{"libopus", "copy"},
	},
	"flac": {
		Kind: KindAudio, MIME: "audio/flac", AudioCodec: "flac",
		AudioCodecs: []string{"flac", "copy"},
	},
	"wav": {
		Kind: KindAudio, MIME: "audio/wav", AudioCodec: "pcm_s16le",
		AudioCodecs: []string{"pcm_s16le", "pcm_s24le", "pcm_f32le"},
	},
	"jpg": {
		Kind: KindImage, MIME: "image/jpeg", VideoCodec: "mjpeg",
		VideoCodecs: []string{"mjpeg"},
	},
	"png": {
		Kind: KindImage, MIME: "image/png", VideoCodec: "png",
		VideoCodecs: []string{"png"},
	},
	"webp": {
		Kind: KindImage, MIME: "image/webp", VideoCodec: "libwebp",
		VideoCodecs: []string{"libwebp"},
	},
}

var aliases = map[string]string{
	"jpeg":  "jpg",
	"mpeg4": "mp4",
	"m4v":   "mp4",
	"oga":   "ogg",
	"qt":    "mov",
}

func init() {
	for name, f := range catalogue {
		f.Name = name
		f.Ext = "." + name
		catalogue[name] = f
	}
}

// Lookup resolves a format name or extension ("MP4", ".mp4", "jpeg").
func Lookup(name string) (Format, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "."))
	if alias, ok := aliases[key]; ok {
		key = alias
	}
	f, ok := catalogue[key]
	if !ok {
		return Format{}, &FormatError{Name: name, Supported: Names()}
	}
	return f, nil
}

// LookupKind is Lookup restricted to the given kinds.
func LookupKind(name string, kinds ...Kind) (Format, error) {
	f, err := Lookup(name)
	if err != nil {
		return Format{}, &FormatError{Name: name, Supported: Names(kinds...)}
	}
	if !slices.Contains(kinds, f.Kind) {
		return Format{}, &FormatError{Name: name, Supported: Names(kinds...)}
	}
	return f, nil
}

// Names lists the catalogue in sorted order, limited to kinds when given.
func Names(kinds ...Kind) []string {
	names := make([]string, 0, len(catalogue))
	for name, f := range catalogue {
		if len(kinds) > 0 && !slices.Contains(kinds, f.Kind) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
