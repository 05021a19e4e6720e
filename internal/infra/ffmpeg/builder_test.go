// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var base = []string{"-hide_banner", "-nostdin", "-y", "-loglevel", "error", "-i", "/w/in"}

func withBase(extra ...string) []string {
	return append(append([]string{}, base...), extra...)
}

func mustFormat(t *testing.T, name string) Format {
	t.Helper()
	f, err := Lookup(name)
	require.NoError(t, err)
	return f
}

func TestCompressArgs(t *testing.T) {
	tests := []struct {
		format  string
		quality Quality
		want    []string
	}{
		{"mp4", QualityMedium, withBase(
			"-c:v", "libx264", "-preset", "medium", "-crf", "28", "-pix_fmt", "yuv420p",
			"-c:a", "aac", "-b:a", "128k", "-movflags", "+faststart", "/w/out.mp4")},
		{"mkv", QualityHigh, withBase(
			"-c:v", "libx264", "-preset", "slow", "-crf", "23", "-pix_fmt", "yuv420p",
			"-c:a", "aac", "-b:a", "192k", "/w/out.mkv")},
		{"webm", QualityLow, withBase(
			"-c:v", "libvpx-vp9", "-crf", "40", "-b:v", "0", "-pix_fmt", "yuv420p",
			"-c:a", "libopus", "-b:a", "64k", "/w/out.webm")},
		{"avi", QualityMedium, withBase(
			"-c:v", "mpeg4", "-q:v", "6", "-pix_fmt", "yuv420p",
			"-c:a", "libmp3lame", "-b:a", "128k", "/w/out.avi")},
		{"mp3", QualityLow, withBase("-vn", "-c:a", "libmp3lame", "-b:a", "64k", "/w/out.mp3")},
		{"flac", QualityHigh, withBase("-vn", "-c:a", "flac", "-compression_level", "8", "/w/out.flac")},
		{"wav", QualityMedium, withBase("-vn", "-c:a", "pcm_s16le", "/w/out.wav")},
		{"m4a", QualityMedium, withBase("-vn", "-c:a", "aac", "-b:a", "128k", "-movflags", "+faststart", "/w/out.m4a")},
		{"jpg", QualityHigh, withBase("-frames:v", "1", "-c:v", "mjpeg", "-q:v", "2", "/w/out.jpg")},
		{"webp", QualityLow, withBase("-frames:v", "1", "-c:v", "libwebp", "-quality", "50", "/w/out.webp")},
		{"png", QualityLow, withBase("-frames:v", "1", "-c:v", "png", "-compression_level", "9", "/w/out.png")},
		{"gif", QualityMedium, withBase("-an", "-vf", "fps=10,scale=480:-1:flags=lanczos", "-c:v", "gif", "-loop", "0", "/w/out.gif")},
	}

	for _, tt := range tests {
		t.Run(tt.format+"_"+string(tt.quality), func(t *testing.T) {
			got := CompressArgs("/w/in", "/w/out."+tt.format, mustFormat(t, tt.format), tt.quality)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CompressArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompressArgs_Deterministic(t *testing.T) {
	f := mustFormat(t, "mp4")
	a := CompressArgs("/w/in", "/w/out.mp4", f, QualityHigh)
	b := CompressArgs("/w/in", "/w/out.mp4", f, QualityHigh)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("argv differs between runs:\n%s", diff)
	}
}

func TestCustomArgs(t *testing.T) {
	tests := []struct {
		name string
		form url.Values
		want []string
	}{
		{
			name: "full video options",
			form: url.Values{
				"format": {"mp4"}, "video_codec": {"libx265"}, "crf": {"24"}, "preset": {"slow"},
				"resolution": {"720p"}, "fps": {"30"}, "audio_codec": {"aac"}, "audio_bitrate": {"96k"},
				"sample_rate": {"44100"}, "channels": {"2"},
			},
			want: withBase(
				"-c:v", "libx265", "-crf", "24", "-preset", "slow", "-vf", "scale=-2:720,fps=30",
				"-pix_fmt", "yuv420p", "-c:a", "aac", "-b:a", "96k", "-ar", "44100", "-ac", "2",
				"-movflags", "+faststart", "/w/out"),
		},
		{
			name: "vp9 crf implies constant quality",
			form: url.Values{"format": {"webm"}, "crf": {"30"}},
			want: withBase("-c:v", "libvpx-vp9", "-crf", "30", "-b:v", "0", "-pix_fmt", "yuv420p", "-c:a", "libopus", "/w/out"),
		},
		{
			name: "copy video, re-encode audio",
			form: url.Values{"format": {"mkv"}, "video_codec": {"copy"}, "audio_codec": {"libopus"}, "audio_bitrate": {"160k"}},
			want: withBase("-c:v", "copy", "-c:a", "libopus", "-b:a", "160k", "/w/out"),
		},
		{
			name: "audio only format",
			form: url.Values{"format": {"mp3"}, "audio_bitrate": {"320k"}, "channels": {"1"}},
			want: withBase("-vn", "-c:a", "libmp3lame", "-b:a", "320k", "-ac", "1", "/w/out"),
		},
		{
			name: "image with explicit size",
			form: url.Values{"format": {"png"}, "resolution": {"640x-2"}},
			want: withBase("-frames:v", "1", "-c:v", "png", "-vf", "scale=640:-2", "-an", "/w/out"),
		},
		{
			name: "gif with fps",
			form: url.Values{"format": {"gif"}, "fps": {"12"}, "resolution": {"320x-2"}},
			want: withBase("-c:v", "gif", "-vf", "scale=320:-2,fps=12", "-loop", "0", "-an", "/w/out"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ParseCustomOptions(tt.form)
			require.NoError(t, err)
			got := CustomArgs("/w/in", "/w/out", opts)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CustomArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConvertArgs(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		copy    bool
		want    []string
		wantErr bool
	}{
		{"mp4 re-encode", "mp4", false, withBase("-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "aac", "-movflags", "+faststart", "/w/out"), false},
		{"mkv remux", "mkv", true, withBase("-c", "copy", "/w/out"), false},
		{"mov remux keeps faststart", "mov", true, withBase("-c", "copy", "-movflags", "+faststart", "/w/out"), false},
		{"ogg re-encode", "ogg", false, withBase("-vn", "-c:a", "libvorbis", "/w/out"), false},
		{"opus remux", "opus", true, withBase("-vn", "-c:a", "copy", "/w/out"), false},
		{"jpg frame grab", "jpg", false, withBase("-frames:v", "1", "-c:v", "mjpeg", "/w/out"), false},
		{"gif", "gif", false, withBase("-an", "-c:v", "gif", "-loop", "0", "/w/out"), false},
		{"gif copy rejected", "gif", true, nil, true},
		{"png copy rejected", "png", true, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertArgs("/w/in", "/w/out", mustFormat(t, tt.format), tt.copy)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidOption)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ConvertArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExtractAudioArgs(t *testing.T) {
	got, err := ExtractAudioArgs("/w/in", "/w/out.mp3", mustFormat(t, "mp3"), "192k")
	require.NoError(t, err)
	want := withBase("-vn", "-sn", "-dn", "-c:a", "libmp3lame", "-b:a", "192k", "/w/out.mp3")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractAudioArgs() mismatch (-want +got):\n%s", diff)
	}

	got, err = ExtractAudioArgs("/w/in", "/w/out.m4a", mustFormat(t, "m4a"), "")
	require.NoError(t, err)
	want = withBase("-vn", "-sn", "-dn", "-c:a", "aac", "-movflags", "+faststart", "/w/out.m4a")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ExtractAudioArgs() mismatch (-want +got):\n%s", diff)
	}

	_, err = ExtractAudioArgs("/w/in", "/w/out.flac", mustFormat(t, "flac"), "320k")
	require.ErrorIs(t, err, ErrInvalidOption)

	_, err = ExtractAudioArgs("/w/in", "/w/out.mp4", mustFormat(t, "mp4"), "")
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestSegmentArgs(t *testing.T) {
	got, err := SegmentArgs("/w/in", "/w/seg/", mustFormat(t, "mkv"), 10*time.Second)
	require.NoError(t, err)
	want := withBase(
		"-map", "0:v?", "-map", "0:a?", "-c", "copy",
		"-f", "segment", "-segment_time", "10.000", "-reset_timestamps", "1",
		"/w/seg/segment_%03d.mkv")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SegmentArgs() mismatch (-want +got):\n%s", diff)
	}

	got, err = SegmentArgs("/w/in", "/w/seg", mustFormat(t, "mp3"), 1500*time.Millisecond)
	require.NoError(t, err)
	want = withBase(
		"-vn", "-map", "0:a", "-c:a", "copy",
		"-f", "segment", "-segment_time", "1.500", "-reset_timestamps", "1",
		"/w/seg/segment_%03d.mp3")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SegmentArgs() mismatch (-want +got):\n%s", diff)
	}

	got, err = SegmentArgs("/w/in", "/w/seg", mustFormat(t, "mp4"), time.Minute)
	require.NoError(t, err)
	require.Contains(t, strings.Join(got, " "), "-segment_format_options movflags=+faststart")

	_, err = SegmentArgs("/w/in", "/w/seg", mustFormat(t, "jpg"), time.Second)
	require.ErrorIs(t, err, ErrInvalidOption)
}

func TestTrimArgs(t *testing.T) {
	got := TrimArgs("/w/in", "/w/out.mp4", mustFormat(t, "mp4"), TrimRange{Start: 90 * time.Second, Duration: 2500 * time.Millisecond})
	want := []string{
		"-hide_banner", "-nostdin", "-y", "-loglevel", "error",
		"-ss", "90.000", "-i", "/w/in", "-t", "2.500",
		"-c:v", "libx264", "-pix_fmt", "yuv420p", "-c:a", "aac",
		"-movflags", "+faststart", "/w/out.mp4",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TrimArgs() mismatch (-want +got):\n%s", diff)
	}
}

func TestProbeArgs(t *testing.T) {
	want := []string{"-v", "error", "-print_format", "json", "-show_format", "-show_streams", "/w/in"}
	if diff := cmp.Diff(want, ProbeArgs("/w/in")); diff != "" {
		t.Errorf("ProbeArgs() mismatch (-want +got):\n%s", diff)
	}
}
