// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package ffmpeg

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Quality selects a compression preset.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ParseQuality accepts low|medium|high; empty means medium.
func ParseQuality(s string) (Quality, error) {
	switch q := Quality(strings.ToLower(strings.TrimSpace(s))); q {
	case "":
		return QualityMedium, nil
	case QualityLow, QualityMedium, QualityHigh:
		return q, nil
	default:
		return "", invalidf("quality must be one of low, medium, high")
	}
}

var (
	bitrateRe    = regexp.MustCompile(`^\d+(\.\d+)?[kKmM]?$`)
	resolutionRe = regexp.MustCompile(`^(\d{1,5}|-2)x(\d{1,5}|-2)$`)
	decimalRe    = regexp.MustCompile(`^\d+(\.\d+)?$`)

	x26xPresets = []string{
		"ultrafast", "superfast", "veryfast", "faster", "fast",
		"medium", "slow", "slower", "veryslow",
	}

	namedResolutions = map[string]string{
		"360p":  "-2:360",
		"480p":  "-2:480",
		"720p":  "-2:720",
		"1080p": "-2:1080",
		"1440p": "-2:1440",
		"2160p": "-2:2160",
	}

	crfCodecs = []string{"libx264", "libx265", "libvpx-vp9", "libvpx"}
)

// CustomOptions is a validated custom-compression request.
// Zero values mean "not set"; CRF uses -1 for unset.
type CustomOptions struct {
	Format       Format
	VideoCodec   string
	AudioCodec   string
	CRF          int
	Preset       string
	VideoBitrate string
	AudioBitrate string
	// Scale is an ffmpeg scale argument ("1280:-2").
	Scale      string
	FPS        int
	SampleRate int
	Channels   int
}

// ParseCustomOptions validates custom compression fields. Every value the
// client controls is checked before it can reach an argument vector.
func ParseCustomOptions(form url.Values) (CustomOptions, error) {
	get := func(k string) string { return strings.TrimSpace(form.Get(k)) }

	for k, vs := range form {
		// parseResolution fully constrains its value, which may lead with -2.
		if k == "resolution" {
			continue
		}
		for _, v := range vs {
			if strings.HasPrefix(strings.TrimSpace(v), "-") {
				return CustomOptions{}, invalidf("%s must not start with '-'", k)
			}
		}
	}

	name := get("format")
	if name == "" {
		return CustomOptions{}, invalidf("format is required")
	}
	f, err := Lookup(name)
	if err != nil {
		return CustomOptions{}, err
	}

	opts := CustomOptions{Format: f, CRF: -1}

	if opts.VideoCodec, err = pickCodec("video_codec", get("video_codec"), f.VideoCodec, f.VideoCodecs); err != nil {
		return CustomOptions{}, err
	}
	if opts.AudioCodec, err = pickCodec("audio_codec", get("audio_codec"), f.AudioCodec, f.AudioCodecs); err != nil {
		return CustomOptions{}, err
	}

	if v := get("crf"); v != "" {
		if opts.CRF, err = intInRange("crf", v, 0, 51); err != nil {
			return CustomOptions{}, err
		}
		if !slices.Contains(crfCodecs, opts.VideoCodec) {
			return CustomOptions{}, invalidf("crf is not supported by video codec %s", codecLabel(opts.VideoCodec))
		}
	}

	if v := get("preset"); v != "" {
		if !slices.Contains(x26xPresets, v) {
			return CustomOptions{}, invalidf("preset must be one of %s", strings.Join(x26xPresets, ", "))
		}
		if opts.VideoCodec != "libx264" && opts.VideoCodec != "libx265" {
			return CustomOptions{}, invalidf("preset is not supported by video codec %s", codecLabel(opts.VideoCodec))
		}
		opts.Preset = v
	}

	if v := get("video_bitrate"); v != "" {
		if !bitrateRe.MatchString(v) {
			return CustomOptions{}, invalidf("video_bitrate must look like 2500k or 2.5M")
		}
		if !f.HasVideo() {
			return CustomOptions{}, invalidf("video_bitrate is not valid for %s", f.Name)
		}
		opts.VideoBitrate = v
	}

	if v := get("audio_bitrate"); v != "" {
		if !bitrateRe.MatchString(v) {
			return CustomOptions{}, invalidf("audio_bitrate must look like 128k")
		}
		if !f.HasAudio() {
			return CustomOptions{}, invalidf("audio_bitrate is not valid for %s", f.Name)
		}
		opts.AudioBitrate = v
	}

	if v := get("resolution"); v != "" {
		if opts.Scale, err = parseResolution(v); err != nil {
			return CustomOptions{}, err
		}
	}

	if v := get("fps"); v != "" {
		if opts.FPS, err = intInRange("fps", v, 1, 240); err != nil {
			return CustomOptions{}, err
		}
	}
	if v := get("sample_rate"); v != "" {
		if opts.SampleRate, err = intInRange("sample_rate", v, 8000, 192000); err != nil {
			return CustomOptions{}, err
		}
	}
	if v := get("channels"); v != "" {
		if opts.Channels, err = intInRange("channels", v, 1, 8); err != nil {
			return CustomOptions{}, err
		}
	}

	if err := opts.checkStreams(); err != nil {
		return CustomOptions{}, err
	}
	return opts, nil
}

// checkStreams rejects options that target a stream the output lacks or
// that need re-encoding while the stream is copied.
func (o CustomOptions) checkStreams() error {
	videoSet := o.CRF >= 0 || o.Preset != "" || o.VideoBitrate != "" || o.Scale != "" || o.FPS > 0
	audioSet := o.AudioBitrate != "" || o.SampleRate > 0 || o.Channels > 0

	if videoSet && !o.Format.HasVideo() {
		return invalidf("video options are not valid for %s", o.Format.Name)
	}
	if audioSet && !o.Format.HasAudio() {
		return invalidf("audio options are not valid for %s", o.Format.Name)
	}
	if videoSet && o.VideoCodec == "copy" {
		return invalidf("video options require re-encoding; video_codec is copy")
	}
	if audioSet && o.AudioCodec == "copy" {
		return invalidf("audio options require re-encoding; audio_codec is copy")
	}
	return nil
}

func pickCodec(field, requested, def string, allowed []string) (string, error) {
	if requested == "" {
		return def, nil
	}
	requested = strings.ToLower(requested)
	if len(allowed) == 0 {
		return "", invalidf("%s is not valid for this format", field)
	}
	if !slices.Contains(allowed, requested) {
		return "", invalidf("%s must be one of %s", field, strings.Join(allowed, ", "))
	}
	return requested, nil
}

func codecLabel(codec string) string {
	if codec == "" {
		return "(none)"
	}
	return codec
}

func intInRange(field, v string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || n > hi {
		return 0, invalidf("%s must be an integer between %d and %d", field, lo, hi)
	}
	return n, nil
}

func parseResolution(v string) (string, error) {
	if s, ok := namedResolutions[strings.ToLower(v)]; ok {
		return s, nil
	}
	m := resolutionRe.FindStringSubmatch(strings.ToLower(v))
	if m == nil {
		return "", invalidf("resolution must be WxH or one of 360p, 480p, 720p, 1080p, 1440p, 2160p")
	}
	if m[1] == "-2" && m[2] == "-2" {
		return "", invalidf("resolution may use -2 on one side only")
	}
	for _, side := range m[1:] {
		if side == "-2" {
			continue
		}
		n, _ := strconv.Atoi(side)
		if n < 16 || n > 7680 {
			return "", invalidf("resolution sides must be between 16 and 7680")
		}
	}
	return m[1] + ":" + m[2], nil
}

// ParseBitrate validates a single bitrate value such as "192k".
func ParseBitrate(field, v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", nil
	}
	if !bitrateRe.MatchString(v) {
		return "", invalidf("%s must look like 128k", field)
	}
	return v, nil
}

const maxSpan = 24 * time.Hour

// ParseTimestamp accepts plain seconds ("90", "12.5") or clock time
// ("HH:MM:SS[.ms]", "MM:SS").
func ParseTimestamp(field, v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, invalidf("%s is required", field)
	}
	if strings.HasPrefix(v, "-") {
		return 0, invalidf("%s must not be negative", field)
	}

	parts := strings.Split(v, ":")
	if len(parts) > 3 {
		return 0, invalidf("%s must be seconds or HH:MM:SS", field)
	}

	var total float64
	for i, p := range parts {
		last := i == len(parts)-1
		if !decimalRe.MatchString(p) || (!last && strings.Contains(p, ".")) {
			return 0, invalidf("%s must be seconds or HH:MM:SS", field)
		}
		n, _ := strconv.ParseFloat(p, 64)
		if i > 0 && n >= 60 {
			return 0, invalidf("%s must be seconds or HH:MM:SS", field)
		}
		total = total*60 + n
	}

	if total > maxSpan.Seconds() {
		return 0, invalidf("%s exceeds 24h", field)
	}
	return time.Duration(total * float64(time.Second)), nil
}

// TrimRange is a validated [Start, Start+Duration) cut.
type TrimRange struct {
	Start    time.Duration
	Duration time.Duration
}

// ParseTrimRange reads start plus duration or end.
func ParseTrimRange(start, duration, end string) (TrimRange, error) {
	s, err := ParseTimestamp("start", start)
	if err != nil {
		return TrimRange{}, err
	}

	var d time.Duration
	switch {
	case strings.TrimSpace(duration) != "" && strings.TrimSpace(end) != "":
		return TrimRange{}, invalidf("give either duration or end, not both")
	case strings.TrimSpace(duration) != "":
		if d, err = ParseTimestamp("duration", duration); err != nil {
			return TrimRange{}, err
		}
	case strings.TrimSpace(end) != "":
		e, err := ParseTimestamp("end", end)
		if err != nil {
			return TrimRange{}, err
		}
		d = e - s
	default:
		return TrimRange{}, invalidf("duration or end is required")
	}

	if d <= 0 {
		return TrimRange{}, invalidf("trim span must be positive")
	}
	return TrimRange{Start: s, Duration: d}, nil
}

// ParseSegmentTime validates the split length in seconds.
func ParseSegmentTime(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, invalidf("segment_time is required")
	}
	if !decimalRe.MatchString(v) {
		return 0, invalidf("segment_time must be a positive number of seconds")
	}
	n, _ := strconv.ParseFloat(v, 64)
	if n < 0.1 || n > maxSpan.Seconds() {
		return 0, invalidf("segment_time must be between 0.1 and 86400 seconds")
	}
	return time.Duration(n * float64(time.Second)), nil
}

// seconds renders d for ffmpeg time options.
func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}

func (r TrimRange) String() string {
	return fmt.Sprintf("%ss+%ss", seconds(r.Start), seconds(r.Duration))
}

// ParseFlag reads an optional boolean form field; empty means false.
func ParseFlag(field, v string) (bool, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, invalidf("%s must be true or false", field)
	}
	return b, nil
}
