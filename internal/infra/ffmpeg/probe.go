package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Prober inspects a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*Report, error)
}

// Report is the metadata document returned to clients.
type Report struct {
	Format  FormatInfo   `json:"format"`
	Streams []StreamInfo `json:"streams"`
}

type FormatInfo struct {
	Filename        string            `json:"filename"`
	FormatName      string            `json:"format_name"`
	FormatLongName  string            `json:"format_long_name,omitempty"`
	DurationSeconds float64           `json:"duration_seconds,omitempty"`
	SizeBytes       int64             `json:"size_bytes,omitempty"`
	BitRate         int64             `json:"bit_rate,omitempty"`
	Tags            map[string]string `json:"tags,omitempty"`
}

type StreamInfo struct {
	Index           int     `json:"index"`
	CodecType       string  `json:"codec_type"`
	CodecName       string  `json:"codec_name,omitempty"`
	CodecLongName   string  `json:"codec_long_name,omitempty"`
	Profile         string  `json:"profile,omitempty"`
	Width           int     `json:"width,omitempty"`
	Height          int     `json:"height,omitempty"`
	PixFmt          string  `json:"pix_fmt,omitempty"`
	FrameRate       float64 `json:"frame_rate,omitempty"`
	SampleRate      int     `json:"sample_rate,omitempty"`
	Channels        int     `json:"channels,omitempty"`
	ChannelLayout   string  `json:"channel_layout,omitempty"`
	BitRate         int64   `json:"bit_rate,omitempty"`
	DurationSeconds float64 `json:"duration_seconds,omitempty"`
	Language        string  `json:"language,omitempty"`
}

// FFprobe implements Prober on top of an Executor running ffprobe.
type FFprobe struct {
	exec *Executor
}

var _ Prober = (*FFprobe)(nil)

func NewProber(exec *Executor) *FFprobe {
	return &FFprobe{exec: exec}
}

// ProbeArgs is the ffprobe argument vector for path.
func ProbeArgs(path string) []string {
	return []string{
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	}
}

// Probe runs ffprobe against path. A non-zero exit is an *ExitError.
func (p *FFprobe) Probe(ctx context.Context, path string) (*Report, error) {
	out, err := p.exec.Output(ctx, ProbeArgs(path))
	if err != nil {
		return nil, err
	}
	return ParseProbeOutput(out)
}

type probeData struct {
	Streams []struct {
		Index         int               `json:"index"`
		CodecType     string            `json:"codec_type"`
		CodecName     string            `json:"codec_name"`
		CodecLongName string            `json:"codec_long_name"`
		Profile       string            `json:"profile"`
		Width         int               `json:"width"`
		Height        int               `json:"height"`
		PixFmt        string            `json:"pix_fmt"`
		AvgFrameRate  string            `json:"avg_frame_rate"`
		RFrameRate    string            `json:"r_frame_rate"`
		SampleRate    string            `json:"sample_rate"`
		Channels      int               `json:"channels"`
		ChannelLayout string            `json:"channel_layout"`
		BitRate       string            `json:"bit_rate"`
		Duration      string            `json:"duration"`
		Tags          map[string]string `json:"tags"`
	} `json:"streams"`
	Format struct {
		Filename       string            `json:"filename"`
		FormatName     string            `json:"format_name"`
		FormatLongName string            `json:"format_long_name"`
		Duration       string            `json:"duration"`
		Size           string            `json:"size"`
		BitRate        string            `json:"bit_rate"`
		Tags           map[string]string `json:"tags"`
	} `json:"format"`
}

// ParseProbeOutput converts ffprobe's JSON into a Report. ffprobe encodes
// most numbers as strings; unparsable values are left at zero.
func ParseProbeOutput(out []byte) (*Report, error) {
	var data probeData
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if data.Format.FormatName == "" {
		return nil, fmt.Errorf("ffprobe output has no format section")
	}

	r := &Report{
		Format: FormatInfo{
			Filename:        data.Format.Filename,
			FormatName:      data.Format.FormatName,
			FormatLongName:  data.Format.FormatLongName,
			DurationSeconds: parseFloat(data.Format.Duration),
			SizeBytes:       parseInt(data.Format.Size),
			BitRate:         parseInt(data.Format.BitRate),
			Tags:            data.Format.Tags,
		},
		Streams: make([]StreamInfo, 0, len(data.Streams)),
	}

	for _, s := range data.Streams {
		si := StreamInfo{
			Index:           s.Index,
			CodecType:       s.CodecType,
			CodecName:       s.CodecName,
			CodecLongName:   s.CodecLongName,
			Profile:         s.Profile,
			Width:           s.Width,
			Height:          s.Height,
			PixFmt:          s.PixFmt,
			SampleRate:      int(parseInt(s.SampleRate)),
			Channels:        s.Channels,
			ChannelLayout:   s.ChannelLayout,
			BitRate:         parseInt(s.BitRate),
			DurationSeconds: parseFloat(s.Duration),
			Language:        s.Tags["language"],
		}
		if s.CodecType == "video" {
			si.FrameRate = parseRational(s.AvgFrameRate)
			if si.FrameRate == 0 {
				si.FrameRate = parseRational(s.RFrameRate)
			}
		}
		r.Streams = append(r.Streams, si)
	}
	return r, nil
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return f
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseRational turns "30000/1001" into 29.97. "0/0" yields 0.
func parseRational(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return parseFloat(s)
	}
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	v := parseFloat(num) / d
	return float64(int64(v*1000+0.5)) / 1000
}
