// Package mediaprobe invokes the external inspector binary (ffprobe) on a
// file and normalizes its JSON output into stream/format records, following
// the teacher's pattern of wrapping exec.CommandContext with a narrow
// parsing layer rather than exposing raw JSON to callers.
package mediaprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ferrite-media/ferrite/internal/logger"
)

// Executor runs the inspector binary against files.
type Executor struct {
	BinaryPath string
	Timeout    time.Duration
}

func NewExecutor(binaryPath string) *Executor {
	if binaryPath == "" {
		binaryPath = "ffprobe"
	}
	return &Executor{BinaryPath: binaryPath, Timeout: 30 * time.Second}
}

// Stream is one normalized video/audio/subtitle stream.
type Stream struct {
	Index         int
	Type          string // video, audio, subtitle
	CodecName     string
	CodecLongName string
	Profile       string
	Language      string
	Title         string
	Default       bool
	Forced        bool

	Width          int
	Height         int
	FrameRate      string
	PixelFormat    string
	BitDepth       int
	ColorSpace     string
	ColorTransfer  string
	ColorPrimaries string

	Channels      int
	ChannelLayout string
	SampleRate    int

	BitrateKbps int
}

// Chapter is one chapter marker.
type Chapter struct {
	StartMs int64
	EndMs   int64
	Title   string
}

// Result is the normalized probe output.
type Result struct {
	Container   string
	DurationMs  int64
	BitrateKbps int
	Streams     []Stream
	Chapters    []Chapter
}

func (r Result) DominantVideoCodec() string {
	for _, s := range r.Streams {
		if s.Type == "video" {
			return s.CodecName
		}
	}
	return ""
}

func (r Result) DominantAudioCodec() string {
	for _, s := range r.Streams {
		if s.Type == "audio" {
			return s.CodecName
		}
	}
	return ""
}

func (r Result) FirstVideoStream() (Stream, bool) {
	for _, s := range r.Streams {
		if s.Type == "video" {
			return s, true
		}
	}
	return Stream{}, false
}

// rawProbe mirrors ffprobe -show_format -show_streams -show_chapters JSON.
type rawProbe struct {
	Format struct {
		FormatName string `json:"format_name"`
		Duration   string `json:"duration"`
		BitRate    string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		Index           int    `json:"index"`
		CodecName       string `json:"codec_name"`
		CodecLongName   string `json:"codec_long_name"`
		CodecType       string `json:"codec_type"`
		Profile         string `json:"profile"`
		Width           int    `json:"width"`
		Height          int    `json:"height"`
		RFrameRate      string `json:"r_frame_rate"`
		PixFmt          string `json:"pix_fmt"`
		BitsPerRawSample string `json:"bits_per_raw_sample"`
		ColorSpace      string `json:"color_space"`
		ColorTransfer   string `json:"color_transfer"`
		ColorPrimaries  string `json:"color_primaries"`
		Channels        int    `json:"channels"`
		ChannelLayout   string `json:"channel_layout"`
		SampleRate      string `json:"sample_rate"`
		BitRate         string `json:"bit_rate"`
		Disposition     struct {
			Default int `json:"default"`
			Forced  int `json:"forced"`
		} `json:"disposition"`
		Tags struct {
			Language string `json:"language"`
			Title    string `json:"title"`
		} `json:"tags"`
	} `json:"streams"`
	Chapters []struct {
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Tags      struct {
			Title string `json:"title"`
		} `json:"tags"`
	} `json:"chapters"`
}

// Probe runs the inspector on path and parses its output. On non-zero
// exit, it returns a zero-value Result and logs the stderr tail rather than
// failing the caller — per spec §4.4, the file is still inserted with
// whatever it had, enabling a later retry.
func (e *Executor) Probe(ctx context.Context, path string) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.BinaryPath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams", "-show_chapters",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		logger.Warn("probe failed", []logger.Field{
			logger.String("path", path),
			logger.String("stderr", tail(stderr.String(), 2000)),
			logger.Err("cause", err),
		})
		return Result{}, nil
	}

	var raw rawProbe
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return Result{}, fmt.Errorf("parsing probe output for %s: %w", path, err)
	}

	result := Result{
		Container:   firstToken(raw.Format.FormatName, ","),
		DurationMs:  secondsStringToMs(raw.Format.Duration),
		BitrateKbps: bpsStringToKbps(raw.Format.BitRate),
	}

	for _, s := range raw.Streams {
		typ := s.CodecType
		if typ != "video" && typ != "audio" && typ != "subtitle" {
			continue
		}
		stream := Stream{
			Index:          s.Index,
			Type:           typ,
			CodecName:      s.CodecName,
			CodecLongName:  s.CodecLongName,
			Profile:        s.Profile,
			Language:       s.Tags.Language,
			Title:          s.Tags.Title,
			Default:        s.Disposition.Default != 0,
			Forced:         s.Disposition.Forced != 0,
			Width:          s.Width,
			Height:         s.Height,
			FrameRate:      s.RFrameRate,
			PixelFormat:    s.PixFmt,
			BitDepth:       atoiOr(s.BitsPerRawSample, 0),
			ColorSpace:     s.ColorSpace,
			ColorTransfer:  s.ColorTransfer,
			ColorPrimaries: s.ColorPrimaries,
			Channels:       s.Channels,
			ChannelLayout:  s.ChannelLayout,
			SampleRate:     atoiOr(s.SampleRate, 0),
			BitrateKbps:    bpsStringToKbps(s.BitRate),
		}
		result.Streams = append(result.Streams, stream)
	}

	for _, c := range raw.Chapters {
		result.Chapters = append(result.Chapters, Chapter{
			StartMs: secondsStringToMs(c.StartTime),
			EndMs:   secondsStringToMs(c.EndTime),
			Title:   c.Tags.Title,
		})
	}

	return result, nil
}

func firstToken(s, sep string) string {
	if idx := strings.Index(s, sep); idx >= 0 {
		return s[:idx]
	}
	return s
}

func secondsStringToMs(s string) int64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f * 1000)
}

func bpsStringToKbps(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n / 1000
}

func atoiOr(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
