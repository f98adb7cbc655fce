// Package hardware detects available hardware encoder backends by probing
// the external encoder binary's own `-encoders` listing, the same approach
// as the teacher's utils/hardware detector, and builds the per-backend
// argument templates for each one.
package hardware

import (
	"context"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ferrite-media/ferrite/internal/logger"
)

// Backend is a supported hardware acceleration backend.
type Backend string

const (
	BackendNvenc    Backend = "nvenc"
	BackendQsv      Backend = "qsv"
	BackendVaapi    Backend = "vaapi"
	BackendSoftware Backend = "software"
)

// EncoderProfile carries the FFmpeg encoder name and the input/output
// argument sets associated with one backend.
type EncoderProfile struct {
	Backend      Backend
	EncoderName  string
	EncoderArgs  []string
	HWDecodeArgs []string
}

func softwareProfile() EncoderProfile {
	return EncoderProfile{
		Backend:     BackendSoftware,
		EncoderName: "libx264",
		EncoderArgs: []string{
			"-preset", "veryfast",
			"-crf", "23",
			"-profile:v", "high",
			"-level", "4.1",
			"-pix_fmt", "yuv420p",
		},
	}
}

func nvencProfile() EncoderProfile {
	return EncoderProfile{
		Backend:     BackendNvenc,
		EncoderName: "h264_nvenc",
		EncoderArgs: []string{
			"-preset", "p4",
			"-tune", "ll",
			"-rc", "vbr",
			"-cq", "23",
			"-profile:v", "high",
			"-level", "4.1",
			"-pix_fmt", "yuv420p",
		},
		HWDecodeArgs: []string{
			"-hwaccel", "cuda",
			"-hwaccel_output_format", "cuda",
		},
	}
}

func qsvProfile() EncoderProfile {
	return EncoderProfile{
		Backend:     BackendQsv,
		EncoderName: "h264_qsv",
		EncoderArgs: []string{
			"-preset", "veryfast",
			"-global_quality", "23",
			"-profile:v", "high",
			"-level", "4.1",
		},
		HWDecodeArgs: []string{
			"-hwaccel", "qsv",
			"-hwaccel_output_format", "qsv",
		},
	}
}

func vaapiProfile() EncoderProfile {
	return EncoderProfile{
		Backend:     BackendVaapi,
		EncoderName: "h264_vaapi",
		EncoderArgs: []string{
			"-qp", "23",
			"-profile:v", "high",
			"-level", "4.1",
		},
		HWDecodeArgs: []string{
			"-hwaccel", "vaapi",
			"-hwaccel_output_format", "vaapi",
			"-vaapi_device", "/dev/dri/renderD128",
		},
	}
}

// VideoEncodeArgs returns ["-c:v", encoder, ...encoderArgs], placed after -map.
func (p EncoderProfile) VideoEncodeArgs() []string {
	args := make([]string, 0, 2+len(p.EncoderArgs))
	args = append(args, "-c:v", p.EncoderName)
	args = append(args, p.EncoderArgs...)
	return args
}

// VideoEncodeArgsNoPixFmt is the same as VideoEncodeArgs but strips the
// "-pix_fmt" pair — used when a filter chain (e.g. tone-mapping) already
// sets the output pixel format.
func (p EncoderProfile) VideoEncodeArgsNoPixFmt() []string {
	args := make([]string, 0, 2+len(p.EncoderArgs))
	args = append(args, "-c:v", p.EncoderName)
	skip := false
	for _, arg := range p.EncoderArgs {
		if skip {
			skip = false
			continue
		}
		if arg == "-pix_fmt" {
			skip = true
			continue
		}
		args = append(args, arg)
	}
	return args
}

// HWInputArgs returns the args placed before -i for hardware decoding. When
// hasSoftwareFilters is true, "-hwaccel_output_format" is dropped so the
// decoder downloads frames to CPU memory for the filter chain to consume.
func (p EncoderProfile) HWInputArgs(hasSoftwareFilters bool) []string {
	if !hasSoftwareFilters {
		return append([]string(nil), p.HWDecodeArgs...)
	}
	var args []string
	skip := false
	for _, arg := range p.HWDecodeArgs {
		if skip {
			skip = false
			continue
		}
		if arg == "-hwaccel_output_format" {
			skip = true
			continue
		}
		args = append(args, arg)
	}
	return args
}

func (p EncoderProfile) IsHardware() bool { return p.Backend != BackendSoftware }

// Capabilities is the detection result: which backends are available plus
// the one selected for use.
type Capabilities struct {
	NvencAvailable bool
	QsvAvailable   bool
	VaapiAvailable bool
	Selected       EncoderProfile
}

// Detector probes the encoder binary and caches the result for a few
// minutes, mirroring the teacher's 5-minute detector cache.
type Detector struct {
	ffmpegPath string

	mu         sync.Mutex
	cached     *Capabilities
	lastDetect time.Time
}

func NewDetector(ffmpegPath string) *Detector {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Detector{ffmpegPath: ffmpegPath}
}

// Detect probes available H.264 hardware encoders and selects one.
// preferred, if non-empty, is tried first and falls back to auto-selection
// when unavailable. Priority when auto-selecting: nvenc > qsv > vaapi > software.
func (d *Detector) Detect(ctx context.Context, preferred Backend) Capabilities {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cached != nil && time.Since(d.lastDetect) < 5*time.Minute {
		return *d.cached
	}

	nvenc, qsv, vaapi := d.probeEncoders(ctx)
	logger.Info("hardware encoder detection", []logger.Field{
		logger.Bool("nvenc", nvenc),
		logger.Bool("qsv", qsv),
		logger.Bool("vaapi", vaapi),
	})

	var profile EncoderProfile
	switch {
	case preferred == BackendNvenc && nvenc:
		profile = nvencProfile()
	case preferred == BackendQsv && qsv:
		profile = qsvProfile()
	case preferred == BackendVaapi && vaapi:
		profile = vaapiProfile()
	case preferred == BackendSoftware:
		profile = softwareProfile()
	default:
		profile = autoSelect(nvenc, qsv, vaapi)
	}

	caps := Capabilities{
		NvencAvailable: nvenc,
		QsvAvailable:   qsv,
		VaapiAvailable: vaapi,
		Selected:       profile,
	}
	d.cached = &caps
	d.lastDetect = time.Now()
	return caps
}

func autoSelect(nvenc, qsv, vaapi bool) EncoderProfile {
	switch {
	case nvenc:
		return nvencProfile()
	case qsv:
		return qsvProfile()
	case vaapi:
		return vaapiProfile()
	default:
		return softwareProfile()
	}
}

func (d *Detector) probeEncoders(ctx context.Context) (nvenc, qsv, vaapi bool) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.ffmpegPath, "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		logger.Warn("failed to probe encoder binary", []logger.Field{logger.Err("cause", err)})
		return false, false, false
	}

	text := string(output)
	return strings.Contains(text, "h264_nvenc"),
		strings.Contains(text, "h264_qsv"),
		strings.Contains(text, "h264_vaapi")
}
