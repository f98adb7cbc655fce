// Package ffmpeg builds encoder argument lists for the direct/piped
// transcoder and the HLS session manager, grounded on the teacher's
// core/ffmpeg.ArgsBuilder pattern but driven by the classifier's strategy
// and the spec's seek/HDR/audio-passthrough rules rather than the
// teacher's DASH/Shaka packaging design.
package ffmpeg

import (
	"fmt"

	"github.com/ferrite-media/ferrite/internal/classifier"
	"github.com/ferrite-media/ferrite/internal/transcode/hardware"
)

// passthroughAudioCodecs are source audio codecs universally acceptable to
// stream-copy when the strategy doesn't already force a re-encode.
var passthroughAudioCodecs = map[string]bool{
	"aac": true, "ac3": true, "eac3": true, "mp3": true, "opus": true, "flac": true,
}

// Request describes one transcode invocation's inputs.
type Request struct {
	InputPath      string
	Strategy       classifier.Strategy
	SourceVideoCodec string
	SourceAudioCodec string
	PixelFormat    string
	ColorTransfer  string
	ColorPrimaries string
	SeekSeconds    float64 // 0 means no seek
	AccurateSeek   bool    // only honored when video is being re-encoded
	BurnInSubtitlePath string
	AudioStreamIndex int // -1 means default (0)
	Encoder        hardware.EncoderProfile
}

// Container picks the output container per spec §4.2: VP8/VP9 goes to
// WebM; everything else goes to fragmented MP4.
func Container(videoCodec string) string {
	if videoCodec == "vp8" || videoCodec == "vp9" {
		return "webm"
	}
	return "mp4"
}

// copiesVideo reports whether the strategy leaves the video stream
// untouched (DirectPlay is handled before reaching the encoder at all;
// Remux is the only encoder-invoked strategy that stream-copies video).
func copiesVideo(s classifier.Strategy) bool {
	return s == classifier.Remux
}

func copiesAudio(req Request) bool {
	if req.Strategy == classifier.FullTranscode {
		return false
	}
	return passthroughAudioCodecs[req.SourceAudioCodec]
}

// needsSoftwareFilters reports whether a CPU-side filter chain is in use
// (subtitle burn-in or HDR tone-mapping), which forces the hardware
// profile to degrade to software decode-side frame handling for this
// request only.
func (r Request) needsSoftwareFilters() bool {
	return r.BurnInSubtitlePath != "" || hardware.VideoFormatFilter(r.PixelFormat, r.ColorTransfer, r.ColorPrimaries) != ""
}

// BuildPipedArgs builds the argument list for a single-shot, non-session
// (direct/piped) transcode writing to stdout.
func BuildPipedArgs(req Request) []string {
	var args []string
	args = append(args, "-y", "-hide_banner")

	hwFilters := req.needsSoftwareFilters()
	encoder := req.Encoder

	if req.SeekSeconds > 0.5 {
		if !copiesVideo(req.Strategy) && req.AccurateSeek {
			// Accurate seek: input seek first for speed, then a precise
			// trim right after mapping (handled by caller via -ss after -i
			// being omitted here; simple approximation keeps single -ss).
			args = append(args, "-ss", fmt.Sprintf("%.3f", req.SeekSeconds))
		} else {
			// Stream-copy path: seek before input, disable accurate seek
			// so video and audio start on the same keyframe.
			args = append(args, "-ss", fmt.Sprintf("%.3f", req.SeekSeconds), "-noaccurate_seek")
		}
	}

	if encoder.IsHardware() {
		args = append(args, encoder.HWInputArgs(hwFilters)...)
	}

	args = append(args, "-i", req.InputPath)

	audioIndex := req.AudioStreamIndex
	if audioIndex < 0 {
		audioIndex = 0
	}
	args = append(args, "-map", "0:v:0", "-map", fmt.Sprintf("0:a:%d", audioIndex))

	if copiesVideo(req.Strategy) {
		args = append(args, "-c:v", "copy")
	} else {
		filter := hardware.VideoFormatFilter(req.PixelFormat, req.ColorTransfer, req.ColorPrimaries)
		if req.BurnInSubtitlePath != "" {
			sub := fmt.Sprintf("subtitles=%s", escapeFilterPath(req.BurnInSubtitlePath))
			if filter != "" {
				filter = filter + "," + sub
			} else {
				filter = sub
			}
		}
		if filter != "" {
			args = append(args, "-vf", filter)
			args = append(args, encoder.VideoEncodeArgsNoPixFmt()...)
		} else {
			args = append(args, encoder.VideoEncodeArgs()...)
		}
	}

	if copiesAudio(req) {
		args = append(args, "-c:a", "copy")
	} else {
		args = append(args, "-c:a", "aac", "-b:a", "192k", "-ac", "2")
	}

	container := Container(req.SourceVideoCodec)
	if container == "webm" {
		args = append(args, "-f", "webm")
	} else {
		args = append(args, "-movflags", "frag_keyframe+empty_moov+default_base_moof", "-f", "mp4")
	}

	args = append(args, "pipe:1")
	return args
}

// HLSRequest extends Request with the per-session fields spec §4.3 needs.
type HLSRequest struct {
	Request
	SegmentDuration int // seconds
	FrameRate       float64
	OutputDir       string
}

// BuildHLSArgs builds the argument list for one HLS session's encoder,
// writing init.mp4 + seg_%03d.m4s + playlist.m3u8 into req.OutputDir.
func BuildHLSArgs(req HLSRequest) []string {
	args := BuildPipedArgsWithoutOutput(req.Request)

	if !copiesVideo(req.Strategy) {
		gop := int(float64(req.SegmentDuration) * req.FrameRate)
		if gop > 0 {
			args = append(args, "-g", fmt.Sprintf("%d", gop), "-keyint_min", fmt.Sprintf("%d", gop), "-sc_threshold", "0")
		}
	}

	args = append(args,
		"-f", "hls",
		"-hls_time", fmt.Sprintf("%d", req.SegmentDuration),
		"-hls_segment_type", "fmp4",
		"-hls_fmp4_init_filename", "init.mp4",
		"-hls_segment_filename", req.OutputDir+"/seg_%03d.m4s",
		"-hls_flags", "independent_segments+append_list",
		"-hls_playlist_type", "event",
		req.OutputDir+"/playlist.m3u8",
	)
	return args
}

// BuildPipedArgsWithoutOutput builds the shared prefix (input/seek/codec
// args) without an output target, for callers that append their own
// container-specific output args (HLS).
func BuildPipedArgsWithoutOutput(req Request) []string {
	full := BuildPipedArgs(req)
	// Strip the trailing container/output args that BuildPipedArgs adds
	// for the piped case; HLS has its own output tail.
	return trimPipedOutputTail(full)
}

func trimPipedOutputTail(args []string) []string {
	// The piped tail is always: [...,"-movflags"|"-f","webm"|"mp4",...,"pipe:1"]
	// or ["-f","webm",...,"pipe:1"]. Drop everything from the last
	// occurrence of "-f" onward plus "pipe:1"; callers append their own.
	for i := len(args) - 1; i >= 0; i-- {
		if args[i] == "-f" {
			if i >= 2 && args[i-2] == "-movflags" {
				return args[:i-2]
			}
			return args[:i]
		}
	}
	return args
}

func escapeFilterPath(path string) string {
	// ffmpeg filtergraph syntax treats ':' and '\' specially; escape them
	// so Windows-style or colon-bearing paths survive as a single token.
	out := make([]byte, 0, len(path))
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == ':' || c == '\\' || c == '\'' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
