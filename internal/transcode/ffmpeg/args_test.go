package ffmpeg

import (
	"strings"
	"testing"

	"github.com/ferrite-media/ferrite/internal/classifier"
	"github.com/ferrite-media/ferrite/internal/transcode/hardware"
)

func contains(args []string, target string) bool {
	for _, a := range args {
		if a == target {
			return true
		}
	}
	return false
}

func TestBuildPipedArgs_RemuxCopiesVideo(t *testing.T) {
	args := BuildPipedArgs(Request{
		InputPath:        "/movies/a.mkv",
		Strategy:         classifier.Remux,
		SourceVideoCodec: "h264",
		SourceAudioCodec: "aac",
		AudioStreamIndex: -1,
	})
	if !contains(args, "copy") {
		t.Fatalf("expected stream-copy video args, got %v", args)
	}
}

func TestBuildPipedArgs_WebmForVP9(t *testing.T) {
	args := BuildPipedArgs(Request{
		InputPath:        "/movies/a.mkv",
		Strategy:         classifier.FullTranscode,
		SourceVideoCodec: "vp9",
		SourceAudioCodec: "opus",
		AudioStreamIndex: -1,
		Encoder:          hardware.EncoderProfile{EncoderName: "libx264"},
	})
	if !contains(args, "webm") {
		t.Fatalf("expected webm container for vp9, got %v", args)
	}
}

func TestBuildPipedArgs_AudioForcedToAACOnFullTranscode(t *testing.T) {
	args := BuildPipedArgs(Request{
		InputPath:        "/movies/a.mkv",
		Strategy:         classifier.FullTranscode,
		SourceVideoCodec: "mpeg2video",
		SourceAudioCodec: "aac",
		AudioStreamIndex: -1,
		Encoder:          hardware.EncoderProfile{EncoderName: "libx264"},
	})
	if !contains(args, "aac") {
		t.Fatalf("expected forced AAC re-encode on full transcode, got %v", args)
	}
}

func TestBuildHLSArgs_IncludesSegmentOutput(t *testing.T) {
	args := BuildHLSArgs(HLSRequest{
		Request: Request{
			InputPath:        "/movies/a.mkv",
			Strategy:         classifier.FullTranscode,
			SourceVideoCodec: "h264",
			SourceAudioCodec: "aac",
			AudioStreamIndex: -1,
			Encoder:          hardware.EncoderProfile{EncoderName: "libx264"},
		},
		SegmentDuration: 2,
		FrameRate:       24,
		OutputDir:       "/tmp/session-1",
	})
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "init.mp4") || !strings.Contains(joined, "playlist.m3u8") {
		t.Fatalf("expected HLS output args, got %v", args)
	}
}
