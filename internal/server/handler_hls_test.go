package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ferrite-media/ferrite/internal/classifier"
	"github.com/ferrite-media/ferrite/internal/config"
	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/transcode/abr"
	"github.com/ferrite-media/ferrite/internal/transcode/hardware"
)

func newTestHLSHandler() *Handler {
	return &Handler{
		Config:   config.Default(),
		Hardware: hardware.NewDetector("ferrite-test-nonexistent-ffmpeg"),
	}
}

func TestBuildVariantRequestsNativeRungUsesRemux(t *testing.T) {
	h := newTestHLSHandler()
	// 1000p doesn't match any standard tier exactly, so GenerateLadder
	// prepends a synthetic native rung.
	item := &database.MediaItem{Width: 1778, Height: 1000, BitrateKbps: 8000, Path: "/movies/one.mkv"}
	streams := []database.MediaStream{
		{Type: "video", CodecName: "h264", PixelFormat: "yuv420p", FrameRate: "24"},
		{Type: "audio", CodecName: "aac"},
	}

	variants, err := h.buildVariantRequests(context.Background(), item, streams)
	require.NoError(t, err)
	require.NotEmpty(t, variants)

	var sawNative bool
	for _, v := range variants {
		if !v.FFmpeg.AccurateSeek && v.FFmpeg.Strategy == classifier.Remux {
			sawNative = true
		}
		require.NotEqual(t, classifier.DirectPlay, v.FFmpeg.Strategy, "no HLS rung may use DirectPlay, it bypasses the encoder entirely")
	}
	require.True(t, sawNative, "expected one rung to be the native stream-copy rung")
}

func TestBuildVariantRequestsFallsBackToSingleNativeRungWhenLadderEmpty(t *testing.T) {
	h := newTestHLSHandler()
	item := &database.MediaItem{Width: 0, Height: 0, Path: "/movies/audio-only.mkv"}
	streams := []database.MediaStream{{Type: "audio", CodecName: "aac"}}

	variants, err := h.buildVariantRequests(context.Background(), item, streams)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	require.Equal(t, classifier.Remux, variants[0].FFmpeg.Strategy)
}

func TestResolutionStringEmptyForZeroDimension(t *testing.T) {
	require.Equal(t, "", resolutionString(abr.Rung{Width: 0, Height: 1080}))
	require.Equal(t, "1280x720", resolutionString(abr.Rung{Width: 1280, Height: 720}))
}
