package transcode

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/ferrite-media/ferrite/internal/classifier"
	"github.com/ferrite-media/ferrite/internal/transcode/ffmpeg"
	"github.com/ferrite-media/ferrite/internal/transcode/hardware"
	"github.com/ferrite-media/ferrite/internal/transcode/keyframe"
	"github.com/ferrite-media/ferrite/internal/transcode/process"
)

// ErrCapacityExceeded is returned when the shared encoder-concurrency
// semaphore is already full; callers should respond 503 immediately.
var ErrCapacityExceeded = fmt.Errorf("transcode: capacity exceeded")

// Request describes one direct/piped transcode request (spec §4.2).
type Request struct {
	InputPath          string
	Strategy           classifier.Strategy
	SourceVideoCodec   string
	SourceAudioCodec   string
	PixelFormat        string
	ColorTransfer      string
	ColorPrimaries     string
	SeekSeconds        float64
	BurnInSubtitlePath string
	AudioStreamIndex   int
	TotalDurationSecs  float64
	Encoder            hardware.EncoderProfile
}

// Result is the outcome of Prepare: either a local file to serve with
// range support (DirectPlay) or a live encoder process whose stdout is
// the response body.
type Result struct {
	DirectPlay bool
	FilePath   string

	Body        io.ReadCloser
	ContentType string

	SeekActualSecs     float64
	RemainingDurSecs   float64
	TotalDurSecs       float64

	guard   *process.Guard
	release func()
}

// Close kills the encoder (if any) and releases the capacity permit it
// held. Safe to call on a DirectPlay result.
func (r *Result) Close() error {
	var err error
	if r.guard != nil {
		err = r.guard.Close()
	}
	if r.release != nil {
		r.release()
	}
	return err
}

// Transcoder implements spec §4.2: it decides between serving a file
// directly and spawning a piped ffmpeg encoder, snapping seeks to the
// nearest keyframe and picking audio/video passthrough per the
// classifier's strategy.
type Transcoder struct {
	FfmpegBinary string
	Limiter      *Limiter
	Oracle       *keyframe.Oracle
}

func NewTranscoder(ffmpegBinary string, limiter *Limiter, oracle *keyframe.Oracle) *Transcoder {
	return &Transcoder{FfmpegBinary: ffmpegBinary, Limiter: limiter, Oracle: oracle}
}

// Prepare implements the seek-snap, container-selection, and audio-
// passthrough rules of spec §4.2, returning a Result the caller (the
// HTTP layer) streams back to the client.
func (t *Transcoder) Prepare(ctx context.Context, req Request) (*Result, error) {
	if req.Strategy == classifier.DirectPlay {
		return &Result{
			DirectPlay:   true,
			FilePath:     req.InputPath,
			TotalDurSecs: req.TotalDurationSecs,
		}, nil
	}

	if !t.Limiter.TryAcquire() {
		return nil, ErrCapacityExceeded
	}
	release := func() { t.Limiter.Release() }

	seekActual := req.SeekSeconds
	copiesVideo := req.Strategy == classifier.Remux
	if req.SeekSeconds > 0.5 && t.Oracle != nil {
		if kf, ok := t.Oracle.Nearest(ctx, req.InputPath, time.Duration(req.SeekSeconds*float64(time.Second))); ok {
			seekActual = kf.Seconds()
		}
	}

	ffreq := ffmpeg.Request{
		InputPath:          req.InputPath,
		Strategy:           req.Strategy,
		SourceVideoCodec:   req.SourceVideoCodec,
		SourceAudioCodec:   req.SourceAudioCodec,
		PixelFormat:        req.PixelFormat,
		ColorTransfer:      req.ColorTransfer,
		ColorPrimaries:     req.ColorPrimaries,
		SeekSeconds:        seekActual,
		AccurateSeek:       !copiesVideo,
		BurnInSubtitlePath: req.BurnInSubtitlePath,
		AudioStreamIndex:   req.AudioStreamIndex,
		Encoder:            req.Encoder,
	}

	args := ffmpeg.BuildPipedArgs(ffreq)
	guard, err := process.StartPiped(ctx, t.FfmpegBinary, args)
	if err != nil {
		release()
		return nil, fmt.Errorf("starting piped transcode: %w", err)
	}

	container := ffmpeg.Container(req.SourceVideoCodec)
	contentType := "video/mp4"
	if container == "webm" {
		contentType = "video/webm"
	}

	remaining := req.TotalDurationSecs - seekActual
	if remaining < 0 {
		remaining = 0
	}

	return &Result{
		Body:             guard.Stdout,
		ContentType:      contentType,
		SeekActualSecs:   seekActual,
		RemainingDurSecs: remaining,
		TotalDurSecs:     req.TotalDurationSecs,
		guard:            guard,
		release:          release,
	}, nil
}
