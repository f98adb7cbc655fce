package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ferrite-media/ferrite/internal/apierr"
	"github.com/ferrite-media/ferrite/internal/classifier"
	"github.com/ferrite-media/ferrite/internal/config"
	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/logger"
	"github.com/ferrite-media/ferrite/internal/transcode"
	"github.com/ferrite-media/ferrite/internal/transcode/hardware"
	"github.com/ferrite-media/ferrite/internal/transcode/thumbnails"
)

func (h *Handler) registerStreamRoutes(r *gin.Engine) {
	r.GET("/stream/:mediaId", h.handleStream)
	r.GET("/stream/:mediaId/keyframe", h.handleKeyframe)
	r.GET("/stream/:mediaId/thumbnails.vtt", h.handleThumbnailsVTT)
	r.GET("/stream/:mediaId/sprite.jpg", h.handleSpriteImage)
}

// handleStream implements spec §6's
// `GET /stream/<mediaId>?start=&subtitle_id=&audio_stream=`.
func (h *Handler) handleStream(c *gin.Context) {
	mediaID := c.Param("mediaId")
	item, streams, err := h.loadMediaItem(mediaID)
	if err != nil {
		apierr.NotFound("media item", mediaID).WriteGin(c)
		return
	}

	video, _ := firstStream(streams, "video")
	audio, hasSelector := selectAudioStream(streams, c.Query("audio_stream"))

	profile := classifier.ResolveProfile(c.Query("profile"), c.Request.UserAgent(), c.Query("platform"))
	strategy := classifier.Decide(profile, classifier.Request{
		Container:      item.Container,
		VideoCodec:     video.CodecName,
		AudioCodec:     audio.CodecName,
		BurnInSubtitle: c.Query("subtitle_id") != "" && c.Query("burn_in") == "true",
	})

	seek, _ := strconv.ParseFloat(c.Query("start"), 64)

	audioIndex := -1
	if hasSelector {
		audioIndex = audio.StreamIndex
	}

	caps := h.Hardware.Detect(c.Request.Context(), hardwareBackendFor(h.Config.Transcode.HWAccel))

	result, prepErr := h.Transcoder.Prepare(c.Request.Context(), transcode.Request{
		InputPath:         item.Path,
		Strategy:          strategy,
		SourceVideoCodec:  video.CodecName,
		SourceAudioCodec:  audio.CodecName,
		PixelFormat:       video.PixelFormat,
		ColorTransfer:     video.ColorTransfer,
		ColorPrimaries:    video.ColorPrimaries,
		SeekSeconds:       seek,
		AudioStreamIndex:  audioIndex,
		TotalDurationSecs: float64(item.DurationMs) / 1000,
		Encoder:           caps.Selected,
	})
	if prepErr == transcode.ErrCapacityExceeded {
		apierr.CapacityExceeded("transcode capacity exceeded").WriteGin(c)
		return
	}
	if prepErr != nil {
		apierr.Internal("starting transcode", prepErr).WriteGin(c)
		return
	}
	defer result.Close()

	c.Header("X-Seek-Actual", fmt.Sprintf("%.3f", result.SeekActualSecs))
	c.Header("X-Content-Duration", fmt.Sprintf("%.3f", result.RemainingDurSecs))
	c.Header("X-Total-Duration", fmt.Sprintf("%.3f", result.TotalDurSecs))

	if result.DirectPlay {
		c.File(result.FilePath)
		return
	}

	c.Header("Content-Type", result.ContentType)
	c.Header("Transfer-Encoding", "chunked")
	c.Status(http.StatusOK)

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, copyErr := io.Copy(c.Writer, result.Body); copyErr != nil {
			logger.Debug("streaming copy ended", []logger.Field{logger.String("media_id", mediaID), logger.Err("cause", copyErr)})
		}
	}()
	select {
	case <-c.Request.Context().Done():
	case <-done:
	}
}

// handleKeyframe implements `GET /stream/<mediaId>/keyframe?time=<f>`.
func (h *Handler) handleKeyframe(c *gin.Context) {
	mediaID := c.Param("mediaId")
	item, err := h.Store.MediaItemByID(mediaID)
	if err != nil {
		apierr.NotFound("media item", mediaID).WriteGin(c)
		return
	}

	requested, _ := strconv.ParseFloat(c.Query("time"), 64)
	snapped, ok := h.Oracle.Nearest(c.Request.Context(), item.Path, time.Duration(requested*float64(time.Second)))
	if !ok {
		c.JSON(http.StatusOK, gin.H{"requested": requested, "keyframe": requested})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requested": requested, "keyframe": snapped.Seconds()})
}

func (h *Handler) handleThumbnailsVTT(c *gin.Context) {
	h.serveThumbnailAsset(c, "_sprites.vtt")
}

func (h *Handler) handleSpriteImage(c *gin.Context) {
	h.serveThumbnailAsset(c, "_sprites.jpg")
}

func (h *Handler) serveThumbnailAsset(c *gin.Context, suffix string) {
	mediaID := c.Param("mediaId")
	dir := h.Config.Data.ThumbnailCacheDir()

	if !thumbnails.Exists(dir, mediaID) {
		if err := h.generateThumbnails(c.Request.Context(), mediaID); err != nil {
			apierr.Internal("generating thumbnails", err).WriteGin(c)
			return
		}
	}
	c.File(dir + "/" + mediaID + suffix)
}

func (h *Handler) generateThumbnails(ctx context.Context, mediaID string) error {
	item, err := h.Store.MediaItemByID(mediaID)
	if err != nil {
		return err
	}
	dir := h.Config.Data.ThumbnailCacheDir()
	_, err = h.Thumbnails.Generate(ctx, item.Path, dir, mediaID, float64(item.DurationMs)/1000, thumbnails.DefaultConfig())
	return err
}

func (h *Handler) loadMediaItem(mediaID string) (*database.MediaItem, []database.MediaStream, error) {
	item, err := h.Store.MediaItemByID(mediaID)
	if err != nil {
		return nil, nil, err
	}
	streams, err := h.Store.StreamsForMediaItem(mediaID)
	if err != nil {
		return nil, nil, err
	}
	return item, streams, nil
}

func firstStream(streams []database.MediaStream, kind string) (database.MediaStream, bool) {
	for _, s := range streams {
		if s.Type == kind {
			return s, true
		}
	}
	return database.MediaStream{}, false
}

func selectAudioStream(streams []database.MediaStream, selector string) (database.MediaStream, bool) {
	if selector != "" {
		if idx, err := strconv.Atoi(selector); err == nil {
			for _, s := range streams {
				if s.Type == "audio" && s.StreamIndex == idx {
					return s, true
				}
			}
		}
	}
	return firstStream(streams, "audio")
}

func hardwareBackendFor(mode config.HWAccelMode) hardware.Backend {
	switch mode {
	case config.HWAccelNVENC:
		return hardware.BackendNvenc
	case config.HWAccelQSV:
		return hardware.BackendQsv
	case config.HWAccelVAAPI:
		return hardware.BackendVaapi
	case config.HWAccelSoftware:
		return hardware.BackendSoftware
	default:
		return ""
	}
}
