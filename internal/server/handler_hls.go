package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ferrite-media/ferrite/internal/apierr"
	"github.com/ferrite-media/ferrite/internal/classifier"
	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/hls"
	"github.com/ferrite-media/ferrite/internal/transcode/abr"
	"github.com/ferrite-media/ferrite/internal/transcode/ffmpeg"
)

func (h *Handler) registerHLSRoutes(r *gin.Engine) {
	r.GET("/stream/:mediaId/hls/master.m3u8", h.handleHLSMaster)
	r.GET("/stream/:mediaId/hls/:sessionId/playlist.m3u8", h.handleHLSVariantPlaylist)
	r.GET("/stream/:mediaId/hls/:sessionId/:filename", h.handleHLSSegment)
	r.POST("/stream/:mediaId/hls/seek", h.handleHLSSeek)
	r.DELETE("/stream/:mediaId/hls/:sessionId", h.handleHLSDestroy)
}

// handleHLSMaster implements spec §6's `GET
// /stream/<mediaId>/hls/master.m3u8?start=&playback_id=&token=`: it builds
// (or reuses, per the session-manager's reuse heuristic) one session per
// ABR rung and returns the master playlist advertising all of them.
func (h *Handler) handleHLSMaster(c *gin.Context) {
	mediaID := c.Param("mediaId")
	item, streams, err := h.loadMediaItem(mediaID)
	if err != nil {
		apierr.NotFound("media item", mediaID).WriteGin(c)
		return
	}

	playbackID := c.Query("playback_id")
	if playbackID == "" {
		playbackID = mediaID
	}
	token := c.Query("token")
	start, _ := strconv.ParseFloat(c.Query("start"), 64)

	variants, vErr := h.buildVariantRequests(c.Request.Context(), item, streams)
	if vErr != nil {
		apierr.InputInvalid(vErr.Error(), "media").WriteGin(c)
		return
	}

	sessions, err := h.HLS.GetOrCreate(c.Request.Context(), mediaID, playbackID, variants, start, h.Config.Transcode.SegmentDuration())
	if err == hls.ErrSegmentTimeout {
		apierr.Transient("encoder did not produce the first segment in time", err).WriteGin(c)
		return
	}
	if err != nil {
		apierr.Internal("starting HLS session", err).WriteGin(c)
		return
	}

	c.Header("x-hls-start-secs", strconv.FormatFloat(start, 'f', 3, 64))
	c.Header("Content-Type", "application/vnd.apple.mpegurl")
	c.String(http.StatusOK, hls.MasterPlaylist(mediaID, sessions, token))
}

// handleHLSVariantPlaylist implements `GET
// /stream/<mediaId>/hls/<sessionId>/playlist.m3u8?token=`.
func (h *Handler) handleHLSVariantPlaylist(c *gin.Context) {
	mediaID := c.Param("mediaId")
	sessionID := c.Param("sessionId")

	session, ok := h.HLS.Get(sessionID)
	if !ok {
		apierr.NotFound("hls session", sessionID).WriteGin(c)
		return
	}

	playlist, err := h.HLS.VariantPlaylist(mediaID, session, c.Query("token"))
	if err != nil {
		apierr.Internal("reading variant playlist", err).WriteGin(c)
		return
	}

	c.Header("Content-Type", "application/vnd.apple.mpegurl")
	c.String(http.StatusOK, playlist)
}

// handleHLSSegment implements `GET
// /stream/<mediaId>/hls/<sessionId>/<filename>`.
func (h *Handler) handleHLSSegment(c *gin.Context) {
	sessionID := c.Param("sessionId")
	fileName := c.Param("filename")

	session, ok := h.HLS.Get(sessionID)
	if !ok {
		apierr.NotFound("hls session", sessionID).WriteGin(c)
		return
	}

	data, contentType, err := h.HLS.ServeSegment(session, fileName, h.Config.Transcode.HLSSegmentMimeMode)
	switch err {
	case nil:
		c.Data(http.StatusOK, contentType, data)
	case hls.ErrPathTraversal:
		apierr.InputInvalid("invalid segment name", "filename").WriteGin(c)
	case hls.ErrSegmentTimeout:
		apierr.Transient("segment was not produced in time", err).WriteGin(c)
	case hls.ErrSessionDead:
		apierr.ProcessLoss("encoder exited before producing this segment").WriteGin(c)
	default:
		apierr.Internal("serving segment", err).WriteGin(c)
	}
}

// handleHLSSeek implements `POST
// /stream/<mediaId>/hls/seek?start=&playback_id=`: per spec §4.3 step 5,
// a seek always tears down the owner's existing sessions and starts new
// ones at the requested position.
func (h *Handler) handleHLSSeek(c *gin.Context) {
	mediaID := c.Param("mediaId")
	item, streams, err := h.loadMediaItem(mediaID)
	if err != nil {
		apierr.NotFound("media item", mediaID).WriteGin(c)
		return
	}

	playbackID := c.Query("playback_id")
	if playbackID == "" {
		playbackID = mediaID
	}
	start, _ := strconv.ParseFloat(c.Query("start"), 64)

	variants, vErr := h.buildVariantRequests(c.Request.Context(), item, streams)
	if vErr != nil {
		apierr.InputInvalid(vErr.Error(), "media").WriteGin(c)
		return
	}

	sessions, err := h.HLS.Seek(c.Request.Context(), mediaID, playbackID, variants, start)
	if err != nil {
		apierr.Internal("seeking HLS session", err).WriteGin(c)
		return
	}

	c.Header("x-hls-start-secs", strconv.FormatFloat(start, 'f', 3, 64))
	c.Header("Content-Type", "application/vnd.apple.mpegurl")
	c.String(http.StatusOK, hls.MasterPlaylist(mediaID, sessions, c.Query("token")))
}

func (h *Handler) handleHLSDestroy(c *gin.Context) {
	h.HLS.Destroy(c.Param("sessionId"))
	c.Status(http.StatusNoContent)
}

// buildVariantRequests turns one media item's probed streams into the ABR
// ladder's set of encoder requests, combining spec §4.1's strategy
// decision with §4.2's ffmpeg.Request shape.
func (h *Handler) buildVariantRequests(ctx context.Context, item *database.MediaItem, streams []database.MediaStream) ([]hls.VariantRequest, error) {
	video, hasVideo := firstStream(streams, "video")
	audio, _ := selectAudioStream(streams, "")

	ladder := abr.GenerateLadder(item.Width, item.Height)
	if len(ladder) == 0 {
		ladder = []abr.Rung{{Label: "native", Height: item.Height, Width: item.Width, VideoBitrate: item.BitrateKbps, AudioBitrate: 192, Profile: "high", Level: "4.1", Native: true}}
	}

	frameRate := 30.0
	if hasVideo {
		if fr, err := strconv.ParseFloat(video.FrameRate, 64); err == nil && fr > 0 {
			frameRate = fr
		}
	}

	segmentDuration := h.Config.Transcode.HLSSegmentDuration
	caps := h.Hardware.Detect(ctx, hardwareBackendFor(h.Config.Transcode.HWAccel))

	variants := make([]hls.VariantRequest, 0, len(ladder))
	for _, rung := range ladder {
		// The native rung needs no scaling, so it stream-copies video the
		// way Remux does; every other rung re-encodes to its own height.
		strategy := classifier.FullTranscode
		if rung.Native {
			strategy = classifier.Remux
		}

		req := ffmpeg.Request{
			InputPath:        item.Path,
			Strategy:         strategy,
			SourceVideoCodec: video.CodecName,
			SourceAudioCodec: audio.CodecName,
			PixelFormat:      video.PixelFormat,
			ColorTransfer:    video.ColorTransfer,
			ColorPrimaries:   video.ColorPrimaries,
			AccurateSeek:     !rung.Native,
			AudioStreamIndex: audio.StreamIndex,
			Encoder:          caps.Selected,
		}

		variants = append(variants, hls.VariantRequest{
			Label:           rung.Label,
			Resolution:      resolutionString(rung),
			Bandwidth:       rung.Bandwidth(),
			FFmpeg:          req,
			SegmentDuration: segmentDuration,
			FrameRate:       frameRate,
		})
	}
	return variants, nil
}

func resolutionString(r abr.Rung) string {
	if r.Width == 0 || r.Height == 0 {
		return ""
	}
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}

