// Package server wires every component into the gin HTTP surface
// described in spec §6, styled on the teacher's handler-struct-plus-
// route-group pattern (`transcodingmodule/api`, `playbackmodule/api`)
// rather than its module-registration machinery — this spec has no
// module system, so every dependency is a plain field wired once in
// cmd/ferrite/main.go instead of discovered at runtime.
package server

import (
	"github.com/gin-gonic/gin"

	"github.com/ferrite-media/ferrite/internal/config"
	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/hls"
	"github.com/ferrite-media/ferrite/internal/middleware"
	"github.com/ferrite-media/ferrite/internal/scanner"
	"github.com/ferrite-media/ferrite/internal/scanner/progress"
	"github.com/ferrite-media/ferrite/internal/transcode"
	"github.com/ferrite-media/ferrite/internal/transcode/hardware"
	"github.com/ferrite-media/ferrite/internal/transcode/keyframe"
	"github.com/ferrite-media/ferrite/internal/transcode/thumbnails"
)

// Handler groups every dependency the HTTP surface calls into, per
// spec §6's endpoint list.
type Handler struct {
	Store        *database.Store
	Config       *config.Config
	Transcoder   *transcode.Transcoder
	HLS          *hls.Manager
	Oracle       *keyframe.Oracle
	Hardware     *hardware.Detector
	Thumbnails   *thumbnails.Generator
	Orchestrator *scanner.Orchestrator
	Watcher      *scanner.Watcher
	Progress     *progress.Registry
}

// NewRouter builds a gin engine with CORS enabled for every streaming
// header this spec's custom headers need exposed, matching the teacher's
// manual CORS middleware rather than a third-party CORS package (none of
// the example repos import one).
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorLogger())

	r.GET("/healthz", func(c *gin.Context) { c.Status(200) })

	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		c.Header("Access-Control-Expose-Headers", "X-Seek-Actual, X-Content-Duration, X-Total-Duration, x-hls-start-secs")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	h.registerStreamRoutes(r)
	h.registerHLSRoutes(r)
	h.registerLibraryRoutes(r)

	return r
}
