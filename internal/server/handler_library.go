package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ferrite-media/ferrite/internal/apierr"
	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/logger"
	"github.com/ferrite-media/ferrite/internal/scanner/progress"
)

func (h *Handler) registerLibraryRoutes(r *gin.Engine) {
	r.GET("/libraries", h.handleListLibraries)
	r.POST("/libraries", h.handleCreateLibrary)
	r.GET("/libraries/:id", h.handleGetLibrary)
	r.DELETE("/libraries/:id", h.handleDeleteLibrary)
	r.POST("/libraries/:id/scan", h.handleStartScan)
	r.GET("/libraries/:id/scan/status", h.handleScanStatus)
}

func (h *Handler) handleListLibraries(c *gin.Context) {
	libs, err := h.Store.ListLibraries()
	if err != nil {
		apierr.Internal("listing libraries", err).WriteGin(c)
		return
	}
	c.JSON(http.StatusOK, libs)
}

type createLibraryRequest struct {
	Path string `json:"path" binding:"required"`
	Kind string `json:"kind" binding:"required"`
}

func (h *Handler) handleCreateLibrary(c *gin.Context) {
	var req createLibraryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.InputInvalid(err.Error(), "body").WriteGin(c)
		return
	}
	switch req.Kind {
	case database.LibraryKindMovie, database.LibraryKindTV, database.LibraryKindMusic:
	default:
		apierr.InputInvalid("kind must be movie, tv, or music", "kind").WriteGin(c)
		return
	}

	lib, err := h.Store.CreateLibrary(req.Path, req.Kind)
	if err != nil {
		apierr.Internal("creating library", err).WriteGin(c)
		return
	}

	if err := h.Watcher.WatchLibrary(*lib); err != nil {
		logger.Warn("failed to watch new library", []logger.Field{
			logger.String("library_id", lib.ID),
			logger.Err("cause", err),
		})
	}

	c.JSON(http.StatusCreated, lib)
}

func (h *Handler) handleGetLibrary(c *gin.Context) {
	lib, err := h.Store.GetLibrary(c.Param("id"))
	if err != nil {
		apierr.NotFound("library", c.Param("id")).WriteGin(c)
		return
	}
	c.JSON(http.StatusOK, lib)
}

func (h *Handler) handleDeleteLibrary(c *gin.Context) {
	id := c.Param("id")
	if err := h.Store.DeleteLibrary(id); err != nil {
		apierr.Internal("deleting library", err).WriteGin(c)
		return
	}
	c.Status(http.StatusNoContent)
}

// handleStartScan implements `POST /libraries/<id>/scan`: it refuses to
// start a second scan while one is already running for this library
// (spec §4.5's one-scan-per-library invariant) and runs the scan itself
// in the background so the request returns immediately. The orchestrator
// owns the actual single-flight guard; this handler only peeks at the
// current snapshot to give the caller a synchronous 503 instead of a
// scan that silently no-ops.
func (h *Handler) handleStartScan(c *gin.Context) {
	id := c.Param("id")
	lib, err := h.Store.GetLibrary(id)
	if err != nil {
		apierr.NotFound("library", id).WriteGin(c)
		return
	}

	switch h.Progress.Snapshot(id).Phase {
	case progress.PhaseWalk, progress.PhaseProbe, progress.PhaseWrite, progress.PhaseSubtitles, progress.PhaseEnrich, progress.PhaseCleanup:
		apierr.CapacityExceeded("a scan is already running for this library").WriteGin(c)
		return
	}

	go func() {
		if _, err := h.Orchestrator.ScanLibrary(context.Background(), lib); err != nil {
			logger.Error("library scan failed", []logger.Field{
				logger.String("library_id", id),
				logger.Err("cause", err),
			})
		}
	}()

	c.Status(http.StatusAccepted)
}

func (h *Handler) handleScanStatus(c *gin.Context) {
	snap := h.Progress.Snapshot(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{
		"library_id": snap.LibraryID,
		"phase":      snap.Phase,
		"total":      snap.Total,
		"current":    snap.Current,
		"percent":    snap.Percent(),
		"elapsed_ms": snap.Elapsed().Milliseconds(),
		"eta_ms":     snap.ETA().Milliseconds(),
		"error":      snap.Error,
	})
}
