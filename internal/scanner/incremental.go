package scanner

import (
	"context"
	"fmt"
	"os"

	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/logger"
)

// ScanIncremental runs spec §4.5's incremental path for a set of changed
// subtree paths: delete MediaItems under those subtrees whose file no
// longer exists, then walk and pipeline only the subtrees that still
// exist. Falls back to a full scan on any error.
func (o *Orchestrator) ScanIncremental(ctx context.Context, lib *database.Library, changedPaths []string) error {
	if err := o.runIncremental(ctx, lib, changedPaths); err != nil {
		logger.Warn("incremental scan failed, falling back to full scan", []logger.Field{
			logger.String("library_id", lib.ID), logger.Err("cause", err),
		})
		_, fallbackErr := o.ScanLibrary(ctx, lib)
		return fallbackErr
	}
	return nil
}

func (o *Orchestrator) runIncremental(ctx context.Context, lib *database.Library, changedPaths []string) error {
	if !o.Progress.TryStart(lib.ID) {
		return fmt.Errorf("scan already in progress for library %s", lib.ID)
	}

	if err := o.doIncremental(ctx, lib, changedPaths); err != nil {
		o.Progress.Fail(lib.ID, err)
		return err
	}
	o.Progress.Complete(lib.ID)
	return nil
}

func (o *Orchestrator) doIncremental(ctx context.Context, lib *database.Library, changedPaths []string) error {
	deleted, err := o.Store.DeleteMediaItemsMissing(lib.ID, func(path string) bool {
		underChanged := false
		for _, changed := range changedPaths {
			if hasPrefix(path, changed) {
				underChanged = true
				break
			}
		}
		if !underChanged {
			return true // not in scope for this incremental batch, assume unchanged
		}
		_, statErr := os.Stat(path)
		return statErr == nil
	})
	if err != nil {
		return fmt.Errorf("deleting missing items: %w", err)
	}
	if deleted > 0 {
		logger.Info("incremental scan removed stale media items", []logger.Field{
			logger.String("library_id", lib.ID), logger.Int("count", deleted),
		})
	}

	entries, err := WalkSubtrees(changedPaths, lib.Kind)
	if err != nil {
		return fmt.Errorf("walking changed subtrees: %w", err)
	}
	o.Progress.SetTotal(lib.ID, len(entries))

	results := o.probeAll(ctx, lib.ID, entries)
	if err := o.writeAndExtract(ctx, lib, results); err != nil {
		return err
	}

	if o.Enricher != nil {
		if err := o.Enricher.RunLibrary(ctx, o.EnrichBatchSize); err != nil {
			logger.Warn("enrichment pass failed", []logger.Field{
				logger.String("library_id", lib.ID), logger.Err("cause", err),
			})
		}
	}

	return o.Store.CleanupEmptyShows(lib.ID)
}
