// Package scanner implements the Scan Orchestrator (spec §4.5): a six-step
// per-library pipeline (walk, probe, write, subtitle-extract, enrich,
// cleanup) plus the incremental path used by the Library Watcher (§4.9).
package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/enrich"
	"github.com/ferrite-media/ferrite/internal/events"
	"github.com/ferrite-media/ferrite/internal/logger"
	"github.com/ferrite-media/ferrite/internal/mediaprobe"
	"github.com/ferrite-media/ferrite/internal/scanner/filenameparser"
	"github.com/ferrite-media/ferrite/internal/scanner/progress"
	"github.com/ferrite-media/ferrite/internal/subtitles"
	"github.com/ferrite-media/ferrite/internal/utils"
)

// Orchestrator runs the scan pipeline for one library at a time,
// publishing progress via the shared Progress Registry.
type Orchestrator struct {
	Store      *database.Store
	Probe      *mediaprobe.Executor
	Subtitles  *subtitles.Extractor
	Enricher   *enrich.Enricher
	Progress   *progress.Registry

	// Events is optional; when set, scan.started/scan.completed/scan.failed
	// are published for webhook dispatch and SSE endpoints to consume.
	Events *events.Bus

	// Load is optional; when set, it scales ConcurrentProbes down under
	// host CPU/memory pressure for the duration of one probe pass.
	Load *LoadMonitor

	ConcurrentProbes int
	EnrichBatchSize  int
}

func NewOrchestrator(store *database.Store, probe *mediaprobe.Executor, subs *subtitles.Extractor, enricher *enrich.Enricher, reg *progress.Registry, concurrentProbes int) *Orchestrator {
	if concurrentProbes < 1 {
		concurrentProbes = 4
	}
	return &Orchestrator{
		Store:            store,
		Probe:            probe,
		Subtitles:        subs,
		Enricher:         enricher,
		Progress:         reg,
		ConcurrentProbes: concurrentProbes,
		EnrichBatchSize:  50,
	}
}

// probedResult is one file's probe + filename-parse outcome, gathered in
// memory before the single write transaction (spec §4.5 steps 2-3).
type probedResult struct {
	entry  WalkEntry
	probe  mediaprobe.Result
	parsed filenameparser.Result
}

// ScanLibrary runs the full six-step pipeline for one library. Returns
// false without doing anything if a scan of this library is already in
// progress (Progress Registry's single-flight guard).
func (o *Orchestrator) ScanLibrary(ctx context.Context, lib *database.Library) (bool, error) {
	if !o.Progress.TryStart(lib.ID) {
		return false, nil
	}
	o.publish("scan.started", lib.ID, nil)
	err := o.runFull(ctx, lib)
	if err != nil {
		o.Progress.Fail(lib.ID, err)
		o.publish("scan.failed", lib.ID, map[string]interface{}{"error": err.Error()})
		return true, err
	}
	o.Progress.Complete(lib.ID)
	o.publish("scan.completed", lib.ID, nil)
	return true, nil
}

func (o *Orchestrator) publish(eventType, libraryID string, extra map[string]interface{}) {
	if o.Events == nil {
		return
	}
	payload := map[string]interface{}{"library_id": libraryID}
	for k, v := range extra {
		payload[k] = v
	}
	o.Events.Publish(events.Event{Type: eventType, Source: "scanner", Payload: payload})
}

func (o *Orchestrator) runFull(ctx context.Context, lib *database.Library) error {
	o.Progress.Advance(lib.ID, progress.PhaseWalk, 0)
	entries, err := Walk(lib.Path, lib.Kind)
	if err != nil {
		return fmt.Errorf("walking %s: %w", lib.Path, err)
	}
	o.Progress.SetTotal(lib.ID, len(entries))

	results := o.probeAll(ctx, lib.ID, entries)
	if err := o.writeAndExtract(ctx, lib, results); err != nil {
		return err
	}

	if o.Enricher != nil {
		o.Progress.Advance(lib.ID, progress.PhaseEnrich, len(entries))
		if err := o.Enricher.RunLibrary(ctx, o.EnrichBatchSize); err != nil {
			logger.Warn("enrichment pass failed", []logger.Field{
				logger.String("library_id", lib.ID), logger.Err("cause", err),
			})
		}
	}

	o.Progress.Advance(lib.ID, progress.PhaseCleanup, len(entries))
	if err := o.Store.CleanupEmptyShows(lib.ID); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	return o.Store.TouchLibraryScanned(lib.ID)
}

// probeAll runs step 2: bounded-concurrency probe + filename parse.
func (o *Orchestrator) probeAll(ctx context.Context, libraryID string, entries []WalkEntry) []probedResult {
	concurrency := o.ConcurrentProbes
	if o.Load != nil {
		concurrency = o.Load.EffectiveConcurrency(ctx, o.ConcurrentProbes)
		if concurrency != o.ConcurrentProbes {
			logger.Info("scaling probe concurrency for host load", []logger.Field{
				logger.String("library_id", libraryID),
				logger.Int("configured", o.ConcurrentProbes),
				logger.Int("effective", concurrency),
			})
		}
	}
	pool := utils.NewWorkerPool(concurrency)
	pool.Start()
	defer pool.Stop()

	results := make([]probedResult, len(entries))
	done := make(chan int, len(entries))

	for i, entry := range entries {
		i, entry := i, entry
		submitted := pool.Submit(func() {
			res, err := o.Probe.Probe(ctx, entry.Path)
			if err != nil {
				logger.Warn("probe failed", []logger.Field{logger.String("path", entry.Path), logger.Err("cause", err)})
			}
			stem := strings.TrimSuffix(filepath.Base(entry.Path), filepath.Ext(entry.Path))
			results[i] = probedResult{entry: entry, probe: res, parsed: filenameparser.Parse(stem)}
			done <- i
		})
		if !submitted {
			res, _ := o.Probe.Probe(ctx, entry.Path)
			stem := strings.TrimSuffix(filepath.Base(entry.Path), filepath.Ext(entry.Path))
			results[i] = probedResult{entry: entry, probe: res, parsed: filenameparser.Parse(stem)}
			done <- i
		}
	}

	for completed := 1; completed <= len(entries); completed++ {
		<-done
		o.Progress.Advance(libraryID, progress.PhaseProbe, completed)
	}
	return results
}

// writeAndExtract runs steps 3-4: the single write transaction per item,
// then the subtitle extractor.
func (o *Orchestrator) writeAndExtract(ctx context.Context, lib *database.Library, results []probedResult) error {
	kind := database.MediaKindMovie
	if lib.Kind == database.LibraryKindTV {
		kind = database.MediaKindEpisode
	} else if lib.Kind == database.LibraryKindMusic {
		kind = database.MediaKindTrack
	}

	o.Progress.Advance(lib.ID, progress.PhaseWrite, 0)
	for i, r := range results {
		item := toProbedItem(r)
		mediaItem, err := o.Store.UpsertMediaItem(lib.ID, kind, item)
		if err != nil {
			logger.Warn("upsert media item failed", []logger.Field{
				logger.String("path", r.entry.Path), logger.Err("cause", err),
			})
			continue
		}
		o.Progress.Advance(lib.ID, progress.PhaseWrite, i+1)

		if o.Subtitles == nil {
			continue
		}
		o.extractSubtitles(ctx, mediaItem, r)
	}
	o.Progress.Advance(lib.ID, progress.PhaseSubtitles, len(results))
	return nil
}

func (o *Orchestrator) extractSubtitles(ctx context.Context, mediaItem *database.MediaItem, r probedResult) {
	dir := filepath.Dir(r.entry.Path)
	stem := strings.TrimSuffix(filepath.Base(r.entry.Path), filepath.Ext(r.entry.Path))

	sidecars, err := o.Subtitles.SidecarPass(dir, stem, mediaItem.ID)
	if err != nil {
		logger.Warn("sidecar subtitle pass failed", []logger.Field{logger.String("path", r.entry.Path), logger.Err("cause", err)})
		sidecars = nil
	}

	embedded, err := o.Subtitles.EmbeddedPass(ctx, r.entry.Path, mediaItem.ID, r.probe.Streams)
	if err != nil {
		logger.Warn("embedded subtitle pass failed", []logger.Field{logger.String("path", r.entry.Path), logger.Err("cause", err)})
		embedded = nil
	}

	all := append(sidecars, embedded...)
	if len(all) == 0 {
		return
	}
	if err := o.Store.UpsertSubtitles(mediaItem.ID, all); err != nil {
		logger.Warn("upsert subtitles failed", []logger.Field{logger.String("media_item_id", mediaItem.ID), logger.Err("cause", err)})
	}
}

func toProbedItem(r probedResult) database.ProbedItem {
	streams := make([]database.MediaStream, 0, len(r.probe.Streams))
	for _, s := range r.probe.Streams {
		streams = append(streams, database.MediaStream{
			StreamIndex:    s.Index,
			Type:           s.Type,
			CodecName:      s.CodecName,
			CodecLongName:  s.CodecLongName,
			Profile:        s.Profile,
			Language:       s.Language,
			Title:          s.Title,
			Default:        s.Default,
			Forced:         s.Forced,
			Width:          s.Width,
			Height:         s.Height,
			FrameRate:      s.FrameRate,
			PixelFormat:    s.PixelFormat,
			BitDepth:       s.BitDepth,
			ColorSpace:     s.ColorSpace,
			ColorTransfer:  s.ColorTransfer,
			ColorPrimaries: s.ColorPrimaries,
			Channels:       s.Channels,
			ChannelLayout:  s.ChannelLayout,
			SampleRate:     s.SampleRate,
			BitrateKbps:    s.BitrateKbps,
		})
	}

	videoStream, _ := r.probe.FirstVideoStream()
	item := database.ProbedItem{
		Path:        r.entry.Path,
		SizeBytes:   r.entry.Size,
		Container:   r.probe.Container,
		DurationMs:  r.probe.DurationMs,
		BitrateKbps: r.probe.BitrateKbps,
		Width:       videoStream.Width,
		Height:      videoStream.Height,
		VideoCodec:  r.probe.DominantVideoCodec(),
		AudioCodec:  r.probe.DominantAudioCodec(),
		Streams:     streams,
	}

	switch r.parsed.Kind {
	case filenameparser.KindMovie:
		item.Title = r.parsed.Title
		item.Year = r.parsed.Year
	case filenameparser.KindEpisode:
		item.IsShow = true
		item.Show = r.parsed.ShowName
		item.Season = r.parsed.Season
		item.Episode = r.parsed.Episode
		item.Title = r.parsed.CleanedTitle
	default:
		item.Title = r.parsed.CleanedTitle
	}
	return item
}
