package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ferrite-media/ferrite/internal/config"
	"github.com/ferrite-media/ferrite/internal/database"
	"github.com/ferrite-media/ferrite/internal/enrich"
	"github.com/ferrite-media/ferrite/internal/events"
	"github.com/ferrite-media/ferrite/internal/hls"
	"github.com/ferrite-media/ferrite/internal/logger"
	"github.com/ferrite-media/ferrite/internal/mediaprobe"
	"github.com/ferrite-media/ferrite/internal/scanner"
	"github.com/ferrite-media/ferrite/internal/scanner/progress"
	"github.com/ferrite-media/ferrite/internal/server"
	"github.com/ferrite-media/ferrite/internal/subtitles"
	"github.com/ferrite-media/ferrite/internal/transcode"
	"github.com/ferrite-media/ferrite/internal/transcode/hardware"
	"github.com/ferrite-media/ferrite/internal/transcode/keyframe"
	"github.com/ferrite-media/ferrite/internal/transcode/thumbnails"
)

func main() {
	fmt.Println("=======================================")
	fmt.Println("  Ferrite Media Server                 ")
	fmt.Println("=======================================")

	cfgPath := config.ResolvePath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	if cfgPath != "" {
		logger.Info("configuration loaded", []logger.Field{logger.String("path", cfgPath)})
	} else {
		logger.Info("using default configuration")
	}

	for _, dir := range []string{cfg.Data.Dir, cfg.Data.HLSCacheDir(), cfg.Data.ThumbnailCacheDir(), cfg.Data.ImageCacheDir(), cfg.Data.SubtitleCacheDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("creating data directory %s: %v", dir, err)
		}
	}

	db, err := database.Open(database.Options{Dialect: database.DialectSQLite, DSN: cfg.Data.DBPath()})
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	store := database.NewStore(db)

	probe := mediaprobe.NewExecutor("ffprobe")
	subsExtractor := subtitles.NewExtractor("ffmpeg", cfg.Data.SubtitleCacheDir())
	imageCache := enrich.NewImageCache(cfg.Data.ImageCacheDir(), http.DefaultClient)
	provider := enrich.NewTMDbProvider(cfg.Metadata.ProviderBaseURL, cfg.Metadata.ProviderAPIKey, cfg.Metadata.RequestTimeout())
	enricher := enrich.NewEnricher(store, provider, imageCache, cfg.Metadata.RateLimitPerSecond, cfg.Scanner.EnrichConcurrencyMovies, cfg.Scanner.EnrichConcurrencyShows)

	eventBus := events.NewBus()

	progressReg := progress.NewRegistry()
	orchestrator := scanner.NewOrchestrator(store, probe, subsExtractor, enricher, progressReg, cfg.Scanner.ConcurrentProbes)
	orchestrator.Events = eventBus
	orchestrator.Load = scanner.NewLoadMonitor(500 * time.Millisecond)

	watcher, err := scanner.NewWatcher(orchestrator, store, cfg.Scanner.DebounceWindow(), cfg.Scanner.IncrementalBatchSize)
	if err != nil {
		log.Fatalf("creating library watcher: %v", err)
	}

	libs, err := store.ListLibraries()
	if err != nil {
		log.Fatalf("listing libraries: %v", err)
	}
	for _, lib := range libs {
		if err := watcher.WatchLibrary(lib); err != nil {
			logger.Warn("failed to watch library", []logger.Field{logger.String("library_id", lib.ID), logger.Err("cause", err)})
		}
	}

	limiter := transcode.NewLimiter(cfg.Transcode.MaxConcurrentTranscodes)
	oracle := keyframe.NewOracle("ffprobe")
	transcoder := transcode.NewTranscoder("ffmpeg", limiter, oracle)
	hlsManager := hls.NewManager("ffmpeg", cfg.Data.HLSCacheDir(), limiter)
	hlsManager.Events = eventBus
	thumbGen := thumbnails.NewGenerator("ffmpeg")
	detector := hardware.NewDetector("ffmpeg")

	handler := &server.Handler{
		Store:        store,
		Config:       cfg,
		Transcoder:   transcoder,
		HLS:          hlsManager,
		Oracle:       oracle,
		Hardware:     detector,
		Thumbnails:   thumbGen,
		Orchestrator: orchestrator,
		Watcher:      watcher,
		Progress:     progressReg,
	}
	router := server.NewRouter(handler)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go watcher.Run(ctx)
	go hlsManager.RunIdleSweep(ctx, cfg.Transcode.SessionTimeout(), cfg.Transcode.FfmpegIdleTimeout())

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down gracefully")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", []logger.Field{logger.Err("cause", err)})
		}

		hlsManager.Shutdown()

		if err := watcher.Close(); err != nil {
			logger.Error("closing library watcher", []logger.Field{logger.Err("cause", err)})
		}

		cancel()
	}()

	logger.Info("starting ferrite server", []logger.Field{logger.String("addr", srv.Addr)})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server failed: %v", err)
	}

	<-ctx.Done()
	logger.Info("server shutdown complete")
}
