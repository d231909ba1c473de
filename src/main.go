package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"vibecast/src/features/browse"
	"vibecast/src/features/caching"
	"vibecast/src/features/config"
	"vibecast/src/features/history"
	"vibecast/src/features/hosting"
	"vibecast/src/features/jobs"
	"vibecast/src/features/library"
	"vibecast/src/features/logging"
	"vibecast/src/features/playlists"
	"vibecast/src/features/rewind"
	"vibecast/src/infra/cache"
	"vibecast/src/infra/database"
)

func main() {
	// Load configuration
	cfgManager, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Setup default logger with slog
	logger := logging.SetupLogger(cfgManager)
	slog.SetDefault(logger)

	// Create the database store
	db, err := database.NewSqliteStore(cfgManager.Get().Database.Path)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Create the caches. When disabled, the feature services get nil caches
	// and every request hits the store.
	var listCache, detailCache *cache.TTLCache
	if cfgManager.Get().Cache.Enabled {
		maxEntries := cfgManager.Get().Cache.MaxEntries
		listCache = cache.New("lists", maxEntries, cfgManager.ListTTL())
		detailCache = cache.New("details", maxEntries, cfgManager.PlaylistTTL())
	}

	runner := caching.NewRunner(256)
	defer runner.Close()
	invalidator := caching.NewInvalidator(listCache, detailCache, runner)

	// Create the feature services
	browseService := browse.NewService(db, db, db, listCache)
	libraryService := library.NewService(db, db, invalidator)
	playlistService := playlists.NewService(db, db, detailCache, invalidator)
	historyService := history.NewService(db, db, db, listCache, invalidator)

	jobService := jobs.NewService(&cfgManager.Get().Jobs)

	rewindCfg := cfgManager.Get().Rewind
	rewindService := rewind.NewService(db, db, detailCache, invalidator)
	rewindParams := rewind.Params{
		PlaylistSize:  rewindCfg.PlaylistSize,
		ScoreMinPlays: rewindCfg.ScoreMinPlays,
		TopMinPlays:   rewindCfg.TopMinPlays,
	}
	rewindDriver := rewind.NewDriver(rewindService, db, rewindParams, rewindCfg.PairsPerSecond)
	jobService.RegisterHandler(rewind.JobType, jobs.NewBaseTaskHandler(rewind.NewRewindTask(rewindDriver)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := rewindService.EnsureDefaultTemplate(ctx); err != nil {
		slog.Error("failed to ensure default rewind template", "error", err)
	}
	cancel()

	scheduler := rewind.NewScheduler(cfgManager, jobService)
	if rewindCfg.Enabled {
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Create and start the HTTP server
	server := hosting.NewServer(cfgManager, hosting.Services{
		Browse:    browseService,
		Library:   libraryService,
		Playlists: playlistService,
		History:   historyService,
		Rewind:    rewindService,
		Jobs:      jobService,
	})
	go func() {
		if err := server.Start(); err != nil {
			slog.Error("server stopped", "error", err)
		}
	}()
	slog.Info("Server started. Press Ctrl+C to shut down.", "port", cfgManager.Get().Server.Port)

	// Wait for a shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	slog.Info("Shutting down server...")

	if err := server.Shutdown(); err != nil {
		log.Fatalf("failed to shutdown server: %v", err)
	}
	slog.Info("Server gracefully shut down.")
}
