package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockage/internal/agecalc"
	"github.com/mamadbah2/flockage/internal/config"
	"github.com/mamadbah2/flockage/internal/metrics"
	"github.com/mamadbah2/flockage/internal/repository/mongodb"
	"github.com/mamadbah2/flockage/internal/repository/registry"
	"github.com/mamadbah2/flockage/internal/repository/sheets"
	"github.com/mamadbah2/flockage/internal/repository/sqlite"
	"github.com/mamadbah2/flockage/internal/scheduler"
	"github.com/mamadbah2/flockage/internal/server/handlers"
	"github.com/mamadbah2/flockage/internal/server/router"
	commandsvc "github.com/mamadbah2/flockage/internal/service/commands"
	flocksvc "github.com/mamadbah2/flockage/internal/service/flocks"
	reportingsvc "github.com/mamadbah2/flockage/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/flockage/internal/service/whatsapp"
	"github.com/mamadbah2/flockage/pkg/clients/anthropic"
	whatsappclient "github.com/mamadbah2/flockage/pkg/clients/whatsapp"
	"github.com/mamadbah2/flockage/pkg/logger"
)

type archive interface {
	reportingsvc.SnapshotArchive
	handlers.SnapshotHistory
	Close(ctx context.Context) error
}

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.NewWithOptions(logger.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		baseLogger.Fatal("failed to register metrics", zap.Error(err))
	}

	loc, err := cfg.Digest.Location()
	if err != nil {
		baseLogger.Fatal("invalid timezone", zap.Error(err))
	}

	reg := registry.New(cfg.Registry.Path, logger.Named(baseLogger, "repo.registry"))
	loaded := reg.Load()
	baseLogger.Info("flock registry loaded", zap.String("path", reg.Path()), zap.Int("flocks", len(loaded)))

	flocks := flocksvc.NewService(reg, agecalc.NewWeekdayFormatter(cfg.Registry.Locale), loc, logger.Named(baseLogger, "svc.flocks"))

	ctx := context.Background()

	snapshots, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		baseLogger.Fatal("failed to init snapshot archive", zap.String("driver", cfg.Archive.Driver), zap.Error(err))
	}
	if snapshots != nil {
		defer func() {
			if err := snapshots.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close snapshot archive", zap.Error(err))
			}
		}()
	}

	var sheet sheets.Repository
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheet = sheetsRepo
	}

	var (
		digestArchive  reportingsvc.SnapshotArchive
		historyHandler *handlers.HistoryHandler
	)
	if snapshots != nil {
		digestArchive = snapshots
		historyHandler = handlers.NewHistoryHandler(snapshots, logger.Named(baseLogger, "handlers.history"))
	}
	reportingSvc := reportingsvc.NewService(flocks, digestArchive, sheet, logger.Named(baseLogger, "svc.reporting"))

	var (
		chatHandler *handlers.ChatHandler
		notifier    scheduler.Notifier
	)
	if cfg.WhatsApp.Enabled() {
		var aiClient anthropic.Client
		if cfg.AI.AnthropicKey != "" {
			aiClient = anthropic.NewClient(cfg.AI.AnthropicKey)
			baseLogger.Info("anthropic ai client enabled")
		} else {
			baseLogger.Warn("anthropic api key missing, free text commands disabled")
		}

		dispatcher := commandsvc.NewService(flocks, logger.Named(baseLogger, "svc.commands"))
		whatsClient := whatsappclient.NewClient(cfg.WhatsApp)
		messagingSvc := whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsClient, aiClient, dispatcher, logger.Named(baseLogger, "svc.whatsapp"))
		chatHandler = handlers.NewChatHandler(messagingSvc, logger.Named(baseLogger, "handlers.chat"))
		notifier = messagingSvc
	} else {
		baseLogger.Warn("whatsapp not configured, chat commands and digest delivery disabled")
	}

	flockHandler := handlers.NewFlockHandler(flocks, logger.Named(baseLogger, "handlers.flocks"))
	engine := router.New(flockHandler, historyHandler, chatHandler, logger.Named(baseLogger, "router"))

	sched, err := scheduler.NewScheduler(*cfg, reportingSvc, notifier, logger.Named(baseLogger, "scheduler"))
	if err != nil {
		baseLogger.Fatal("failed to init scheduler", zap.Error(err))
	}
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openArchive returns nil when no archive driver is configured.
func openArchive(ctx context.Context, cfg config.ArchiveConfig) (archive, error) {
	switch cfg.Driver {
	case config.ArchiveSQLite:
		repo, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case config.ArchiveMongoDB:
		repo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		return nil, nil
	}
}
