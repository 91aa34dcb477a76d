package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/doorward/gatekeeper/internal/config"
	"github.com/doorward/gatekeeper/internal/db"
	"github.com/doorward/gatekeeper/internal/gatekeeper/authority"
	"github.com/doorward/gatekeeper/internal/gatekeeper/reader"
	"github.com/doorward/gatekeeper/internal/gatekeeper/service"
	"github.com/doorward/gatekeeper/internal/gatekeeper/store"
	"github.com/doorward/gatekeeper/internal/gatekeeper/store/memory"
	sqlitestore "github.com/doorward/gatekeeper/internal/gatekeeper/store/sqlite"
	"github.com/doorward/gatekeeper/internal/httpapi"
)

// openStores selects the storage backend.  A dev run with
// GATEKEEPER_DB_PATH explicitly empty gets in-memory stores, so a bench
// setup needs no disk at all; everything else opens sqlite.
func openStores(ctx context.Context, cfg config.Config, logger *log.Logger) (store.VerdictStore, store.DecisionStore, func(), error) {
	if cfg.Env == "dev" && cfg.DBPath == "" {
		logger.Info("no db path, running on in-memory stores")
		return memory.NewVerdictStore(), memory.NewDecisionStore(), func() {}, nil
	}

	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath})
	if err != nil {
		return nil, nil, nil, err
	}
	writer := db.NewWriter(conn)
	closer := func() {
		writer.Close()
		conn.Close()
	}
	return sqlitestore.NewVerdictStore(conn, writer), sqlitestore.NewDecisionStore(conn, writer), closer, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := log.New()
	if cfg.Env == "prod" {
		logger.SetFormatter(&log.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local storage
	verdicts, decisions, closeStores, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("open storage: %v", err)
	}
	defer closeStores()

	// Authority
	client := authority.NewClient(authority.Config{
		BaseURL:  cfg.AuthorityURL,
		ModuleID: cfg.ModuleID,
		Timeout:  cfg.RequestTimeout,
	})

	// Decision pipeline
	gk := service.NewGatekeeper(client, verdicts, decisions, service.Config{
		ModuleID:    cfg.ModuleID,
		CacheMaxAge: cfg.CacheMaxAge,
	}, logger)

	// Background services
	heartbeats := service.NewHeartbeatSender(client, service.HeartbeatConfig{
		ModuleID:        cfg.ModuleID,
		FirmwareVersion: cfg.FirmwareVersion,
		Interval:        cfg.HeartbeatInterval,
	}, logger)
	heartbeats.Start(ctx)
	defer heartbeats.Stop()

	pruner := service.NewDecisionPruner(decisions, service.PrunerConfig{
		RetentionDays: cfg.EventRetentionDays,
		IntervalHours: cfg.PruneIntervalHours,
	}, logger)
	pruner.Start(ctx)
	defer pruner.Stop()

	// Status endpoint
	statusSrv := httpapi.NewServer(httpapi.Dependencies{
		Logger:   logger,
		Addr:     cfg.StatusAddr,
		ModuleID: cfg.ModuleID,
		Stats:    gk,
	})
	go func() {
		logger.Infof("status endpoint on %s", cfg.StatusAddr)
		if err := statusSrv.Start(); err != nil {
			logger.Errorf("status server: %v", err)
		}
	}()

	// Hardware
	feed, err := os.Open(cfg.ReaderPath)
	if err != nil {
		logger.Fatalf("open reader feed: %v", err)
	}
	defer feed.Close()
	cards := reader.NewLineReader(feed)

	var latch reader.Latch = &reader.LogLatch{Logger: logger}
	if cfg.LatchPath != "" {
		out, err := os.OpenFile(cfg.LatchPath, os.O_WRONLY|os.O_APPEND, 0)
		if err != nil {
			logger.Fatalf("open latch pipe: %v", err)
		}
		defer out.Close()
		latch = reader.NewWriterLatch(out)
	}

	loop := reader.NewLoop(cards, latch, gk, reader.LoopConfig{
		PollInterval: cfg.PollInterval,
	}, logger)

	logger.Infof("gatekeeper running (authority=%s poll=%s)", cfg.AuthorityURL, cfg.PollInterval)
	_ = loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = statusSrv.Shutdown(shutdownCtx)
}
