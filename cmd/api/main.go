package main

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/taleweave/taleweave/pkg/config"
	"github.com/taleweave/taleweave/pkg/database"
	"github.com/taleweave/taleweave/pkg/metrics"
	"github.com/taleweave/taleweave/pkg/migrations"
	"github.com/taleweave/taleweave/pkg/reading"
	"github.com/taleweave/taleweave/pkg/realtime"
	"github.com/taleweave/taleweave/pkg/server"
	"github.com/taleweave/taleweave/pkg/version"
	"github.com/taleweave/taleweave/pkg/worker"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting taleweave", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	rdb, err := database.NewRedis(ctx, cfg)
	if err != nil {
		log.Err(err).Fatal("redis error")
	}

	m := metrics.New()
	hub := realtime.NewHub()
	registry := reading.NewRegistry(cfg.ReadingSessionTTL, m)

	relayCtx, stopRelay := context.WithCancel(log.WithContext(ctx))
	defer stopRelay()
	if rdb != nil {
		if err := realtime.NewRedisRelay(rdb, hub).Run(relayCtx); err != nil {
			log.Err(err).Fatal("realtime relay error")
		}
		log.Info("realtime relay started")
	}

	srv, err := server.New(cfg, server.Dependencies{
		DB:       db,
		Redis:    rdb,
		Hub:      hub,
		Registry: registry,
		Metrics:  m,
	})
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	wrkr := worker.New(cfg, registry)

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started")

	<-graceful
	log.Info("starting graceful shutdown")

	// Websocket feeds are hijacked connections, so close them before waiting
	// on the server.
	hub.Close()

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	stopRelay()
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			log.Err(err).Error("redis close error")
		}
	}

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
