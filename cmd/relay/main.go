package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"burna/internal/config"
	"burna/internal/db"
	"burna/internal/hub"
	clog "burna/internal/log"
	"burna/internal/reaper"
	"burna/internal/server"
	"burna/internal/service"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := clog.SetLevel(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("log level")
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	gdb, err := db.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	h := hub.NewHub(log.Logger)
	store, err := service.NewSessionService(gdb, h, service.Limits{
		SessionLifetime:      cfg.SessionLifetime,
		MaxParticipants:      cfg.MaxParticipantsLimit,
		MaxMessageTTLSeconds: cfg.MaxMessageTTLSeconds,
	}, service.WithLogger(log.Logger))
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reaperDone := make(chan struct{})
	go func() {
		defer close(reaperDone)
		reaper.New(gdb, h, cfg.ReapInterval, nil, log.Logger).Run(ctx)
	}()

	srv := server.SetupRouter(cfg, store, h)
	defer srv.Close()
	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("addr", httpSrv.Addr).Str("driver", cfg.DatabaseDriver).Msg("relay listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server run")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
	<-reaperDone
}
