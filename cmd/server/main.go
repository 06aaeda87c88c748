package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"collabide/server/internal/adapters/collab"
	router "collabide/server/internal/adapters/http"
	"collabide/server/internal/adapters/terminal"
	"collabide/server/internal/app"
	"collabide/server/internal/config"
	"collabide/server/internal/exec"
	"collabide/server/internal/relay"
	"collabide/server/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	registry := app.NewRegistry()
	msgRouter := app.NewRouter(registry)

	// The room record store and the fanout backbone share one Redis. When it
	// is unreachable the server still runs, degraded to a single instance
	// with in-memory rooms.
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, pingCancel := context.WithTimeout(ctx, 2*time.Second)
	redisUp := rdb.Ping(pingCtx).Err() == nil
	pingCancel()

	var roomStore store.RoomStore
	if redisUp {
		roomStore = store.NewRedisStore(rdb)
	} else {
		log.Warn().Str("addr", cfg.RedisAddr).Msg("redis unreachable, running single-instance with in-memory rooms")
		roomStore = store.NewMemoryStore()
	}

	access := app.NewAccessController(roomStore, cfg.PasswordLength)

	collabCtl := &collab.Controller{
		Access:       access,
		Registry:     registry,
		Router:       msgRouter,
		Store:        roomStore,
		ReadLimit:    cfg.ReadLimit,
		WriteTimeout: cfg.WriteTimeout,
	}

	if redisUp {
		bridge := relay.NewBridge(rdb, collabCtl.DeliverRemote)
		collabCtl.Bridge = bridge
		go bridge.Run(ctx)
	}

	termCtl := &terminal.Controller{
		Exec:    exec.NewHTTPClient(cfg.Judge0URL, cfg.Judge0Key, cfg.ExecTimeout),
		Timeout: cfg.ExecTimeout,
	}

	r := router.SetupRouter(ctx, cfg, access, collabCtl, termCtl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("collab server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
