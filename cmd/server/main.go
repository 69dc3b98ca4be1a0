package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/avess/huddle/internal/adapters/http"
	"github.com/avess/huddle/internal/adapters/ws"
	"github.com/avess/huddle/internal/app"
	"github.com/avess/huddle/internal/auth"
	"github.com/avess/huddle/internal/config"
	"github.com/avess/huddle/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := store.Open(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DataPath).Msg("failed to open database")
	}
	defer db.Close()

	users := store.NewUsers(db)
	messages := store.NewMessages(db)
	rooms := store.NewRooms(db)
	identity := auth.NewIdentity([]byte(cfg.Secret), users)

	coord := app.NewCoordinator(identity, messages, rooms).WithBacklog(cfg.Backlog)
	ctl := ws.NewController(coord, cfg)
	rest := router.NewRestHandlers(messages, rooms, users)

	r := router.SetupRouter(ctx, cfg, ctl, rest)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Huddle server started")
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
