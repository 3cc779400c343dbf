package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/tdcarpool/carpool/backend/internal/analysis/intent"
	"github.com/tdcarpool/carpool/backend/internal/config"
	"github.com/tdcarpool/carpool/backend/internal/handler"
	"github.com/tdcarpool/carpool/backend/internal/logging"
	"github.com/tdcarpool/carpool/backend/internal/model/carpool"
	"github.com/tdcarpool/carpool/backend/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := logging.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		log.Fatal().Err(err).Msg("failed to initialise logging")
	}
	logger := logging.New("api")
	if envErr != nil {
		logger.Debug().Err(envErr).Msg("no .env file, using process environment only")
	}

	table, err := loadRules(cfg.Assistant.RulesFile)
	if err != nil {
		logger.Fatal().Err(err).Str("file", cfg.Assistant.RulesFile).Msg("failed to load rule table")
	}
	resolver := intent.NewResolver(table)

	pipeline, err := chat.NewPipeline(ctx, resolver, logging.New("assistant"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build reply pipeline")
	}

	chatService := chat.NewService(chat.Options{
		Welcome:   table.Welcome(),
		Responder: pipeline,
		Latency:   chat.JitterLatency{Base: cfg.Assistant.ReplyDelay, Jitter: cfg.Assistant.ReplyJitter},
		IdleTTL:   cfg.Assistant.SessionIdleTTL,
		Logger:    logging.New("chat"),
	})
	store := carpool.NewMemoryStore(carpool.SeedTrips(), carpool.SeedUsers())

	router := handler.NewRouter(chatService, table, store, logging.New("router"))

	if err := run(ctx, cfg, router, chatService); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func loadRules(path string) (*intent.Table, error) {
	if path == "" {
		return intent.Default(), nil
	}
	return intent.LoadFile(path)
}

// run serves HTTP and sweeps idle sessions until ctx is cancelled, then
// drains both.
func run(ctx context.Context, cfg *config.Config, router http.Handler, chatService *chat.Service) error {
	logger := logging.New("api")
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", srv.Addr).Msg("TD Carpool backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return chatService.RunJanitor(gctx, cfg.Assistant.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info().Msg("shutting down")
		err := srv.Shutdown(shutdownCtx)
		return errors.Join(err, chatService.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
