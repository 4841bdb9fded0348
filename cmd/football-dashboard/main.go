package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/config"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/dashboard"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/hub"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/logging"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/middleware"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/providers/apifootball"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/internal/topics"
	"github.com/XavierBriggs/fortuna/services/football-dashboard/web"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath, envFile, addr, logLevel string

	flagSet := pflag.NewFlagSet("football-dashboard", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "path to a YAML config file")
	flagSet.StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	flagSet.StringVar(&addr, "addr", "", "listen address (overrides SERVER_ADDR)")
	flagSet.StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	// a missing .env is normal outside development
	if err := godotenv.Load(envFile); err != nil && flagSet.Changed("env-file") {
		return fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}

	if err := logging.Setup(cfg.Log); err != nil {
		return err
	}

	log.Info().
		Str("upstream", cfg.Upstream.BaseURL).
		Int("season", cfg.Upstream.Season).
		Msg("starting football dashboard")

	if cfg.Upstream.APIKey == "" {
		log.Warn().Msg("APIFOOTBALL_KEY is not set, upstream requests will be rejected")
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	activity, closeActivity, err := newActivityPublisher(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer closeActivity()

	svc := dashboard.NewService(topics.New(cfg.Upstream.Season), apifootball.New(cfg.Upstream))

	h := hub.NewHub(svc, activity, cfg.Server.SessionIdleTimeout)
	go h.Run(ctx)

	handler := handlers.NewHandler(svc, h, ctx)

	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Routes
	handler.Register(r)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/*", web.Handler())

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	serverErrors := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("dashboard listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		log.Info().Str("signal", sig.String()).Msg("shutting down")

		// Stop the hub and WebSocket pumps first
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("graceful shutdown failed")
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
	}

	log.Info().Msg("shutdown complete")
	return nil
}

// newActivityPublisher connects the Redis activity stream when REDIS_URL is set
func newActivityPublisher(ctx context.Context, cfg config.RedisConfig) (publisher.ActivityPublisher, func(), error) {
	if cfg.URL == "" {
		log.Info().Msg("REDIS_URL not set, activity stream disabled")
		return publisher.Noop{}, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}

	log.Info().Str("stream", cfg.Stream).Msg("connected to redis")
	return publisher.NewStreamPublisher(client, cfg.Stream), func() { client.Close() }, nil
}
