package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/clinic-api/internal/config"
	"github.com/harentsoaR/clinic-api/internal/handlers"
	"github.com/harentsoaR/clinic-api/internal/middleware"
	"github.com/harentsoaR/clinic-api/internal/repository"
	"github.com/harentsoaR/clinic-api/internal/repository/memory"
	"github.com/harentsoaR/clinic-api/internal/services"
	"github.com/harentsoaR/clinic-api/internal/utils"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "clinic-api",
		Short:         "Doctor and patient appointment scheduling API",
		SilenceUsage:  true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(seedAdminCmd())
	return root
}

func serveCmd() *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			cfg.InMemory = inMemory
			return runServer(cfg)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "Keep all data in memory instead of MongoDB")
	return cmd
}

func seedAdminCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "seed-admin",
		Short: "Create an admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger := newLogger(cfg)

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			repos, closeStore, err := openStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			signer := utils.NewTokenSigner(cfg.JWTSecret, cfg.TokenTTL)
			svc := services.New(repos, signer, services.NewNotificationService("", logger), logger)
			admin, err := svc.Accounts.SeedAdmin(ctx, username, password)
			if err != nil {
				return fmt.Errorf("seed admin: %w", err)
			}
			logger.Info().Str("admin_id", admin.ID.Hex()).Str("username", admin.Username).Msg("admin created")
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "Admin username")
	cmd.Flags().StringVar(&password, "password", "", "Admin password")
	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// openStore returns the repositories selected by cfg and a func releasing them.
func openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (repository.Repositories, func(), error) {
	if cfg.InMemory {
		logger.Warn().Msg("using in-memory storage; data is lost on exit")
		return memory.New(), func() {}, nil
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return repository.Repositories{}, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	closeStore := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("disconnect from MongoDB")
		}
	}
	if err := client.Ping(ctx, nil); err != nil {
		closeStore()
		return repository.Repositories{}, nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	if err := repository.EnsureIndexes(ctx, db); err != nil {
		closeStore()
		return repository.Repositories{}, nil, err
	}
	logger.Info().Str("database", cfg.MongoDatabase).Msg("connected to MongoDB")
	return repository.NewMongo(db), closeStore, nil
}

func newRouter(cfg *config.Config, logger zerolog.Logger, svc *services.Services, limiter *middleware.RateLimiter) *gin.Engine {
	if !cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Logger(logger),
		middleware.Recovery(logger),
		cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader},
			AllowCredentials: true,
		}),
	)
	handlers.NewHandler(svc, logger).Register(r, limiter)
	return r
}

func runServer(cfg *config.Config) error {
	logger := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	repos, closeStore, err := openStore(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error().Err(err).Msg("failed to open storage")
		return err
	}
	defer closeStore()

	notifier := services.NewNotificationService(cfg.TextbeltAPIKey, logger)
	signer := utils.NewTokenSigner(cfg.JWTSecret, cfg.TokenTTL)
	svc := services.New(repos, signer, notifier, logger)

	done := make(chan struct{})
	limiter := middleware.NewRateLimiter(cfg.LoginRateRPS, cfg.LoginRateBurst)
	go limiter.Run(done)
	defer close(done)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(cfg, logger, svc, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	case <-quit:
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	notifier.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
