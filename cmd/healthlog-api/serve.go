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

	"github.com/JonnyWalker81/healthlog/backend/internal/config"
	"github.com/JonnyWalker81/healthlog/backend/internal/handlers"
	"github.com/JonnyWalker81/healthlog/backend/internal/logger"
	"github.com/JonnyWalker81/healthlog/backend/internal/middleware"
	"github.com/JonnyWalker81/healthlog/backend/internal/realtime"
	"github.com/JonnyWalker81/healthlog/backend/internal/repository"
	"github.com/JonnyWalker81/healthlog/backend/pkg/supabase"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

// idempotencyTTL bounds how long a replayed mutation returns its cached response
const idempotencyTTL = 24 * time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Override port from flag if provided
	if port != "" {
		cfg.Server.Port = port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting healthlog API server",
		logger.String("env", cfg.Server.Env),
		logger.String("version", version),
		logger.String("database_driver", cfg.Database.Driver),
	)

	database, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		return err
	}

	idempotencyRepo, closeRedis, err := newIdempotencyRepository(ctx, cfg, database)
	if err != nil {
		return err
	}
	defer closeRedis()

	hub := realtime.NewHub(cfg.Server.AllowedOrigins)
	defer hub.Close()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute, "api")
	defer limiter.Stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := handlers.NewRouter(handlers.RouterConfig{
		Env:            cfg.Server.Env,
		IsProduction:   cfg.IsProduction(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Verifier:       newTokenVerifier(cfg),
		Idempotency:    idempotencyRepo,
		Limiter:        limiter,
		Hub:            hub,
		DB:             database,
	}, buildServices(database, hub, blobs))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", logger.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// websockets are hijacked and ignored by Shutdown
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// newTokenVerifier verifies tokens locally when the JWT secret is known and
// falls back to asking Supabase
func newTokenVerifier(cfg *config.Config) middleware.TokenVerifier {
	if cfg.Auth.JWTSecret != "" {
		return middleware.NewJWTVerifier(cfg.Auth.JWTSecret)
	}
	logger.Info("verifying tokens against supabase", logger.String("url", cfg.Auth.SupabaseURL))
	return middleware.NewSupabaseVerifier(supabase.NewClient(cfg.Auth.SupabaseURL, cfg.Auth.ServiceKey))
}

// newIdempotencyRepository prefers Redis when configured and falls back to
// the SQL table
func newIdempotencyRepository(ctx context.Context, cfg *config.Config, database *sqlx.DB) (repository.IdempotencyRepository, func(), error) {
	if cfg.Redis.Addr == "" {
		return repository.NewIdempotencyRepository(database), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("idempotency keys stored in redis", logger.String("addr", cfg.Redis.Addr))
	return repository.NewRedisIdempotencyRepository(client, idempotencyTTL), func() { client.Close() }, nil
}
