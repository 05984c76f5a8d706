package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/rl1809/stockroom/internal/adapter/handler"
	"github.com/rl1809/stockroom/internal/adapter/storage"
	"github.com/rl1809/stockroom/internal/config"
	"github.com/rl1809/stockroom/internal/core/service"
	"github.com/rl1809/stockroom/internal/obs"
	"github.com/rl1809/stockroom/internal/port"
)

// initTracer is swapped in tests.
var initTracer = obs.InitTracer

func main() {
	root := &cobra.Command{
		Use:           "server",
		Short:         "Stockroom inventory service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, config.Load())
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply MySQL schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			obs.InitLogger(cfg.LogLevel)

			db, err := storage.OpenMySQL(cmd.Context(), cfg.MySQLDSN)
			if err != nil {
				return err
			}
			if err := storage.MigrateMySQL(db.DB); err != nil {
				return err
			}
			obs.Logger.Info("migrations applied")
			return nil
		},
	}
}

func openStore(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	if cfg.StoreDriver == config.DriverSQLite {
		return storage.OpenSQLite(ctx, cfg.SQLitePath)
	}
	return storage.OpenMySQL(ctx, cfg.MySQLDSN)
}

func serve(ctx context.Context, cfg config.Config) error {
	obs.InitLogger(cfg.LogLevel)

	shutdownTracer, err := initTracer(ctx, cfg.OTLPEndpoint, cfg.ServiceName)
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracer(ctx); err != nil {
			obs.Logger.Warn("tracer shutdown", "err", err)
		}
	}()

	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	obs.Logger.Info("connected to store", "driver", cfg.StoreDriver)

	var cache port.CacheRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			PoolSize: 100,
		})
		defer rdb.Close()

		redisAdapter := storage.NewRedisAdapter(rdb)
		if err := redisAdapter.Ping(ctx); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		cache = redisAdapter
		obs.Logger.Info("connected to redis", "addr", cfg.RedisAddr)
	}

	inventory := service.NewInventoryService(storage.NewSQLAdapter(db), cache, otel.Tracer(cfg.ServiceName))

	grpcServer := handler.NewGRPCServer(handler.NewGRPCHandler(inventory))
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(inventory).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		obs.Logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()
	go func() {
		obs.Logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		obs.Logger.Info("shutting down")
	case serveErr = <-errCh:
		obs.Logger.Error("server failed", "err", serveErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		obs.Logger.Warn("http shutdown", "err", err)
	}
	obs.Logger.Info("HTTP server stopped")

	stopped := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcServer.Stop()
	}
	obs.Logger.Info("gRPC server stopped")

	return serveErr
}
