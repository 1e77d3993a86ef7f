// Command foodlens-server is the self-contained development backend: it
// implements the analysis service's wire contract against a static
// classifier, so the client can be exercised without the real model.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/foodlens/internal/auth"
	"github.com/example/foodlens/internal/logging"
	"github.com/example/foodlens/internal/server"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger, err := logging.NewLogger()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	db := initDatabase(logger)
	repo := server.NewRepository(db, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	cache := initCache(ctx, logger)
	svc := server.NewAnalysisService(repo, cache, server.NewStaticClassifier(), logger)

	r := gin.Default()
	r.MaxMultipartMemory = server.MaxUploadSize

	var authMiddleware gin.HandlerFunc
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		authMiddleware = auth.JWTMiddleware(secret, os.Getenv("JWT_AUDIENCE"))
	}
	server.RegisterRoutes(r, svc, authMiddleware)

	httpServer := &http.Server{
		Addr:    getEnv("FOODLENS_ADDR", ":8000"),
		Handler: r,
	}

	logger.Info("foodlens dev backend listening", zap.String("addr", httpServer.Addr))
	if err := serveHTTPServer(httpServer, 15*time.Second, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func initDatabase(zapLogger *zap.Logger) *gorm.DB {
	path := getEnv("FOODLENS_DB", "foodlens-server.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		zapLogger.Fatal("failed to open database", zap.Error(err), zap.String("path", path))
	}
	return db
}

// initCache picks Redis when an address is configured, otherwise the
// in-process cache.
func initCache(ctx context.Context, zapLogger *zap.Logger) server.Cache {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return server.NewMemoryCache()
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(pingCtx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err), zap.String("addr", addr))
	}
	zapLogger.Info("using redis cache", zap.String("addr", addr))
	return server.NewRedisCache(client)
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil)
}

func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
