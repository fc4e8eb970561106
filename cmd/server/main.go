package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cashbook/docs"
	"cashbook/internal/app"
	"cashbook/internal/cache"
	"cashbook/internal/config"
	"cashbook/internal/db"
	"cashbook/internal/logging"
)

// @title Cashbook API
// @version 1.0
// @description Personal cashbook API: cookie sessions, sheets and transactions.
// @host localhost:5000
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name token
func main() {
	os.Exit(run())
}

func run() int {
	bootLog := logging.New(os.Stderr, "info", "text")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Error("load config", "error", err)
		return 1
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	gormDB, err := db.Open(db.Options{
		Driver: cfg.StoreDriver,
		DSN:    cfg.StoreDSN,
		DBName: cfg.DBName,
	})
	if err != nil {
		log.Error("database init", "error", err)
		return 1
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			log.Warn("database close", "error", err)
		}
	}()

	if err := db.Migrate(gormDB); err != nil {
		log.Error("database migrate", "error", err)
		return 1
	}

	cacheClient := cache.New(cache.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}, log)
	defer cacheClient.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, running without sheet cache and logout revocation", "addr", cfg.RedisAddr, "error", err)
	}
	cancel()

	e := app.New(cfg, log, gormDB, cacheClient)

	docs.SwaggerInfo.Host = swaggerHost(cfg)
	log.Info("swagger documentation available", "url", "http://"+docs.SwaggerInfo.Host+"/swagger/index.html")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.ServerPort
		log.Info("server listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error("server start", "error", err)
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
		return 1
	}
	log.Info("server stopped")
	return 0
}

// swaggerHost strips any scheme from SWAGGER_HOST; it defaults to the
// listen port on localhost.
func swaggerHost(cfg *config.Config) string {
	host := cfg.SwaggerHost
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimPrefix(host, "https://")
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	return host
}
