package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"goalstat/internal/budget"
	"goalstat/internal/fedstat"
	"goalstat/internal/httpapi"
	"goalstat/internal/ingest"
	"goalstat/internal/logging"
	"goalstat/internal/store/sqlite"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	dbPath := flag.String("db", "goalstat.db", "sqlite database path")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "console", "log format (console, json)")
	flag.Parse()

	cfg := logging.DefaultConfig()
	cfg.Level = *logLevel
	cfg.Format = *logFormat
	logger, err := logging.New(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(*addr, *dbPath, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(addr, dbPath string, logger *zap.Logger) error {
	st, err := sqlite.New(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	pipeline := ingest.NewPipeline(fedstat.New(logger), st, logger)
	api := httpapi.NewServer(pipeline, budget.NewFetcher(logger), st, logger)

	server := &http.Server{
		Addr:              addr,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
}
