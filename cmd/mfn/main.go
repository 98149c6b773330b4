package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"mfn/internal/cli"
	apphttp "mfn/internal/http"
	"mfn/internal/log"
	"mfn/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger := cli.SetupLogger(cfg, log.ComponentApp)
	defer logger.Close()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	publisher := cli.InitPublisher(logger, cfg)

	ledger := services.NewLedger(repo, publisher, logger)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, ledger, logger)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting mfn server",
			log.FieldOperation, log.OpStartup,
			"port", cfg.Port,
			"sqlite_db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		_ = ledger.Close()
		_ = logger.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
