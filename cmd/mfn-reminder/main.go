package main

import (
	"mfn/internal/cli"
	"mfn/internal/log"
	"mfn/internal/services"
	"mfn/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	defer logger.Close()

	logger.Info("Starting mfn-reminder")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	publisher := cli.InitPublisher(logger, cfg)

	ledger := services.NewLedger(repo, publisher, logger)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", log.FieldError, err)
		}
	}()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	logger.Info("Installment reminders configured",
		"interval", cfg.ReminderInterval,
		"window", cfg.ReminderWindow,
		"sqlite_db", cfg.SQLiteDBPath)

	reminders := worker.NewReminderWorker(ledger.Debts, publisher, cfg.ReminderWindow, logger)
	reminders.Run(ctx, cfg.ReminderInterval)

	logger.Info("mfn-reminder stopped gracefully")
}
