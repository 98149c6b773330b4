package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"mfn/internal/cli"
	"mfn/internal/log"
	"mfn/internal/services"
)

const usage = `mfn admin CLI - maintenance commands for the ledger database

Usage:
  mfn-admin <command> [options]

Commands:
  reset    Delete every wallet, category, card, debt and installment

Examples:
  # Empty the ledger configured by SQLITE_DB_PATH
  mfn-admin reset --yes
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(1)
	}

	switch command := os.Args[1]; command {
	case "reset":
		runReset(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Print(usage)
		os.Exit(1)
	}
}

func runReset(args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Confirm that all ledger data will be deleted")
	timeout := fs.Duration("timeout", 30*time.Second, "Timeout for the operation")
	_ = fs.Parse(args)

	if !*yes {
		fmt.Println("Refusing to reset without --yes")
		os.Exit(1)
	}

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()

	logger := cli.SetupLogger(cfg, log.ComponentApp)
	defer logger.Close()

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	ledger := services.NewLedger(repo, nil, logger)
	defer ledger.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := ledger.Reset(ctx); err != nil {
		logger.Error("Ledger reset failed", log.FieldError, err, "sqlite_db", cfg.SQLiteDBPath)
		_ = ledger.Close()
		_ = logger.Close()
		os.Exit(1)
	}
	logger.Info("Ledger reset", "sqlite_db", cfg.SQLiteDBPath)
	fmt.Printf("Ledger at %s is now empty\n", cfg.SQLiteDBPath)
}
