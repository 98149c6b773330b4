package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the ledger store. It is created once by the
// application root and shared by every service.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

// DSN builds the modernc.org/sqlite connection string for a database file.
func DSN(dbPath string) string {
	return "file:" + dbPath + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", DSN(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// One connection: every transaction runs alone, so a read-check-write
	// inside InTx cannot interleave with another writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Queries returns the non-transactional query set.
func (r *SQLiteRepository) Queries() *Queries {
	return r.queries
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// InTx runs fn inside one transaction. fn must only use the Queries it is
// given; the pool has a single connection.
func (r *SQLiteRepository) InTx(ctx context.Context, fn func(q *Queries) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(r.queries.WithTx(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Failed to roll back transaction", "error", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

var resetStatements = []string{
	"DELETE FROM credit_card_payment",
	"DELETE FROM credit_card_debt",
	"DELETE FROM credit_card",
	"DELETE FROM wallet_transaction",
	"DELETE FROM transfer",
	"DELETE FROM category",
	"DELETE FROM wallet",
}

// Reset deletes every row in the ledger, children first.
func (r *SQLiteRepository) Reset(ctx context.Context) error {
	return r.InTx(ctx, func(q *Queries) error {
		for _, stmt := range resetStatements {
			if _, err := q.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("reset ledger: %w", err)
			}
		}
		slog.InfoContext(ctx, "Ledger reset")
		return nil
	})
}
