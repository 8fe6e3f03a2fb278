package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"creatorbot/internal/logger"
	"creatorbot/internal/models"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// Store wraps the SQLite database holding users, ledger, earnings,
// treasury, admin actions and payment orders.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	// Serialized writes through a single connection keep SQLITE_BUSY rare.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: %s: %w", pragma, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migration failed: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tg_id INTEGER NOT NULL UNIQUE,
		first_name TEXT NOT NULL DEFAULT '',
		username TEXT NOT NULL DEFAULT '',
		credits REAL NOT NULL DEFAULT 0,
		last_daily TEXT NOT NULL DEFAULT '',
		premium_until_ms INTEGER NOT NULL DEFAULT 0,
		created_at_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		event TEXT NOT NULL,
		amount REAL NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_ledger_user ON ledger(user_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_created ON ledger(created_at_ms);

	CREATE TABLE IF NOT EXISTS earnings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		amount REAL NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS treasury (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		balance REAL NOT NULL DEFAULT 0,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS admin_actions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		created_at_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		method TEXT NOT NULL,
		purpose TEXT NOT NULL,
		amount REAL NOT NULL,
		status TEXT NOT NULL,
		link TEXT NOT NULL DEFAULT '',
		created_at_ms INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}

	// Seed the primary treasury.
	_, err = tx.Exec(
		"INSERT INTO treasury (name, balance, metadata, created_at_ms) VALUES (?, 0, '{}', ?) ON CONFLICT(name) DO NOTHING",
		models.PrimaryTreasury, nowMs(),
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

func nowMs() int64 { return time.Now().UnixMilli() }

func msToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

const (
	busyRetries = 5
	busyDelay   = 80 * time.Millisecond
)

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// withTx runs fn inside a transaction, retrying on SQLITE_BUSY with backoff.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	delay := busyDelay
	var err error
	for attempt := 0; attempt <= busyRetries; attempt++ {
		err = s.runTx(ctx, fn)
		if !isBusy(err) {
			return err
		}
		logger.Warn("store: database busy, retrying", map[string]interface{}{
			"attempt": attempt + 1, "delay": delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay = delay * 3 / 2
	}
	return err
}

func (s *Store) runTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
