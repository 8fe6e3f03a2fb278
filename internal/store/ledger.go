package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"creatorbot/internal/models"
)

func marshalMeta(meta map[string]interface{}) string {
	if len(meta) == 0 {
		return "{}"
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// CreditLedger appends a ledger entry and applies the amount to the user's
// credits in one transaction. Negative amounts (spending) route the absolute
// value into the primary treasury.
func (s *Store) CreditLedger(ctx context.Context, userID int64, amount float64, event string, meta map[string]interface{}) error {
	now := nowMs()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ledger (user_id, event, amount, metadata, created_at_ms) VALUES (?,?,?,?,?)",
			userID, event, amount, marshalMeta(meta), now); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET credits = credits + ? WHERE id = ?", amount, userID); err != nil {
			return err
		}
		if amount < 0 {
			return adjustTreasuryTx(ctx, tx, models.PrimaryTreasury, -amount, now)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("credit ledger (user=%d event=%s): %w", userID, event, err)
	}
	return nil
}

// RecentLedger returns the newest ledger entries, capped at limit.
func (s *Store) RecentLedger(ctx context.Context, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, event, amount, metadata, created_at_ms FROM ledger ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		var createdMs int64
		if err := rows.Scan(&e.ID, &e.UserID, &e.Event, &e.Amount, &e.Metadata, &createdMs); err != nil {
			return nil, err
		}
		e.CreatedAt = msToTime(createdMs)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// PruneLedger removes ledger entries older than cutoff and reports how many went.
func (s *Store) PruneLedger(ctx context.Context, cutoff time.Time) (int64, error) {
	var n int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM ledger WHERE created_at_ms < ?", cutoff.UnixMilli())
		if err != nil {
			return err
		}
		n, err = res.RowsAffected()
		return err
	})
	return n, err
}

// RecordEarning appends a monetization record and credits the primary treasury.
func (s *Store) RecordEarning(ctx context.Context, source string, amount float64, meta map[string]interface{}) error {
	now := nowMs()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO earnings (source, amount, metadata, created_at_ms) VALUES (?,?,?,?)",
			source, amount, marshalMeta(meta), now); err != nil {
			return err
		}
		return adjustTreasuryTx(ctx, tx, models.PrimaryTreasury, amount, now)
	})
	if err != nil {
		return fmt.Errorf("record earning (source=%s): %w", source, err)
	}
	return nil
}

// RecentEarnings returns the newest earning records, capped at limit.
func (s *Store) RecentEarnings(ctx context.Context, limit int) ([]models.Earning, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, source, amount, metadata, created_at_ms FROM earnings ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var earnings []models.Earning
	for rows.Next() {
		var e models.Earning
		var createdMs int64
		if err := rows.Scan(&e.ID, &e.Source, &e.Amount, &e.Metadata, &createdMs); err != nil {
			return nil, err
		}
		e.CreatedAt = msToTime(createdMs)
		earnings = append(earnings, e)
	}
	return earnings, rows.Err()
}

// EarningsTotal sums all recorded earnings.
func (s *Store) EarningsTotal(ctx context.Context) (float64, error) {
	var total sql.NullFloat64
	err := s.db.QueryRowContext(ctx, "SELECT SUM(amount) FROM earnings").Scan(&total)
	return total.Float64, err
}
