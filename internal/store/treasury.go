package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"creatorbot/internal/models"
)

// ErrInsufficientFunds is returned by TransferTreasury when the source
// balance cannot cover the amount.
var ErrInsufficientFunds = errors.New("insufficient funds in source treasury")

// ErrTreasuryNotFound is returned when the named treasury does not exist.
var ErrTreasuryNotFound = errors.New("treasury not found")

// adjustTreasuryTx adds delta to the named treasury, creating the row if missing.
func adjustTreasuryTx(ctx context.Context, tx *sql.Tx, name string, delta float64, now int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE treasury SET balance = balance + ? WHERE name = ?", delta, name)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO treasury (name, balance, metadata, created_at_ms) VALUES (?,?, '{}', ?)",
			name, delta, now)
	}
	return err
}

// AdjustTreasury adds delta to the named treasury.
func (s *Store) AdjustTreasury(ctx context.Context, name string, delta float64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return adjustTreasuryTx(ctx, tx, name, delta, nowMs())
	})
}

// TreasuryBalance returns the balance of the named treasury.
func (s *Store) TreasuryBalance(ctx context.Context, name string) (float64, error) {
	var balance float64
	err := s.db.QueryRowContext(ctx, "SELECT balance FROM treasury WHERE name = ?", name).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrTreasuryNotFound
	}
	return balance, err
}

// Treasuries lists all treasury buckets.
func (s *Store) Treasuries(ctx context.Context) ([]models.Treasury, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, balance, metadata, created_at_ms FROM treasury ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Treasury
	for rows.Next() {
		var t models.Treasury
		var createdMs int64
		if err := rows.Scan(&t.ID, &t.Name, &t.Balance, &t.Metadata, &createdMs); err != nil {
			return nil, err
		}
		t.CreatedAt = msToTime(createdMs)
		out = append(out, t)
	}
	return out, rows.Err()
}

// TransferTreasury moves amount between named treasuries and records the
// transfer as an admin action, all in one transaction.
func (s *Store) TransferTreasury(ctx context.Context, from, to string, amount float64, meta map[string]interface{}) error {
	if amount <= 0 {
		return fmt.Errorf("transfer amount must be positive, got %v", amount)
	}
	now := nowMs()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var balance float64
		err := tx.QueryRowContext(ctx, "SELECT balance FROM treasury WHERE name = ?", from).Scan(&balance)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrTreasuryNotFound, from)
		}
		if err != nil {
			return err
		}
		if balance < amount {
			return ErrInsufficientFunds
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE treasury SET balance = balance - ? WHERE name = ?", amount, from); err != nil {
			return err
		}
		if err := adjustTreasuryTx(ctx, tx, to, amount, now); err != nil {
			return err
		}
		transferMeta := map[string]interface{}{"from": from, "to": to, "amount": amount}
		for k, v := range meta {
			transferMeta[k] = v
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO admin_actions (action, metadata, created_at_ms) VALUES (?,?,?)",
			"transfer_treasury", marshalMeta(transferMeta), now)
		return err
	})
}

// AppendAdminAction records an admin operation or self-heal report.
func (s *Store) AppendAdminAction(ctx context.Context, action string, meta map[string]interface{}) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO admin_actions (action, metadata, created_at_ms) VALUES (?,?,?)",
			action, marshalMeta(meta), nowMs())
		return err
	})
}

// RecentAdminActions returns the newest admin actions, capped at limit.
func (s *Store) RecentAdminActions(ctx context.Context, limit int) ([]models.AdminAction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, action, metadata, created_at_ms FROM admin_actions ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []models.AdminAction
	for rows.Next() {
		var a models.AdminAction
		var createdMs int64
		if err := rows.Scan(&a.ID, &a.Action, &a.Metadata, &createdMs); err != nil {
			return nil, err
		}
		a.CreatedAt = msToTime(createdMs)
		actions = append(actions, a)
	}
	return actions, rows.Err()
}
