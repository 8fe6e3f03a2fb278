package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"creatorbot/internal/models"
)

// ErrOrderNotFound is returned when an order ID is unknown.
var ErrOrderNotFound = errors.New("order not found")

// CreateOrder persists a new pending payment order.
func (s *Store) CreateOrder(ctx context.Context, o models.Order) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO orders (id, user_id, method, purpose, amount, status, link, created_at_ms) VALUES (?,?,?,?,?,?,?,?)",
			o.ID, o.UserID, o.Method, o.Purpose, o.Amount, o.Status, o.Link, nowMs())
		return err
	})
}

func scanOrder(row interface{ Scan(...interface{}) error }) (models.Order, error) {
	var o models.Order
	var createdMs int64
	err := row.Scan(&o.ID, &o.UserID, &o.Method, &o.Purpose, &o.Amount, &o.Status, &o.Link, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return models.Order{}, err
	}
	o.CreatedAt = msToTime(createdMs)
	return o, nil
}

const orderColumns = "id, user_id, method, purpose, amount, status, link, created_at_ms"

// OrderByID fetches a single order.
func (s *Store) OrderByID(ctx context.Context, id string) (models.Order, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)
	return scanOrder(row)
}

func settleOrderTx(ctx context.Context, tx *sql.Tx, id string) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET status = ? WHERE id = ? AND status = ?",
		models.OrderPaid, id, models.OrderPending)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// MarkOrderPaid flips a pending order to paid. Returns ErrOrderNotFound if
// the order does not exist or was already settled.
func (s *Store) MarkOrderPaid(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return settleOrderTx(ctx, tx, id)
	})
}

// SettleCreditOrder flips a pending order to paid and credits the paid amount
// to the user in one transaction. A failed settlement leaves the order
// pending so approval can be retried.
func (s *Store) SettleCreditOrder(ctx context.Context, orderID string, userID int64, amount float64, meta map[string]interface{}) error {
	now := nowMs()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := settleOrderTx(ctx, tx, orderID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO ledger (user_id, event, amount, metadata, created_at_ms) VALUES (?,?,?,?,?)",
			userID, models.EventOrderCredit, amount, marshalMeta(meta), now); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"UPDATE users SET credits = credits + ? WHERE id = ?", amount, userID)
		return err
	})
}

// SettlePremiumOrder flips a pending order to paid, sets the premium expiry
// and records the grant in the ledger, all in one transaction.
func (s *Store) SettlePremiumOrder(ctx context.Context, orderID string, userID int64, until time.Time, meta map[string]interface{}) error {
	now := nowMs()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := settleOrderTx(ctx, tx, orderID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE users SET premium_until_ms = ? WHERE id = ?", until.UnixMilli(), userID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO ledger (user_id, event, amount, metadata, created_at_ms) VALUES (?,?,0,?,?)",
			userID, models.EventPremiumGrant, marshalMeta(meta), now)
		return err
	})
}

// PendingOrders lists orders awaiting confirmation, oldest first.
func (s *Store) PendingOrders(ctx context.Context) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+orderColumns+" FROM orders WHERE status = ? ORDER BY created_at_ms", models.OrderPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
