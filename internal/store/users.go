package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"creatorbot/internal/models"
)

// ErrUserNotFound is returned when a Telegram ID has no account yet.
var ErrUserNotFound = errors.New("user not found")

func scanUser(row *sql.Row) (models.User, error) {
	var u models.User
	var premiumMs, createdMs int64
	err := row.Scan(&u.ID, &u.TgID, &u.FirstName, &u.Username, &u.Credits, &u.LastDaily, &premiumMs, &createdMs)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	u.PremiumUntil = msToTime(premiumMs)
	u.CreatedAt = msToTime(createdMs)
	return u, nil
}

const userColumns = "id, tg_id, first_name, username, credits, last_daily, premium_until_ms, created_at_ms"

// UserByID returns the user with the given internal row ID.
func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
	return scanUser(row)
}

// UserByTgID returns the user with the given Telegram ID.
func (s *Store) UserByTgID(ctx context.Context, tgID int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE tg_id = ?", tgID)
	return scanUser(row)
}

// CreateUser inserts a new user with the given starting credits and
// returns the stored row. Existing users are returned unchanged.
func (s *Store) CreateUser(ctx context.Context, tgID int64, firstName, username string, credits float64) (models.User, bool, error) {
	if u, err := s.UserByTgID(ctx, tgID); err == nil {
		return u, false, nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return models.User{}, false, err
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO users (tg_id, first_name, username, credits, created_at_ms) VALUES (?,?,?,?,?)",
			tgID, firstName, username, credits, nowMs())
		return err
	})
	if err != nil {
		return models.User{}, false, fmt.Errorf("create user %d: %w", tgID, err)
	}
	u, err := s.UserByTgID(ctx, tgID)
	return u, true, err
}

// AllUserIDs returns the internal IDs of every user.
func (s *Store) AllUserIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountUsers returns the number of registered users.
func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// SetLastDaily stamps the user's last daily-claim date (YYYY-MM-DD, UTC).
func (s *Store) SetLastDaily(ctx context.Context, tgID int64, day string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE users SET last_daily = ? WHERE tg_id = ?", day, tgID)
		return err
	})
}

// SetPremiumUntil updates the user's premium expiry.
func (s *Store) SetPremiumUntil(ctx context.Context, userID int64, until time.Time) error {
	ms := int64(0)
	if !until.IsZero() {
		ms = until.UnixMilli()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE users SET premium_until_ms = ? WHERE id = ?", ms, userID)
		return err
	})
}

// ExpiredPremiumUsers returns users whose premium period ended before now.
func (s *Store) ExpiredPremiumUsers(ctx context.Context, now time.Time) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE premium_until_ms > 0 AND premium_until_ms < ?",
		now.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		var premiumMs, createdMs int64
		if err := rows.Scan(&u.ID, &u.TgID, &u.FirstName, &u.Username, &u.Credits, &u.LastDaily, &premiumMs, &createdMs); err != nil {
			return nil, err
		}
		u.PremiumUntil = msToTime(premiumMs)
		u.CreatedAt = msToTime(createdMs)
		users = append(users, u)
	}
	return users, rows.Err()
}
