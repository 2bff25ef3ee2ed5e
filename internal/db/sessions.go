package db

import (
	"context"
	"time"

	"github.com/video-stream/editor/internal/db/models"
)

// Session timestamps are stored as unix seconds so expiry comparisons are
// plain integer comparisons on every dialect.

func (d *Database) CreateSession(ctx context.Context, s *models.Session) error {
	_, err := d.db.ExecContext(ctx, d.rebind(
		"INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)"),
		s.ID, s.UserID, s.CreatedAt.Unix(), s.ExpiresAt.Unix(),
	)
	return mapError(err)
}

func (d *Database) GetSession(ctx context.Context, id string) (*models.Session, error) {
	s := &models.Session{}
	var created, expires int64
	err := d.db.QueryRowContext(ctx, d.rebind(
		"SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?"),
		id,
	).Scan(&s.ID, &s.UserID, &created, &expires)
	if err != nil {
		return nil, mapError(err)
	}
	s.CreatedAt = time.Unix(created, 0).UTC()
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	return s, nil
}

func (d *Database) DeleteSession(ctx context.Context, id string) error {
	_, err := d.db.ExecContext(ctx, d.rebind("DELETE FROM sessions WHERE id = ?"), id)
	return err
}

// DeleteExpiredSessions removes sessions whose expiry is at or before now.
func (d *Database) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx, d.rebind("DELETE FROM sessions WHERE expires_at <= ?"), now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
