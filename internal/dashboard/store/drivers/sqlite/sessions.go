package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
)

type sessionsRepo struct {
	db *sql.DB
}

func (r *sessionsRepo) Get(ctx context.Context, id string) (domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRowContext(ctx,
		`SELECT session_id, expires_at, data FROM sessions WHERE session_id = ?`,
		id,
	).Scan(&s.ID, &s.ExpiresAt, &s.Data)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}
	return s, nil
}

func (r *sessionsRepo) Upsert(ctx context.Context, s domain.Session) error {
	// Single-statement upsert: two concurrent writers for a fresh id
	// both succeed and the row ends up holding the later write.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, expires_at, data)
		 VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET
		   expires_at = excluded.expires_at,
		   data = excluded.data`,
		s.ID, s.ExpiresAt.UTC(), s.Data,
	)
	return err
}

func (r *sessionsRepo) UpdateExpiry(ctx context.Context, id string, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET expires_at = ? WHERE session_id = ?`,
		expiresAt.UTC(), id,
	)
	return err
}

func (r *sessionsRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, id)
	return err
}

func (r *sessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, now.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
