package sqlite

import (
	"context"
	"database/sql"

	"github.com/Seldszar/nodecg/internal/dashboard/domain"
	"github.com/Seldszar/nodecg/internal/dashboard/store"
)

type tokensRepo struct {
	db *sql.DB
}

const tokenColumns = `id, provider, user_id, token, created_at, updated_at`

func (r *tokensRepo) GetByKey(ctx context.Context, provider, userID string) (domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE provider = ? AND user_id = ?`,
		provider, userID,
	)
	return scanToken(row)
}

func (r *tokensRepo) GetByValue(ctx context.Context, value string) (domain.Token, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+tokenColumns+` FROM tokens WHERE token = ?`,
		value,
	)
	return scanToken(row)
}

func (r *tokensRepo) Create(ctx context.Context, t domain.Token) error {
	// ON CONFLICT DO NOTHING keeps racing creators for the same
	// (provider, user_id) pair from producing two rows; the loser sees
	// zero rows affected and reports ErrAlreadyExists so the caller can
	// re-read the surviving row.
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tokens (provider, user_id, token, created_at, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		 ON CONFLICT(provider, user_id) DO NOTHING`,
		t.Provider, t.UserID, t.Value,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrAlreadyExists
	}
	return nil
}

func (r *tokensRepo) UpdateValue(ctx context.Context, oldValue, newValue string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE tokens SET token = ?, updated_at = CURRENT_TIMESTAMP WHERE token = ?`,
		newValue, oldValue,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *tokensRepo) DeleteByValue(ctx context.Context, value string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE token = ?`, value)
	return err
}

func scanToken(row *sql.Row) (domain.Token, error) {
	var t domain.Token
	err := row.Scan(&t.ID, &t.Provider, &t.UserID, &t.Value, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Token{}, mapNotFound(err)
	}
	return t, nil
}
