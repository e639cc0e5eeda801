// repository/token_repository.go
package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// TokenRepository stores each user's (encrypted) backend bearer token.
type TokenRepository interface {
	Get(ctx context.Context, userID int64) (string, bool, error)
	Upsert(ctx context.Context, userID int64, token string) error
	Remove(ctx context.Context, userID int64) error
	ListUserIDs(ctx context.Context) ([]int64, error)
}

type tokenRepository struct {
	db *sql.DB
}

func NewTokenRepository(db *sql.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Get(ctx context.Context, userID int64) (string, bool, error) {
	var token string
	query := "SELECT token FROM backend_tokens WHERE user_id = $1"
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&token)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		slog.Info(err.Error())
		return "", false, err
	}
	return token, true, nil
}

func (r *tokenRepository) Upsert(ctx context.Context, userID int64, token string) error {
	query := `
		INSERT INTO backend_tokens (user_id, token, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET token = $2, updated_at = $3
	`
	_, err := r.db.ExecContext(ctx, query, userID, token, time.Now())
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *tokenRepository) Remove(ctx context.Context, userID int64) error {
	query := `DELETE FROM backend_tokens WHERE user_id = $1`
	_, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *tokenRepository) ListUserIDs(ctx context.Context) ([]int64, error) {
	query := `SELECT user_id FROM backend_tokens`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
