package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/aussiebroadwan/modconsole/internal/backend/domain"
)

const challengeColumns = `id, user_id, token_hash, attempts, expires_at, created_at`

type challengesRepo struct {
	db dbtx
}

func scanChallenge(row *sql.Row) (domain.TwoFactorChallenge, error) {
	var c domain.TwoFactorChallenge
	if err := row.Scan(&c.ID, &c.UserID, &c.TokenHash, &c.Attempts, &c.ExpiresAt, &c.CreatedAt); err != nil {
		return domain.TwoFactorChallenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *challengesRepo) CreateChallenge(ctx context.Context, c domain.TwoFactorChallenge) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO two_factor_challenges (id, user_id, token_hash, attempts, expires_at, created_at)
		VALUES (?, ?, ?, 0, ?, ?)`,
		c.ID, c.UserID, c.TokenHash, utc(c.ExpiresAt), utc(time.Now()),
	)
	return mapConstraint(err)
}

func (r *challengesRepo) GetChallengeByHash(ctx context.Context, hash string) (domain.TwoFactorChallenge, error) {
	return scanChallenge(r.db.QueryRowContext(ctx,
		`SELECT `+challengeColumns+` FROM two_factor_challenges WHERE token_hash = ? AND expires_at > ?`,
		hash, utc(time.Now())))
}

func (r *challengesRepo) IncrementChallengeAttempts(ctx context.Context, hash string) (domain.TwoFactorChallenge, error) {
	return scanChallenge(r.db.QueryRowContext(ctx,
		`UPDATE two_factor_challenges SET attempts = attempts + 1 WHERE token_hash = ? RETURNING `+challengeColumns,
		hash))
}

func (r *challengesRepo) DeleteChallenge(ctx context.Context, hash string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM two_factor_challenges WHERE token_hash = ?`, hash)
	return err
}

func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM two_factor_challenges WHERE expires_at < ?`, utc(time.Now()))
	return err
}
