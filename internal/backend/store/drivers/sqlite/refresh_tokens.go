package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/aussiebroadwan/modconsole/internal/backend/domain"
)

type refreshTokensRepo struct {
	db dbtx
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO refresh_tokens (id, user_id, family_id, token_hash, amr, expires_at, revoked, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`,
		t.ID, t.UserID, t.FamilyID, t.TokenHash, strings.Join(t.AMR, " "), utc(t.ExpiresAt), utc(time.Now()),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error) {
	var (
		t   domain.RefreshToken
		amr string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, family_id, token_hash, amr, expires_at, revoked, created_at
		FROM refresh_tokens WHERE token_hash = ?`, hash,
	).Scan(&t.ID, &t.UserID, &t.FamilyID, &t.TokenHash, &amr, &t.ExpiresAt, &t.Revoked, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.AMR = splitAndFilter(amr)
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	return requireRow(r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ? AND revoked = 0`, hash))
}

func (r *refreshTokensRepo) RevokeRefreshTokenFamily(ctx context.Context, familyID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE family_id = ?`, familyID)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < ?`, utc(time.Now()))
	return err
}
