package store

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/modconsole/internal/backend/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Sub-repositories are exposed as
// methods so a Tx-scoped Store cannot open a nested transaction by accident.
type Store interface {
	Users() Users
	RefreshTokens() RefreshTokens
	TwoFactorChallenges() TwoFactorChallenges

	ApplyMigrations() error

	// WithTx runs fn in a transaction. It commits when fn returns nil and
	// rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail matches case-insensitively.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser returns ErrAlreadyExists when the email or username is taken.
	CreateUser(ctx context.Context, u domain.User) error

	UpdateTOTPSecret(ctx context.Context, userID, secret string) error

	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByHash returns the row including revoked ones so reuse
	// can be detected.
	GetRefreshTokenByHash(ctx context.Context, hash string) (domain.RefreshToken, error)

	// RevokeRefreshToken marks one token revoked. ErrNotFound if it was
	// already revoked, which lets concurrent rotations detect each other.
	RevokeRefreshToken(ctx context.Context, hash string) error

	RevokeRefreshTokenFamily(ctx context.Context, familyID string) error

	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type TwoFactorChallenges interface {
	CreateChallenge(ctx context.Context, c domain.TwoFactorChallenge) error

	// GetChallengeByHash returns only unexpired challenges.
	GetChallengeByHash(ctx context.Context, hash string) (domain.TwoFactorChallenge, error)

	IncrementChallengeAttempts(ctx context.Context, hash string) (domain.TwoFactorChallenge, error)

	DeleteChallenge(ctx context.Context, hash string) error

	DeleteExpiredChallenges(ctx context.Context) error
}
