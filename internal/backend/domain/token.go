package domain

import "time"

// TokenPair is what a successful sign-in, sign-up, 2FA verification or
// refresh hands back: a short-lived JWT and an opaque refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	Role         string
}

// RefreshToken models the stored refresh token record. Every rotation creates
// a new row in the same family; presenting a revoked member revokes the family.
type RefreshToken struct {
	ID        string
	UserID    string
	FamilyID  string
	TokenHash string // base64url SHA-256 of the opaque value
	AMR       []string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// TwoFactorChallenge is a pending second factor created by sign-in.
type TwoFactorChallenge struct {
	ID        string
	UserID    string
	TokenHash string
	Attempts  int
	ExpiresAt time.Time
	CreatedAt time.Time
}
