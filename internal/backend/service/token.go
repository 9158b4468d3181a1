package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/aussiebroadwan/modconsole/internal/backend/domain"
	"github.com/aussiebroadwan/modconsole/internal/backend/store"
	"github.com/aussiebroadwan/modconsole/pkg/cryptox"
	"github.com/aussiebroadwan/modconsole/pkg/idx"
	"github.com/aussiebroadwan/modconsole/pkg/jwtx"
	"github.com/aussiebroadwan/modconsole/pkg/slogx"
)

// DefaultRefreshTokenTTL bounds how long a session survives without use.
const DefaultRefreshTokenTTL = 30 * 24 * time.Hour

// Authentication methods recorded in the "amr" claim.
const (
	AMRPassword = "pwd"
	AMROTP      = "otp"
)

type TokenService struct {
	Store      store.Store
	Signer     jwtx.Signer
	Verifier   jwtx.Verifier
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ValidateAccessToken verifies signature, issuer and expiry.
func (s *TokenService) ValidateAccessToken(raw string) (jwtx.Claims, error) {
	return s.Verifier.Verify(raw)
}

// IssuePair mints an access token and a new refresh token family for u. It
// must run inside tx so the refresh row commits with whatever created it.
func (s *TokenService) IssuePair(ctx context.Context, tx store.Tx, u domain.User, amr []string) (*domain.TokenPair, error) {
	return s.issue(ctx, tx, u, amr, idx.New().String())
}

func (s *TokenService) issue(
	ctx context.Context,
	tx store.Tx,
	u domain.User,
	amr []string,
	familyID string,
) (*domain.TokenPair, error) {
	now := s.now()

	access, err := s.Signer.Sign(jwtx.NewAccessClaims(
		u.ID,        // subject
		u.Username,  // username
		u.Role,      // role
		amr,         // authentication methods
		s.AccessTTL, // token lifetime
		s.Issuer,    // issuer
		nil,         // audience
		now,
	))
	if err != nil {
		return nil, err
	}

	refreshOpaque, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, err
	}

	if err := tx.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		ID:        idx.New().String(),
		UserID:    u.ID,
		FamilyID:  familyID,
		TokenHash: cryptox.FingerprintToken(refreshOpaque),
		AMR:       amr,
		ExpiresAt: now.Add(s.RefreshTTL),
	}); err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refreshOpaque,
		Role:         u.Role,
	}, nil
}

// Refresh rotates a refresh token. The presented token is revoked and a new
// one in the same family is returned. Presenting an already-revoked token
// revokes the entire family, ending every session derived from it.
func (s *TokenService) Refresh(ctx context.Context, refreshOpaque string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	if refreshOpaque == "" {
		return nil, ErrInvalidRefresh
	}
	fp := cryptox.FingerprintToken(refreshOpaque)

	var (
		pair      *domain.TokenPair
		reusedIn  string
		reuseUser string
	)
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		if rt.Revoked {
			reusedIn, reuseUser = rt.FamilyID, rt.UserID
			return tx.RefreshTokens().RevokeRefreshTokenFamily(ctx, rt.FamilyID)
		}
		if s.now().After(rt.ExpiresAt) {
			return ErrInvalidRefresh
		}

		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		u, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidRefresh
			}
			return err
		}

		amr := rt.AMR
		if len(amr) == 0 {
			amr = []string{AMRPassword}
		}
		pair, err = s.issue(ctx, tx, u, slices.Clone(amr), rt.FamilyID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if reusedIn != "" {
		l.Warn("refresh token reuse detected, family revoked", "user_id", reuseUser, "family_id", reusedIn)
		return nil, ErrRefreshReuse
	}
	return pair, nil
}
