package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/aussiebroadwan/modconsole/internal/backend/domain"
	"github.com/aussiebroadwan/modconsole/internal/backend/store"
	"github.com/aussiebroadwan/modconsole/pkg/cryptox"
	"github.com/aussiebroadwan/modconsole/pkg/idx"
	"github.com/aussiebroadwan/modconsole/pkg/slogx"
)

const (
	// DefaultChallengeTTL is how long a two-factor token stays usable.
	DefaultChallengeTTL = 5 * time.Minute

	// MaxTwoFactorAttempts is the number of wrong codes a challenge tolerates.
	MaxTwoFactorAttempts = 5

	minPasswordLength = 8
)

// SignInResult is either a token pair or a pending two-factor challenge.
type SignInResult struct {
	Pair           *domain.TokenPair
	TwoFactorToken string
}

// SignUpInput carries the registration form.
type SignUpInput struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type AuthService struct {
	Store        store.Store
	Tokens       *TokenService
	Hasher       *cryptox.PasswordHasher
	ChallengeTTL time.Duration
}

// dummyHash is verified against when the email is unknown so both failure
// paths cost the same argon2 work.
var dummyHash = sync.OnceValue(func() string {
	h, _ := cryptox.NewPasswordHasher("").Hash("not-a-real-password")
	return h
})

// SignIn checks credentials. Users with TOTP configured receive a challenge
// token instead of tokens.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	l := slogx.FromContext(ctx)

	u, err := s.Store.Users().GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.Hasher.Verify(password, dummyHash())
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		l.Info("sign-in rejected", "user_id", u.ID)
		return nil, ErrInvalidCredentials
	}

	if u.RequiresTwoFactor() {
		token, err := s.openChallenge(ctx, u)
		if err != nil {
			return nil, err
		}
		l.Info("two-factor challenge issued", "user_id", u.ID)
		return &SignInResult{TwoFactorToken: token}, nil
	}

	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		pair, err = s.Tokens.IssuePair(ctx, tx, u, []string{AMRPassword})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &SignInResult{Pair: pair}, nil
}

func (s *AuthService) openChallenge(ctx context.Context, u domain.User) (string, error) {
	token, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", err
	}

	ttl := s.ChallengeTTL
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}

	err = s.Store.TwoFactorChallenges().CreateChallenge(ctx, domain.TwoFactorChallenge{
		ID:        idx.New().String(),
		UserID:    u.ID,
		TokenHash: cryptox.FingerprintToken(token),
		ExpiresAt: time.Now().Add(ttl),
	})
	if err != nil {
		return "", err
	}
	return token, nil
}

// CheckChallenge reports whether a two-factor token is still usable.
func (s *AuthService) CheckChallenge(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidChallenge
	}
	c, err := s.Store.TwoFactorChallenges().GetChallengeByHash(ctx, cryptox.FingerprintToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidChallenge
		}
		return err
	}
	if c.Attempts >= MaxTwoFactorAttempts {
		return ErrInvalidChallenge
	}
	return nil
}

// VerifyTwoFactor exchanges a challenge token and TOTP code for tokens. Each
// wrong code counts against the challenge; the last allowed failure deletes it.
func (s *AuthService) VerifyTwoFactor(ctx context.Context, token, code string) (*domain.TokenPair, error) {
	l := slogx.FromContext(ctx)
	if token == "" {
		return nil, ErrInvalidChallenge
	}
	hash := cryptox.FingerprintToken(token)

	c, err := s.Store.TwoFactorChallenges().GetChallengeByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidChallenge
		}
		return nil, err
	}
	if c.Attempts >= MaxTwoFactorAttempts {
		_ = s.Store.TwoFactorChallenges().DeleteChallenge(ctx, hash)
		return nil, ErrTooManyAttempts
	}

	u, err := s.Store.Users().GetUserByID(ctx, c.UserID)
	if err != nil {
		return nil, err
	}

	if !u.RequiresTwoFactor() || !totp.Validate(code, u.TOTPSecret) {
		updated, err := s.Store.TwoFactorChallenges().IncrementChallengeAttempts(ctx, hash)
		if err != nil {
			l.Error("failed to count two-factor attempt", "err", err)
			return nil, ErrInvalidCode
		}
		l.Warn("two-factor code rejected", "user_id", u.ID, "attempts", updated.Attempts)
		if updated.Attempts >= MaxTwoFactorAttempts {
			_ = s.Store.TwoFactorChallenges().DeleteChallenge(ctx, hash)
			return nil, ErrTooManyAttempts
		}
		return nil, ErrInvalidCode
	}

	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.TwoFactorChallenges().DeleteChallenge(ctx, hash); err != nil {
			return err
		}
		pair, err = s.Tokens.IssuePair(ctx, tx, u, []string{AMRPassword, AMROTP})
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// SignUp registers a USER and signs them in.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (*domain.TokenPair, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.TrimSpace(in.Username)
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, ErrInvalidSignUp
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrInvalidSignUp
	}
	if in.Username == "" {
		in.Username, _, _ = strings.Cut(in.Email, "@")
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	u := domain.User{
		ID:           idx.New().String(),
		Email:        in.Email,
		Username:     in.Username,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		PasswordHash: hash,
		Role:         domain.RoleUser,
	}

	var pair *domain.TokenPair
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailTaken
			}
			return err
		}
		pair, err = s.Tokens.IssuePair(ctx, tx, u, []string{AMRPassword})
		return err
	})
	if err != nil {
		return nil, err
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", u.ID)
	return pair, nil
}
