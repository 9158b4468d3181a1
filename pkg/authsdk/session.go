package authsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/sync/singleflight"
)

// refreshKey is the single singleflight key: there is one refresh token per
// session, so there is at most one refresh in flight.
const refreshKey = "refresh"

// Session drives the sign-in state machine over a TokenStore:
//
//	UNAUTHORIZED --SignIn(success)--> AUTHORIZED
//	UNAUTHORIZED --SignIn(require2FA)--> TWO_FACTOR_PENDING
//	TWO_FACTOR_PENDING --Verify2FA(success)--> AUTHORIZED
//	TWO_FACTOR_PENDING --ValidateTwoFactorToken(fail)--> UNAUTHORIZED
//	AUTHORIZED --ValidateAccessToken(fail, non-401)--> UNAUTHORIZED
//	AUTHORIZED --RequestNewAccessToken(fail)--> UNAUTHORIZED
//	ANY --SignOut--> UNAUTHORIZED
//
// Every operation absorbs its own failures: state stays consistent and the
// outcome is reported as an error value, never a panic. Session is safe for
// concurrent use.
type Session struct {
	client *SDKClient
	store  *TokenStore
	logger *slog.Logger

	refreshGroup singleflight.Group
}

// NewSession wires a Session to a client and a store.
func NewSession(client *SDKClient, store *TokenStore) *Session {
	return &Session{
		client: client,
		store:  store,
		logger: client.Logger().With("component", "session"),
	}
}

// Store returns the underlying TokenStore for read access and subscriptions.
func (s *Session) Store() *TokenStore { return s.store }

// Snapshot is shorthand for s.Store().Snapshot().
func (s *Session) Snapshot() Snapshot { return s.store.Snapshot() }

// Bootstrap confirms a session recovered at startup. With an access token it
// validates it, with only a refresh token it exchanges it, and with neither it
// does nothing.
func (s *Session) Bootstrap(ctx context.Context) error {
	snap := s.store.Snapshot()
	switch {
	case snap.AccessToken != "":
		return s.ValidateAccessToken(ctx)
	case snap.RefreshToken != "":
		return s.RequestNewAccessToken(ctx)
	default:
		return nil
	}
}

// ============================================================================
// Sign In / Sign Up / Sign Out
// ============================================================================

// SignIn submits credentials. On a direct success the session becomes
// AUTHORIZED; when the backend demands a second factor it becomes
// TWO_FACTOR_PENDING. A 401 yields ErrInvalidCredentials, anything else
// ErrServer or ErrNetwork; on failure the state is left unchanged.
//
// Calling SignIn while a challenge is pending restarts the challenge: the new
// response replaces the old two-factor token.
func (s *Session) SignIn(ctx context.Context, email, password string) (SignInState, error) {
	epoch := s.store.currentEpoch()

	var resp SignInResponse
	err := s.client.call(ctx, http.MethodPost, PathSignIn, "", SignInRequest{
		Email:    strings.TrimSpace(email),
		Password: password,
	}, &resp)
	if err != nil {
		if IsUnauthorized(err) {
			s.logger.Info("sign in rejected")
			return s.store.State(), fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
		}
		s.logger.Warn("sign in failed", "err", err)
		return s.store.State(), classify(err)
	}

	var apply func(*Snapshot)
	switch {
	case resp.RequiresTwoFactor():
		apply = setTwoFactorPending(resp.TwoFactorToken)
	case resp.User != nil:
		apply = setAuthorizedWithRole(resp.AccessToken, resp.RefreshToken, NormalizeRole(resp.User.Role))
	default:
		apply = setAuthorized(resp.AccessToken, resp.RefreshToken)
	}

	if !s.store.update(ctx, mutation{expectEpoch: &epoch, newLeg: true, apply: apply}) {
		return s.store.State(), ErrStale
	}

	state := s.store.State()
	s.logger.Info("signed in", "state", state)
	return state, nil
}

// SignUp registers a new account and, on success, signs it in.
func (s *Session) SignUp(ctx context.Context, req SignUpRequest) error {
	epoch := s.store.currentEpoch()

	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)

	var resp TokenPairResponse
	if err := s.client.call(ctx, http.MethodPost, PathSignUp, "", req, &resp); err != nil {
		s.logger.Warn("sign up failed", "err", err)
		return classify(err)
	}

	ok := s.store.update(ctx, mutation{
		expectEpoch: &epoch,
		newLeg:      true,
		apply:       setAuthorizedWithRole(resp.AccessToken, resp.RefreshToken, RoleUser),
	})
	if !ok {
		return ErrStale
	}

	s.logger.Info("signed up")
	return nil
}

// SignOut clears every credential locally. It is idempotent and makes no
// network call; server-side revocation is not part of this contract.
func (s *Session) SignOut(ctx context.Context) {
	s.store.update(ctx, mutation{newLeg: true, apply: clearAll})
	s.logger.Info("signed out")
}

// ============================================================================
// Two-Factor
// ============================================================================

// Verify2FA submits a 6-digit code for the pending challenge. On success the
// session becomes AUTHORIZED with the role the backend reports. On failure
// the state and the two-factor token are left untouched so the user can retry
// the same challenge.
func (s *Session) Verify2FA(ctx context.Context, code string) error {
	snap := s.store.Snapshot()
	if snap.TwoFactorToken == "" {
		return ErrNoTwoFactorToken
	}

	code = strings.TrimSpace(code)
	if !ValidCode(code) {
		return ErrInvalidCode
	}

	epoch := s.store.currentEpoch()

	var resp TwoFactorVerifyResponse
	err := s.client.call(ctx, http.MethodPost, PathTwoFactor, snap.TwoFactorToken, TwoFactorCodeRequest{Code: code}, &resp)
	if err != nil {
		s.logger.Info("two-factor verification failed", "err", err)
		return classify(err)
	}

	ok := s.store.update(ctx, mutation{
		expectEpoch: &epoch,
		newLeg:      true,
		apply:       setAuthorizedWithRole(resp.AccessToken, resp.RefreshToken, NormalizeRole(resp.User.Role)),
	})
	if !ok {
		return ErrStale
	}

	s.logger.Info("two-factor verified", "role", s.store.Role())
	return nil
}

// ValidateTwoFactorToken checks that the pending challenge is still live, for
// instance after a restart. Any non-OK outcome ends the challenge and returns
// the session to UNAUTHORIZED so sign-in starts over.
func (s *Session) ValidateTwoFactorToken(ctx context.Context) error {
	snap := s.store.Snapshot()
	if snap.TwoFactorToken == "" {
		return ErrNoTwoFactorToken
	}

	epoch := s.store.currentEpoch()

	err := s.client.call(ctx, http.MethodGet, PathTwoFactor, snap.TwoFactorToken, nil, nil)
	if err == nil {
		return nil
	}

	s.logger.Info("two-factor challenge no longer valid", "err", err)
	s.store.update(ctx, mutation{expectEpoch: &epoch, newLeg: true, apply: endTwoFactor})
	return classify(err)
}

// ============================================================================
// Access / Refresh Tokens
// ============================================================================

// ValidateAccessToken confirms the current access token with the backend. On
// OK the session is AUTHORIZED; on 401 (or with no access token at all) it
// falls through to RequestNewAccessToken; any other failure clears the session.
func (s *Session) ValidateAccessToken(ctx context.Context) error {
	snap := s.store.Snapshot()
	if snap.AccessToken == "" {
		return s.RequestNewAccessToken(ctx)
	}

	epoch := s.store.currentEpoch()

	err := s.client.call(ctx, http.MethodGet, PathValidateAccessToken, snap.AccessToken, nil, nil)
	switch {
	case err == nil:
		if !s.store.update(ctx, mutation{expectEpoch: &epoch, apply: setConfirmedAuthorized}) {
			return ErrStale
		}
		return nil
	case IsUnauthorized(err):
		s.logger.Debug("access token stale, refreshing")
		return s.RequestNewAccessToken(ctx)
	default:
		s.logger.Warn("access token validation failed", "err", err)
		s.store.update(ctx, mutation{expectEpoch: &epoch, newLeg: true, apply: clearAll})
		return classify(err)
	}
}

// RequestNewAccessToken exchanges the refresh token for a new pair. Refresh
// tokens rotate on every use, so concurrent callers share one in-flight
// exchange instead of racing each other with the same token. Any failure
// clears the session.
func (s *Session) RequestNewAccessToken(ctx context.Context) error {
	return s.coalescedRefresh(ctx, "")
}

// coalescedRefresh joins or starts the shared exchange. When usedToken is set
// and the store already holds a different access token by the time the
// exchange would start, someone else refreshed and the network is skipped.
func (s *Session) coalescedRefresh(ctx context.Context, usedToken string) error {
	ch := s.refreshGroup.DoChan(refreshKey, func() (any, error) {
		if usedToken != "" {
			if current := s.store.AccessToken(); current != "" && current != usedToken {
				return nil, nil
			}
		}
		// The shared exchange must not die with whichever caller started it.
		return nil, s.refresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrNetwork, ctx.Err())
	}
}

func (s *Session) refresh(ctx context.Context) error {
	snap := s.store.Snapshot()
	epoch := s.store.currentEpoch()

	if snap.RefreshToken == "" {
		s.store.update(ctx, mutation{expectEpoch: &epoch, newLeg: true, apply: clearAll})
		return ErrNoRefreshToken
	}

	var resp TokenPairResponse
	err := s.client.call(ctx, http.MethodPost, PathRefreshToken, snap.RefreshToken, nil, &resp)
	if err != nil {
		s.logger.Info("refresh failed, clearing session", "err", err)
		s.store.update(ctx, mutation{expectEpoch: &epoch, newLeg: true, apply: clearAll})
		return classify(err)
	}

	ok := s.store.update(ctx, mutation{
		expectEpoch: &epoch,
		apply:       setAuthorized(resp.AccessToken, resp.RefreshToken),
	})
	if !ok {
		return ErrStale
	}

	s.logger.Debug("access token refreshed")
	return nil
}

// refreshAfter refreshes unless another caller already replaced usedToken,
// in which case the current token is reused. It returns the token to retry
// with, or an error when the session could not be recovered.
func (s *Session) refreshAfter(ctx context.Context, usedToken string) (string, error) {
	if current := s.store.AccessToken(); current != "" && current != usedToken {
		return current, nil
	}

	if err := s.coalescedRefresh(ctx, usedToken); err != nil {
		return "", err
	}

	token := s.store.AccessToken()
	if token == "" {
		return "", ErrNoRefreshToken
	}
	return token, nil
}

// classify keeps typed errors intact and folds anything unexpected into ErrServer.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrServer), errors.Is(err, ErrUnauthorized):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrServer, err)
	}
}
