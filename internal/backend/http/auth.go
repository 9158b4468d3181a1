package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/modconsole/internal/backend/domain"
	"github.com/aussiebroadwan/modconsole/internal/backend/service"
	"github.com/aussiebroadwan/modconsole/pkg/authsdk"
	"github.com/aussiebroadwan/modconsole/pkg/httpx"
	"github.com/aussiebroadwan/modconsole/pkg/slogx"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 16 << 10

// AuthHandler serves the /api/auth endpoints consumed by the console SDK.
type AuthHandler struct {
	Auth   *service.AuthService
	Tokens *service.TokenService
}

// HandleSignIn handles POST /api/auth/signin
//
//	@Summary		Sign in
//	@Description	Checks email and password. Accounts with TOTP configured receive a two-factor token instead of tokens.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignInRequest	true	"Credentials"
//	@Success		200		{object}	authsdk.SignInResponse	"Token pair with role, or status=require2FA with twoFactorToken"
//	@Failure		400		{object}	httpx.ErrorBody			"Malformed request"
//	@Failure		401		{object}	httpx.ErrorBody			"Invalid credentials"
//	@Failure		429		{object}	httpx.ErrorBody			"Rate limited"
//	@Router			/api/auth/signin [post].
func (h *AuthHandler) HandleSignIn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.SignInRequest
	if err := httpx.DecodeJSON(r, maxBodyBytes, &req); err != nil || req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	res, err := h.Auth.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
			return
		}
		log.Error("sign-in failed", "err", err)
		writeServerError(w)
		return
	}

	if res.TwoFactorToken != "" {
		httpx.WriteJSON(w, http.StatusOK, authsdk.SignInResponse{
			Status:         "require2FA",
			TwoFactorToken: res.TwoFactorToken,
		})
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.SignInResponse{
		AccessToken:  res.Pair.AccessToken,
		RefreshToken: res.Pair.RefreshToken,
		User:         &authsdk.RoleHolder{Role: res.Pair.Role},
	})
}

// HandleSignUp handles POST /api/auth/signup
//
//	@Summary		Register
//	@Description	Creates a USER account and returns a token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.SignUpRequest		true	"Registration form"
//	@Success		200		{object}	authsdk.TokenPairResponse	"Token pair"
//	@Failure		400		{object}	httpx.ErrorBody				"Invalid email or password too short"
//	@Failure		409		{object}	httpx.ErrorBody				"Email already registered"
//	@Failure		429		{object}	httpx.ErrorBody				"Rate limited"
//	@Router			/api/auth/signup [post].
func (h *AuthHandler) HandleSignUp(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req authsdk.SignUpRequest
	if err := httpx.DecodeJSON(r, maxBodyBytes, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "Invalid JSON body")
		return
	}

	pair, err := h.Auth.SignUp(ctx, service.SignUpInput{
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	switch {
	case err == nil:
		writePair(w, pair)
	case errors.Is(err, service.ErrInvalidSignUp):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "A valid email and a password of at least 8 characters are required")
	case errors.Is(err, service.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email_taken", "An account with this email already exists")
	default:
		log.Error("sign-up failed", "err", err)
		writeServerError(w)
	}
}

// HandleValidateAccessToken handles GET /api/auth/validate/access-token
//
//	@Summary		Validate access token
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	StatusResponse	"Token is valid"
//	@Failure		401	{object}	httpx.ErrorBody	"Missing, invalid or expired token"
//	@Router			/api/auth/validate/access-token [get].
func (h *AuthHandler) HandleValidateAccessToken(w http.ResponseWriter, r *http.Request) {
	raw, ok := httpx.BearerToken(r)
	if !ok {
		httpx.WriteBearerError(w, "missing bearer token")
		return
	}
	if _, err := h.Tokens.ValidateAccessToken(raw); err != nil {
		slogx.FromContext(r.Context()).Debug("access token rejected", "err", err)
		httpx.WriteBearerError(w, "invalid or expired access token")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleRefreshToken handles POST /api/auth/validate/refresh-token
//
//	@Summary		Rotate refresh token
//	@Description	Exchanges the refresh token in the Authorization header for a new pair. The presented token is
//	@Description	revoked; presenting it again revokes every token descended from the same sign-in.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	authsdk.TokenPairResponse	"New token pair"
//	@Failure		401	{object}	httpx.ErrorBody				"Unknown, expired, revoked or reused refresh token"
//	@Router			/api/auth/validate/refresh-token [post].
func (h *AuthHandler) HandleRefreshToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, ok := httpx.BearerToken(r)
	if !ok {
		httpx.WriteBearerError(w, "missing refresh token")
		return
	}

	pair, err := h.Tokens.Refresh(ctx, raw)
	switch {
	case err == nil:
		writePair(w, pair)
	case errors.Is(err, service.ErrInvalidRefresh), errors.Is(err, service.ErrRefreshReuse):
		httpx.WriteBearerError(w, "invalid refresh token")
	default:
		slogx.FromContext(ctx).Error("refresh failed", "err", err)
		writeServerError(w)
	}
}

// HandleCheckTwoFactor handles GET /api/auth/validate/2fa
//
//	@Summary		Check two-factor challenge
//	@Description	Reports whether the two-factor token in the Authorization header can still be used.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	StatusResponse	"Challenge is live"
//	@Failure		401	{object}	httpx.ErrorBody	"Unknown, expired or exhausted challenge"
//	@Router			/api/auth/validate/2fa [get].
func (h *AuthHandler) HandleCheckTwoFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, _ := httpx.BearerToken(r)
	if err := h.Auth.CheckChallenge(ctx, raw); err != nil {
		if errors.Is(err, service.ErrInvalidChallenge) {
			httpx.WriteBearerError(w, "invalid two-factor token")
			return
		}
		slogx.FromContext(ctx).Error("two-factor check failed", "err", err)
		writeServerError(w)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// HandleVerifyTwoFactor handles POST /api/auth/validate/2fa
//
//	@Summary		Verify two-factor code
//	@Description	Exchanges the two-factor token and a 6-digit TOTP code for a token pair. A challenge allows 5 wrong codes.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authsdk.TwoFactorCodeRequest	true	"TOTP code"
//	@Success		200		{object}	authsdk.TwoFactorVerifyResponse	"Token pair with role"
//	@Failure		400		{object}	httpx.ErrorBody					"Wrong or malformed code"
//	@Failure		401		{object}	httpx.ErrorBody					"Unknown, expired or exhausted challenge"
//	@Failure		429		{object}	httpx.ErrorBody					"Rate limited"
//	@Router			/api/auth/validate/2fa [post].
func (h *AuthHandler) HandleVerifyTwoFactor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	raw, _ := httpx.BearerToken(r)

	var req authsdk.TwoFactorCodeRequest
	if err := httpx.DecodeJSON(r, maxBodyBytes, &req); err != nil || !authsdk.ValidCode(req.Code) {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_code", "A 6-digit code is required")
		return
	}

	pair, err := h.Auth.VerifyTwoFactor(ctx, raw, req.Code)
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, authsdk.TwoFactorVerifyResponse{
			AccessToken:  pair.AccessToken,
			RefreshToken: pair.RefreshToken,
			User:         &authsdk.RoleHolder{Role: pair.Role},
		})
	case errors.Is(err, service.ErrInvalidCode):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_code", "Invalid verification code")
	case errors.Is(err, service.ErrInvalidChallenge), errors.Is(err, service.ErrTooManyAttempts):
		httpx.WriteBearerError(w, "two-factor challenge expired, sign in again")
	default:
		log.Error("two-factor verification failed", "err", err)
		writeServerError(w)
	}
}

func writePair(w http.ResponseWriter, pair *domain.TokenPair) {
	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func writeServerError(w http.ResponseWriter) {
	httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
}
