package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidRefresh     = errors.New("invalid_refresh_token")
	ErrRefreshReuse       = errors.New("refresh_token_reused")
	ErrInvalidChallenge   = errors.New("invalid_two_factor_token")
	ErrInvalidCode        = errors.New("invalid_code")
	ErrTooManyAttempts    = errors.New("too_many_attempts")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidSignUp      = errors.New("invalid_signup")
)
