package authsdk

import (
	"errors"
	"regexp"
	"strings"
)

// statusRequire2FA is the sign-in status value announcing a two-factor challenge.
const statusRequire2FA = "require2FA"

var twoFactorCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

var (
	errMissingAccessToken    = errors.New("accessToken is required")
	errMissingRefreshToken   = errors.New("refreshToken is required")
	errMissingTwoFactorToken = errors.New("twoFactorToken is required")
	errMissingUser           = errors.New("user is required")
	errMissingUserID         = errors.New("userId is required")
)

// validator is implemented by every payload decoded at the HTTP boundary.
type validator interface {
	Validate() error
}

// ============================================================================
// Internal Response Types (used for JSON unmarshaling)
// ============================================================================

// ErrorResponse is the error body the backend sends alongside non-2xx codes.
// Both the "message" and "error_description" spellings are accepted.
type ErrorResponse struct {
	Error            string `json:"error,omitempty"`
	Message          string `json:"message,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ============================================================================
// Request Types
// ============================================================================

// SignInRequest is the body of POST /api/auth/signin.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpRequest is the body of POST /api/auth/signup.
type SignUpRequest struct {
	Username  string `json:"username,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// TwoFactorCodeRequest is the body of POST /api/auth/validate/2fa.
type TwoFactorCodeRequest struct {
	Code string `json:"code"`
}

// ValidCode reports whether code looks like a 6-digit TOTP code.
func ValidCode(code string) bool {
	return twoFactorCodePattern.MatchString(code)
}

// ============================================================================
// Token Types
// ============================================================================

// RoleHolder carries the role the backend assigned to the user.
type RoleHolder struct {
	Role string `json:"role"`
}

// TokenPairResponse is returned by the sign-up and refresh endpoints.
type TokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Validate requires both tokens to be present.
func (t TokenPairResponse) Validate() error {
	if strings.TrimSpace(t.AccessToken) == "" {
		return errMissingAccessToken
	}
	if strings.TrimSpace(t.RefreshToken) == "" {
		return errMissingRefreshToken
	}
	return nil
}

// SignInResponse is returned by POST /api/auth/signin. It is either a token
// pair (optionally with the user's role) or a two-factor challenge.
type SignInResponse struct {
	Status         string      `json:"status,omitempty"`
	AccessToken    string      `json:"accessToken,omitempty"`
	RefreshToken   string      `json:"refreshToken,omitempty"`
	TwoFactorToken string      `json:"twoFactorToken,omitempty"`
	User           *RoleHolder `json:"user,omitempty"`
}

// RequiresTwoFactor reports whether the backend issued a 2FA challenge.
func (r SignInResponse) RequiresTwoFactor() bool {
	return r.Status == statusRequire2FA
}

// Validate checks the shape matching the announced status.
func (r SignInResponse) Validate() error {
	if r.RequiresTwoFactor() {
		if strings.TrimSpace(r.TwoFactorToken) == "" {
			return errMissingTwoFactorToken
		}
		return nil
	}
	return TokenPairResponse{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}.Validate()
}

// TwoFactorVerifyResponse is returned by POST /api/auth/validate/2fa.
type TwoFactorVerifyResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         *RoleHolder `json:"user"`
}

// Validate requires both tokens and the user object.
func (r TwoFactorVerifyResponse) Validate() error {
	if err := (TokenPairResponse{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}).Validate(); err != nil {
		return err
	}
	if r.User == nil {
		return errMissingUser
	}
	return nil
}

// ============================================================================
// User Types
// ============================================================================

// UserInfo is returned by GET /api/auth/user-info.
type UserInfo struct {
	UserID          string `json:"userId"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	DisplayName     string `json:"displayName"`
	Bio             string `json:"bio"`
	ProfileImageURL string `json:"profileImageUrl"`
	IsVerified      bool   `json:"isVerified"`
}

// Validate requires the user id; every other field may legitimately be empty.
func (u UserInfo) Validate() error {
	if strings.TrimSpace(u.UserID) == "" {
		return errMissingUserID
	}
	return nil
}
