package authsdk

import (
	"fmt"
	"strings"
)

// SignInState is the coarse session phase that every route guard reads.
type SignInState string

const (
	StateUnauthorized     SignInState = "unauthorized"
	StateTwoFactorPending SignInState = "2FA"
	StateAuthorized       SignInState = "authorized"
)

// String implements fmt.Stringer.
func (s SignInState) String() string { return string(s) }

// Valid reports whether s is one of the three known states.
func (s SignInState) Valid() bool {
	switch s {
	case StateUnauthorized, StateTwoFactorPending, StateAuthorized:
		return true
	}
	return false
}

// Role is the authorization tier used by downstream route guards.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

// NormalizeRole maps a backend role string onto a known Role, case-insensitively.
// Anything unrecognised (including the empty string) falls back to RoleUser.
func NormalizeRole(incoming string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(incoming))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleModerator:
		return RoleModerator
	default:
		return RoleUser
	}
}

// rank orders roles so guards can ask for a minimum tier.
func (r Role) rank() int {
	switch r {
	case RoleAdmin:
		return 2
	case RoleModerator:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether r grants at least the privileges of min.
func (r Role) AtLeast(minRole Role) bool {
	return r.rank() >= minRole.rank()
}

// UnmarshalText normalises roles read from persisted state or wire payloads.
func (r *Role) UnmarshalText(b []byte) error {
	*r = NormalizeRole(string(b))
	return nil
}

// UnmarshalText rejects states other than the three known ones.
func (s *SignInState) UnmarshalText(b []byte) error {
	v := SignInState(b)
	if !v.Valid() {
		return fmt.Errorf("authsdk: unknown sign-in state %q", string(b))
	}
	*s = v
	return nil
}
