package domain

import "time"

// Roles understood by the console. Stored upper-case.
const (
	RoleUser      = "USER"
	RoleModerator = "MODERATOR"
	RoleAdmin     = "ADMIN"
)

type User struct {
	ID           string
	Email        string // unique, stored lower-case
	Username     string
	FirstName    string
	LastName     string
	Bio          string
	PasswordHash string // argon2 encoded
	Role         string
	TOTPSecret   string // base32; empty when 2FA is off
	Verified     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DisplayName joins first and last name, falling back to the username.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// RequiresTwoFactor reports whether sign-in must pass a TOTP challenge.
func (u User) RequiresTwoFactor() bool {
	return u.TOTPSecret != ""
}
