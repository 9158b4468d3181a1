package authsdk

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Role
	}{
		{"ADMIN", RoleAdmin},
		{"admin", RoleAdmin},
		{" Moderator ", RoleModerator},
		{"USER", RoleUser},
		{"", RoleUser},
		{"superuser", RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, NormalizeRole(tt.in))
		})
	}
}

func TestRole_AtLeast(t *testing.T) {
	t.Parallel()

	require.True(t, RoleAdmin.AtLeast(RoleModerator))
	require.True(t, RoleModerator.AtLeast(RoleModerator))
	require.False(t, RoleUser.AtLeast(RoleModerator))
	require.False(t, RoleModerator.AtLeast(RoleAdmin))
}

func TestRole_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var holder struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"admin"}`), &holder))
	require.Equal(t, RoleAdmin, holder.Role)

	require.NoError(t, json.Unmarshal([]byte(`{"role":"janitor"}`), &holder))
	require.Equal(t, RoleUser, holder.Role)
}

func TestSignInState_UnmarshalText(t *testing.T) {
	t.Parallel()

	var s SignInState
	require.NoError(t, s.UnmarshalText([]byte("2FA")))
	require.Equal(t, StateTwoFactorPending, s)
	require.Error(t, s.UnmarshalText([]byte("pending")))
	require.Equal(t, StateTwoFactorPending, s)
}
