package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/modconsole/pkg/authsdk"
)

func openTestStore(t *testing.T, path, namespace string) *Store {
	t.Helper()

	s, err := Open(path, namespace)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "session.db"), "")

	state, err := s.Load(ctx)
	require.NoError(t, err)
	require.True(t, state.IsZero())

	want := authsdk.PersistedState{RefreshToken: "rt-1", Role: authsdk.RoleModerator}
	require.NoError(t, s.Save(ctx, want))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, want, got)

	want.RefreshToken = "rt-2"
	require.NoError(t, s.Save(ctx, want))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "rt-2", got.RefreshToken)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestStore_ReopenAndNamespaces(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	first, err := Open(path, "prod")
	require.NoError(t, err)
	require.NoError(t, first.Save(ctx, authsdk.PersistedState{RefreshToken: "rt-prod", Role: authsdk.RoleAdmin}))
	require.NoError(t, first.Close())

	// Migrations are idempotent across reopen.
	prod := openTestStore(t, path, "prod")
	got, err := prod.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "rt-prod", got.RefreshToken)
	require.Equal(t, authsdk.RoleAdmin, got.Role)

	staging := openTestStore(t, path, "staging")
	got, err = staging.Load(ctx)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestStore_BacksTokenStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	s := openTestStore(t, path, "")
	require.NoError(t, s.Save(ctx, authsdk.PersistedState{RefreshToken: "rt", Role: "admin"}))

	ts := authsdk.NewTokenStore(ctx, s, nil)
	snap := ts.Snapshot()
	require.Equal(t, "rt", snap.RefreshToken)
	require.Equal(t, authsdk.RoleAdmin, snap.Role)
	require.Equal(t, authsdk.StateUnauthorized, snap.State)
}
