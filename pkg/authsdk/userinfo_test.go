package authsdk

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUserInfoLoader(t *testing.T) {
	t.Parallel()

	t.Run("not signed in", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBackend(t)
		s := newTestSession(t, fb, nil)
		l := NewUserInfoLoader(s)
		defer l.Close()

		info, err := l.Fetch(context.Background())
		require.NoError(t, err)
		require.Nil(t, info)
		require.Zero(t, fb.callCount("GET "+PathUserInfo))
	})

	t.Run("loads and forgets on sign out", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBackend(t)
		s := signedIn(t, fb)
		l := NewUserInfoLoader(s)
		defer l.Close()

		info, err := l.Fetch(context.Background())
		require.NoError(t, err)
		require.Equal(t, "user@example.com", info.Email)
		require.Equal(t, "user", info.Username)
		require.False(t, l.Loading())
		require.Equal(t, info, l.Current())

		s.SignOut(context.Background())
		require.Nil(t, l.Current())
	})

	t.Run("refreshes an expired token", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBackend(t)
		s := signedIn(t, fb)
		fb.expireAccessTokens()

		info, err := s.GetUserInfo(context.Background())
		require.NoError(t, err)
		require.Equal(t, "user@example.com", info.Email)
		require.Equal(t, 1, fb.callCount("POST "+PathRefreshToken))
	})

	t.Run("rejects a profile without id", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBackend(t)
		s := signedIn(t, fb)
		fb.respondWith("GET "+PathUserInfo, `{"username":"ghost"}`)

		_, err := s.GetUserInfo(context.Background())
		require.ErrorIs(t, err, ErrServer)
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		fb := newFakeBackend(t)
		s := signedIn(t, fb)
		fb.fail("GET "+PathUserInfo, http.StatusInternalServerError)

		l := NewUserInfoLoader(s)
		defer l.Close()
		_, err := l.Fetch(context.Background())
		require.ErrorIs(t, err, ErrServer)
		require.Nil(t, l.Current())
	})
}
