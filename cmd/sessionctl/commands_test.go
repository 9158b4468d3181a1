package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/modconsole/internal/backend/app"
	"github.com/aussiebroadwan/modconsole/pkg/authsdk"
	"github.com/aussiebroadwan/modconsole/pkg/statestore/sqlitestore"
)

const totpSecret = "JBSWY3DPEHPK3PXP"

// newBackend starts the reference backend with a moderator that has two
// factor enabled.
func newBackend(t *testing.T) string {
	t.Helper()

	cfg := app.LoadConfig()
	cfg.DatabaseFile = filepath.Join(t.TempDir(), "backend.db")
	cfg.LogLevel = "error"
	cfg.Seed = app.SeedConfig{
		Email:      "mod@example.com",
		Password:   "hunter22",
		Role:       "MODERATOR",
		TOTPSecret: totpSecret,
	}

	application, err := app.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = application.Close() })

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(srv.Close)
	return srv.URL
}

// newTestCLI opens a session persisted in dbFile and feeds it input.
func newTestCLI(t *testing.T, baseURL, dbFile, input string) (*cli, *bytes.Buffer) {
	t.Helper()

	store, err := sqlitestore.Open("file:"+dbFile, "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	client := authsdk.NewSDKClient(authsdk.Config{BaseURL: baseURL})
	session := authsdk.NewSession(client, authsdk.NewTokenStore(context.Background(), store, nil))
	require.NoError(t, session.Bootstrap(context.Background()))

	var out bytes.Buffer
	return newCLI(session, strings.NewReader(input), &out), &out
}

func TestCLI_ShellTwoFactorFlow(t *testing.T) {
	t.Parallel()

	baseURL := newBackend(t)
	dbFile := filepath.Join(t.TempDir(), "session.db")

	code, err := totp.GenerateCode(totpSecret, time.Now())
	require.NoError(t, err)

	input := strings.Join([]string{
		"signin -email mod@example.com -password hunter22",
		"2fa 000",
		"2fa " + code,
		"status",
		"whoami",
		"quit",
	}, "\n")

	c, out := newTestCLI(t, baseURL, dbFile, input)
	require.NoError(t, c.dispatch(context.Background(), []string{"shell"}))

	got := out.String()
	require.Contains(t, got, "code rejected")
	require.Contains(t, got, "signed in as MODERATOR")
	require.Contains(t, got, "state:   authorized")
	require.Contains(t, got, "<mod@example.com>")

	// A new process restores the session from the file.
	c, out = newTestCLI(t, baseURL, dbFile, "")
	require.True(t, c.session.Snapshot().IsAuthorized())
	require.NoError(t, c.dispatch(context.Background(), []string{"whoami"}))
	require.Contains(t, out.String(), "mod@example.com")

	require.NoError(t, c.dispatch(context.Background(), []string{"signout"}))

	c, _ = newTestCLI(t, baseURL, dbFile, "")
	require.Equal(t, authsdk.StateUnauthorized, c.session.Snapshot().State)
	require.Empty(t, c.session.Snapshot().RefreshToken)
}

func TestCLI_SignInPromptsForCode(t *testing.T) {
	t.Parallel()

	baseURL := newBackend(t)
	code, err := totp.GenerateCode(totpSecret, time.Now())
	require.NoError(t, err)

	c, out := newTestCLI(t, baseURL, filepath.Join(t.TempDir(), "session.db"), "hunter22\n"+code+"\n")
	require.NoError(t, c.dispatch(context.Background(), []string{"signin", "-email", "mod@example.com"}))

	require.Contains(t, out.String(), "password: ")
	require.Contains(t, out.String(), "two-factor code: ")
	require.True(t, c.session.Snapshot().IsAuthorized())
}

func TestCLI_SignUpAndErrors(t *testing.T) {
	t.Parallel()

	baseURL := newBackend(t)
	c, out := newTestCLI(t, baseURL, filepath.Join(t.TempDir(), "session.db"), "")
	ctx := context.Background()

	require.ErrorIs(t, c.dispatch(ctx, []string{"bogus"}), errUsage)
	require.ErrorIs(t, c.dispatch(ctx, []string{"2fa"}), errUsage)
	require.ErrorIs(t, c.dispatch(ctx, []string{"2fa", "123456"}), authsdk.ErrNoTwoFactorToken)
	require.ErrorIs(t, c.dispatch(ctx, []string{"signup", "-email", "x@example.com"}), errUsage)
	require.Error(t, c.dispatch(ctx, []string{"whoami"}))

	err := c.dispatch(ctx, []string{"signin", "-email", "mod@example.com", "-password", "wrong"})
	require.ErrorIs(t, err, authsdk.ErrInvalidCredentials)
	require.EqualError(t, err, "Your username or password is incorrect")

	require.NoError(t, c.dispatch(ctx, []string{
		"signup", "-email", "new@example.com", "-password", "longenough", "-first", "New", "-last", "User",
	}))
	require.Contains(t, out.String(), "account created")
	require.Equal(t, authsdk.RoleUser, c.session.Snapshot().Role)

	require.NoError(t, c.dispatch(ctx, []string{"whoami"}))
	require.Contains(t, out.String(), "New User <new@example.com>")

	err = c.dispatch(ctx, []string{"signup", "-email", "new@example.com", "-password", "longenough"})
	require.ErrorIs(t, err, authsdk.ErrServer)
}

func TestCLI_SignInServerUnavailable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(nil)
	baseURL := srv.URL
	srv.Close()

	c, _ := newTestCLI(t, baseURL, filepath.Join(t.TempDir(), "session.db"), "")
	err := c.dispatch(context.Background(), []string{"signin", "-email", "mod@example.com", "-password", "hunter22"})

	require.ErrorIs(t, err, authsdk.ErrNetwork)
	require.EqualError(t, err, "500 Internal Server Error")
}
