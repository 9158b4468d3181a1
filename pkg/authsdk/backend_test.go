package authsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// testAccount is a user known to the fake backend.
type testAccount struct {
	password   string
	role       string
	require2FA bool
}

// fakeBackend implements the console auth contract in memory. Refresh tokens
// rotate on every use, like the real backend.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	accounts  map[string]testAccount
	access    map[string]string // token -> email
	refresh   map[string]string // token -> email
	twoFactor map[string]string // token -> email
	code      string
	seq       int
	calls     map[string]int

	// failStatus forces a status for a route key ("POST /api/auth/signin").
	failStatus map[string]int
	// rawBody overrides the success body for a route key.
	rawBody map[string]string

	// resourceAlways401 makes /api/resource reject every token.
	resourceAlways401 bool
	resourceBodies    []string
	resourceHeaders   []http.Header

	// refreshGate, when set, blocks the refresh handler until it is closed.
	refreshGate    chan struct{}
	refreshStarted chan struct{}
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	fb := &fakeBackend{
		t: t,
		accounts: map[string]testAccount{
			"user@example.com":  {password: "hunter22", role: "USER"},
			"mod@example.com":   {password: "hunter22", role: "moderator", require2FA: true},
			"admin@example.com": {password: "hunter22", role: "ADMIN"},
		},
		access:     make(map[string]string),
		refresh:    make(map[string]string),
		twoFactor:  make(map[string]string),
		code:       "123456",
		calls:      make(map[string]int),
		failStatus: make(map[string]int),
		rawBody:    make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathSignIn, fb.handle(fb.signIn))
	mux.HandleFunc("POST "+PathSignUp, fb.handle(fb.signUp))
	mux.HandleFunc("GET "+PathValidateAccessToken, fb.handle(fb.validateAccess))
	mux.HandleFunc("POST "+PathRefreshToken, fb.handle(fb.refreshToken))
	mux.HandleFunc("GET "+PathTwoFactor, fb.handle(fb.validateTwoFactor))
	mux.HandleFunc("POST "+PathTwoFactor, fb.handle(fb.verifyTwoFactor))
	mux.HandleFunc("GET "+PathUserInfo, fb.handle(fb.userInfo))
	mux.HandleFunc("/api/resource", fb.handle(fb.resource))

	fb.srv = httptest.NewServer(mux)
	t.Cleanup(fb.srv.Close)

	return fb
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, body []byte)

func (fb *fakeBackend) handle(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		body, _ := io.ReadAll(r.Body)

		fb.mu.Lock()
		fb.calls[key]++
		status, fail := fb.failStatus[key]
		raw, hasRaw := fb.rawBody[key]
		fb.mu.Unlock()

		if fail {
			writeJSON(w, status, map[string]string{"error": "forced", "message": "forced failure"})
			return
		}
		if hasRaw {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = io.WriteString(w, raw)
			return
		}

		h(w, r, body)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "invalid token"})
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

// issuePairLocked mints a new token pair for email. fb.mu must be held.
func (fb *fakeBackend) issuePairLocked(email string) (string, string) {
	fb.seq++
	at := fmt.Sprintf("at-%d", fb.seq)
	rt := fmt.Sprintf("rt-%d", fb.seq)
	fb.access[at] = email
	fb.refresh[rt] = email
	return at, rt
}

func (fb *fakeBackend) signIn(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req SignInRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	acct, ok := fb.accounts[req.Email]
	if !ok || acct.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid_credentials", "message": "bad email or password"})
		return
	}

	if acct.require2FA {
		fb.seq++
		tok := fmt.Sprintf("tf-%d", fb.seq)
		fb.twoFactor[tok] = req.Email
		writeJSON(w, http.StatusOK, map[string]string{"status": "require2FA", "twoFactorToken": tok})
		return
	}

	at, rt := fb.issuePairLocked(req.Email)
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  at,
		"refreshToken": rt,
		"user":         map[string]string{"role": acct.role},
	})
}

func (fb *fakeBackend) signUp(w http.ResponseWriter, _ *http.Request, body []byte) {
	var req SignUpRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "bad_request"})
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if _, exists := fb.accounts[req.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "conflict", "message": "email taken"})
		return
	}
	fb.accounts[req.Email] = testAccount{password: req.Password, role: "USER"}

	at, rt := fb.issuePairLocked(req.Email)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": at, "refreshToken": rt})
}

func (fb *fakeBackend) validateAccess(w http.ResponseWriter, r *http.Request, _ []byte) {
	fb.mu.Lock()
	_, ok := fb.access[bearer(r)]
	fb.mu.Unlock()

	if !ok {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (fb *fakeBackend) refreshToken(w http.ResponseWriter, r *http.Request, _ []byte) {
	fb.mu.Lock()
	gate, started := fb.refreshGate, fb.refreshStarted
	fb.mu.Unlock()

	if started != nil {
		select {
		case started <- struct{}{}:
		default:
		}
	}
	if gate != nil {
		<-gate
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	tok := bearer(r)
	email, ok := fb.refresh[tok]
	if !ok {
		unauthorized(w)
		return
	}
	delete(fb.refresh, tok)

	at, rt := fb.issuePairLocked(email)
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": at, "refreshToken": rt})
}

func (fb *fakeBackend) validateTwoFactor(w http.ResponseWriter, r *http.Request, _ []byte) {
	fb.mu.Lock()
	_, ok := fb.twoFactor[bearer(r)]
	fb.mu.Unlock()

	if !ok {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (fb *fakeBackend) verifyTwoFactor(w http.ResponseWriter, r *http.Request, body []byte) {
	var req TwoFactorCodeRequest
	_ = json.Unmarshal(body, &req)

	fb.mu.Lock()
	defer fb.mu.Unlock()

	tok := bearer(r)
	email, ok := fb.twoFactor[tok]
	if !ok {
		unauthorized(w)
		return
	}
	if req.Code != fb.code {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_code", "message": "wrong code"})
		return
	}
	delete(fb.twoFactor, tok)

	at, rt := fb.issuePairLocked(email)
	writeJSON(w, http.StatusOK, map[string]any{
		"accessToken":  at,
		"refreshToken": rt,
		"user":         map[string]string{"role": fb.accounts[email].role},
	})
}

func (fb *fakeBackend) userInfo(w http.ResponseWriter, r *http.Request, _ []byte) {
	fb.mu.Lock()
	email, ok := fb.access[bearer(r)]
	fb.mu.Unlock()

	if !ok {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, UserInfo{
		UserID:      "u-" + email,
		Username:    strings.Split(email, "@")[0],
		Email:       email,
		DisplayName: "Test User",
		IsVerified:  true,
	})
}

func (fb *fakeBackend) resource(w http.ResponseWriter, r *http.Request, body []byte) {
	fb.mu.Lock()
	fb.resourceBodies = append(fb.resourceBodies, string(body))
	fb.resourceHeaders = append(fb.resourceHeaders, r.Header.Clone())
	_, ok := fb.access[bearer(r)]
	always := fb.resourceAlways401
	fb.mu.Unlock()

	if !ok || always {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"echo": string(body)})
}

// ============================================================================
// Helpers
// ============================================================================

func (fb *fakeBackend) callCount(key string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[key]
}

// expireAccessTokens invalidates every issued access token.
func (fb *fakeBackend) expireAccessTokens() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.access = make(map[string]string)
}

// revokeRefreshTokens invalidates every issued refresh token.
func (fb *fakeBackend) revokeRefreshTokens() {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.refresh = make(map[string]string)
}

func (fb *fakeBackend) fail(key string, status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.failStatus[key] = status
}

func (fb *fakeBackend) respondWith(key, raw string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.rawBody[key] = raw
}

// grantRefresh registers a refresh token as if it had been issued earlier.
func (fb *fakeBackend) grantRefresh(token, email string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.refresh[token] = email
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestSession wires a session to fb with the given persister.
func newTestSession(t *testing.T, fb *fakeBackend, persister Persister) *Session {
	t.Helper()

	client := NewSDKClient(Config{BaseURL: fb.srv.URL, Logger: testLogger()})
	store := NewTokenStore(context.Background(), persister, testLogger())
	return NewSession(client, store)
}

// signedIn returns a session that has completed a direct sign-in.
func signedIn(t *testing.T, fb *fakeBackend) *Session {
	t.Helper()

	s := newTestSession(t, fb, nil)
	state, err := s.SignIn(context.Background(), "user@example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, StateAuthorized, state)
	return s
}
