package authsdk

import (
	"context"
	"net/http"
	"sync"
)

// GetUserInfo retrieves the signed-in user's profile through the authorized
// request path, so an expired access token is refreshed transparently.
func (s *Session) GetUserInfo(ctx context.Context) (*UserInfo, error) {
	resp, err := s.Fetch(ctx, http.MethodGet, PathUserInfo, nil, nil)
	if err != nil {
		return nil, err
	}

	var info UserInfo
	if err := decodeJSON(resp, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// UserInfoLoader caches the profile of the signed-in user and forgets it as
// soon as the session leaves the AUTHORIZED state.
type UserInfoLoader struct {
	session *Session

	mu      sync.RWMutex
	info    *UserInfo
	loading bool

	unsubscribe func()
}

// NewUserInfoLoader subscribes a loader to the session's store. Call Close to
// detach it.
func NewUserInfoLoader(session *Session) *UserInfoLoader {
	l := &UserInfoLoader{session: session}
	l.unsubscribe = session.Store().Subscribe(func(snap Snapshot) {
		if !snap.IsAuthorized() {
			l.reset()
		}
	})
	return l
}

// Fetch loads the profile if the session is authorized. It is a no-op
// returning (nil, nil) otherwise.
func (l *UserInfoLoader) Fetch(ctx context.Context) (*UserInfo, error) {
	if !l.session.Snapshot().IsAuthorized() {
		return nil, nil
	}

	l.setLoading(true)
	defer l.setLoading(false)

	info, err := l.session.GetUserInfo(ctx)
	if err != nil {
		l.session.logger.Warn("failed to fetch user info", "err", err)
		return nil, err
	}

	// The session may have ended while the request was in flight.
	if !l.session.Snapshot().IsAuthorized() {
		return nil, ErrStale
	}

	l.mu.Lock()
	l.info = info
	l.mu.Unlock()

	return info, nil
}

// Current returns the cached profile, or nil.
func (l *UserInfoLoader) Current() *UserInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.info == nil {
		return nil
	}
	info := *l.info
	return &info
}

// Loading reports whether a Fetch is in progress.
func (l *UserInfoLoader) Loading() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loading
}

// Close detaches the loader from the store.
func (l *UserInfoLoader) Close() {
	l.unsubscribe()
}

func (l *UserInfoLoader) setLoading(v bool) {
	l.mu.Lock()
	l.loading = v
	l.mu.Unlock()
}

func (l *UserInfoLoader) reset() {
	l.mu.Lock()
	l.info = nil
	l.mu.Unlock()
}
