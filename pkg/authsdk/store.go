package authsdk

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// persistTimeout bounds each durable write so a slow backend cannot stall
// state transitions indefinitely.
const persistTimeout = 5 * time.Second

// Snapshot is an immutable copy of the TokenStore at one version.
type Snapshot struct {
	AccessToken    string
	RefreshToken   string
	TwoFactorToken string
	Role           Role
	State          SignInState

	// Version increases by one on every mutation.
	Version uint64
}

// IsAuthorized reports whether the session is in the AUTHORIZED state.
func (s Snapshot) IsAuthorized() bool { return s.State == StateAuthorized }

// IsTwoFactorPending reports whether a 2FA challenge is outstanding.
func (s Snapshot) IsTwoFactorPending() bool { return s.State == StateTwoFactorPending }

func (s Snapshot) persisted() PersistedState {
	return PersistedState{RefreshToken: s.RefreshToken, Role: s.Role}
}

// TokenStore holds the session credentials. It is a dumb, observable
// container: only Session mutates it, consumers read snapshots or subscribe.
//
// A store rehydrated with a refresh token starts UNAUTHORIZED while holding
// that token; Session.Bootstrap resolves it one way or the other.
type TokenStore struct {
	mu    sync.RWMutex
	snap  Snapshot
	epoch uint64

	persister Persister
	logger    *slog.Logger

	subsMu  sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int

	// pending queues snapshots in version order; whoever holds delivering
	// drains it.
	pendingMu  sync.Mutex
	pending    []Snapshot
	delivering sync.Mutex
}

// NewTokenStore creates a store and rehydrates the persisted subset. A nil
// persister keeps everything in memory. A failed load is logged and the
// store starts empty.
func NewTokenStore(ctx context.Context, persister Persister, logger *slog.Logger) *TokenStore {
	if persister == nil {
		persister = NewMemoryPersister(PersistedState{})
	}
	if logger == nil {
		logger = slog.Default()
	}

	ts := &TokenStore{
		snap: Snapshot{
			Role:  RoleUser,
			State: StateUnauthorized,
		},
		persister: persister,
		logger:    logger,
		subs:      make(map[int]func(Snapshot)),
	}

	saved, err := persister.Load(ctx)
	if err != nil {
		logger.Warn("session rehydrate failed", "err", err)
		return ts
	}

	ts.snap.RefreshToken = saved.RefreshToken
	ts.snap.Role = NormalizeRole(string(saved.Role))
	if saved.RefreshToken != "" {
		logger.Debug("session rehydrated", "role", ts.snap.Role)
	}

	return ts
}

// Snapshot returns the current credentials and state.
func (ts *TokenStore) Snapshot() Snapshot {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.snap
}

// Version returns the mutation counter.
func (ts *TokenStore) Version() uint64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.snap.Version
}

// State returns the current sign-in state.
func (ts *TokenStore) State() SignInState {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.snap.State
}

// Role returns the current role.
func (ts *TokenStore) Role() Role {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.snap.Role
}

// AccessToken returns the current access token, possibly empty.
func (ts *TokenStore) AccessToken() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.snap.AccessToken
}

// Subscribe registers fn to be called with the new snapshot after every
// mutation. Snapshots are delivered one at a time in Version order, outside
// the store lock, on one of the mutating goroutines. Callbacks may read the
// store or trigger further mutations but should not block.
func (ts *TokenStore) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	ts.subsMu.Lock()
	id := ts.nextSub
	ts.nextSub++
	ts.subs[id] = fn
	ts.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ts.subsMu.Lock()
			delete(ts.subs, id)
			ts.subsMu.Unlock()
		})
	}
}

// currentEpoch identifies the session leg. Network results computed under an
// older epoch are discarded.
func (ts *TokenStore) currentEpoch() uint64 {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.epoch
}

// mutation describes one state transition applied under the store lock.
type mutation struct {
	// expectEpoch, when non-nil, makes the transition conditional on the
	// session leg not having changed since it was read.
	expectEpoch *uint64

	// newLeg starts a new session leg (sign-in, sign-up, 2FA, sign-out).
	newLeg bool

	apply func(*Snapshot)
}

// update applies m and reports whether it took effect.
func (ts *TokenStore) update(ctx context.Context, m mutation) bool {
	ts.mu.Lock()
	if m.expectEpoch != nil && *m.expectEpoch != ts.epoch {
		ts.mu.Unlock()
		return false
	}

	m.apply(&ts.snap)
	if m.newLeg {
		ts.epoch++
	}
	ts.snap.Version++
	snap := ts.snap

	// Persisting and queueing under the lock keeps both in mutation order.
	ts.persist(ctx, snap)
	ts.pendingMu.Lock()
	ts.pending = append(ts.pending, snap)
	ts.pendingMu.Unlock()
	ts.mu.Unlock()

	ts.deliver()
	return true
}

// deliver drains the pending queue unless another goroutine already is. A
// mutation made from inside a callback is queued and picked up by the
// outer drain loop.
func (ts *TokenStore) deliver() {
	for {
		if !ts.delivering.TryLock() {
			return
		}
		for {
			snap, ok := ts.popPending()
			if !ok {
				break
			}
			ts.notify(snap)
		}
		ts.delivering.Unlock()

		// A snapshot queued between the last pop and Unlock has no drainer.
		ts.pendingMu.Lock()
		empty := len(ts.pending) == 0
		ts.pendingMu.Unlock()
		if empty {
			return
		}
	}
}

func (ts *TokenStore) popPending() (Snapshot, bool) {
	ts.pendingMu.Lock()
	defer ts.pendingMu.Unlock()
	if len(ts.pending) == 0 {
		return Snapshot{}, false
	}
	snap := ts.pending[0]
	ts.pending = ts.pending[1:]
	return snap, true
}

func (ts *TokenStore) persist(ctx context.Context, snap Snapshot) {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	var err error
	if p := snap.persisted(); p.IsZero() {
		err = ts.persister.Clear(pctx)
	} else {
		err = ts.persister.Save(pctx, p)
	}
	if err != nil {
		ts.logger.Warn("session persist failed", "version", snap.Version, "err", err)
	}
}

func (ts *TokenStore) notify(snap Snapshot) {
	ts.subsMu.Lock()
	fns := make([]func(Snapshot), 0, len(ts.subs))
	for _, fn := range ts.subs {
		fns = append(fns, fn)
	}
	ts.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// ============================================================================
// Transitions
// ============================================================================

func setAuthorized(accessToken, refreshToken string) func(*Snapshot) {
	return func(s *Snapshot) {
		s.AccessToken = accessToken
		s.RefreshToken = refreshToken
		s.TwoFactorToken = ""
		s.State = StateAuthorized
	}
}

func setAuthorizedWithRole(accessToken, refreshToken string, role Role) func(*Snapshot) {
	authorize := setAuthorized(accessToken, refreshToken)
	return func(s *Snapshot) {
		authorize(s)
		s.Role = role
	}
}

func setTwoFactorPending(twoFactorToken string) func(*Snapshot) {
	return func(s *Snapshot) {
		s.AccessToken = ""
		s.RefreshToken = ""
		s.TwoFactorToken = twoFactorToken
		s.Role = RoleUser
		s.State = StateTwoFactorPending
	}
}

func setConfirmedAuthorized(s *Snapshot) {
	s.State = StateAuthorized
}

func endTwoFactor(s *Snapshot) {
	s.TwoFactorToken = ""
	s.State = StateUnauthorized
}

func clearAll(s *Snapshot) {
	s.AccessToken = ""
	s.RefreshToken = ""
	s.TwoFactorToken = ""
	s.Role = RoleUser
	s.State = StateUnauthorized
}
