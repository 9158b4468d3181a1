/*
Package authsdk is the client-side session manager of the moderation console.

# Overview

The package keeps the credentials of one signed-in user, drives the sign-in
state machine (including the two-factor challenge) and wraps outbound HTTP
requests so that an expired access token is refreshed transparently.

The package is organized around three types:

  - TokenStore: an observable container for the access, refresh and two-factor
    tokens, the user's role and the sign-in state
  - SDKClient: unauthenticated plumbing (base URL, bypass header, timeouts,
    response decoding)
  - Session: the operations that move the store between states

Wire them together once at startup:

	client := authsdk.NewSDKClient(authsdk.Config{BaseURL: "https://api.example.com"})
	store := authsdk.NewTokenStore(ctx, authsdk.NewFilePersister(path), logger)
	session := authsdk.NewSession(client, store)

	// Resolve a session recovered from disk.
	_ = session.Bootstrap(ctx)

# Sign In

	state, err := session.SignIn(ctx, email, password)
	switch {
	case err != nil:
		fmt.Println(authsdk.UserMessage(err))
	case state == authsdk.StateTwoFactorPending:
		err = session.Verify2FA(ctx, code)
	}

# Authorized Requests

Session.Fetch and Session.Do attach the current access token. A 401 triggers
exactly one refresh followed by one retry of the identical request; a failed
refresh signs the session out and hands back the original 401 response.
Concurrent refreshes are coalesced because the backend rotates refresh tokens
on every use.

	resp, err := session.Fetch(ctx, http.MethodGet, "/api/reports", nil, nil)

Session.HTTPClient returns an *http.Client with the same behaviour for code
that expects a plain client.

# Persistence

Only the refresh token and the role survive a restart. Implement Persister to
choose where they go; MemoryPersister and FilePersister are provided, and
the statestore packages add SQLite and Redis backed implementations.

# Consumers

UserInfoLoader caches the profile of the signed-in user and drops it on sign
out. LandingRoute, AllowProtected, AllowTwoFactor and AllowRole implement the
route guards of the console.
*/
package authsdk
