package jwtx_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/modconsole/pkg/cryptox"
	"github.com/aussiebroadwan/modconsole/pkg/jwtx"
)

const exampleIssuer = "modconsole-test"

func newTestSigner(t *testing.T, kid string) *jwtx.EdDSASigner {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	require.Equal(t, kid, signer.KID())
	return signer
}

func TestEdDSASignAndVerify(t *testing.T) {
	signer := newTestSigner(t, "key-1")

	claims := jwtx.NewAccessClaims(
		"user-456",
		"modbot",
		"MODERATOR",
		[]string{"pwd", "otp"},
		5*time.Minute,
		exampleIssuer,
		[]string{"console"},
		time.Now().UTC(),
	)

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)
	verifier := jwtx.NewVerifierEdDSA(keys, exampleIssuer, []string{"console"}, 0)

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, claims.Subject, parsed.Subject)
	require.Equal(t, "MODERATOR", parsed.Role)
	require.Equal(t, "modbot", parsed.Username)
	require.ElementsMatch(t, claims.AMR, parsed.AMR)
	require.NotEmpty(t, parsed.ID)
}

func TestEdDSAVerifyFailures(t *testing.T) {
	signer := newTestSigner(t, "key-1")
	keys := jwtx.NewKeySet()
	keys.AddSigner(signer)

	sign := func(ttl time.Duration, issuer string) string {
		token, err := signer.Sign(jwtx.NewAccessClaims("u", "n", "USER", nil, ttl, issuer, nil, time.Now().UTC()))
		require.NoError(t, err)
		return token
	}

	t.Run("wrong issuer", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(keys, exampleIssuer, nil, 0)
		_, err := v.Verify(sign(time.Minute, "someone-else"))
		require.ErrorIs(t, err, jwtx.ErrIssuer)
	})

	t.Run("expired", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(keys, exampleIssuer, nil, 0)
		_, err := v.Verify(sign(-time.Minute, exampleIssuer))
		require.ErrorIs(t, err, jwtx.ErrExpired)
	})

	t.Run("unknown kid", func(t *testing.T) {
		other := newTestSigner(t, "key-2")
		token, err := other.Sign(jwtx.NewAccessClaims("u", "n", "USER", nil, time.Minute, exampleIssuer, nil, time.Now().UTC()))
		require.NoError(t, err)

		v := jwtx.NewVerifierEdDSA(keys, exampleIssuer, nil, 0)
		_, err = v.Verify(token)
		require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	})

	t.Run("tampered signature", func(t *testing.T) {
		token := sign(time.Minute, exampleIssuer)
		parts := strings.Split(token, ".")
		parts[1] = parts[1] + "x"

		v := jwtx.NewVerifierEdDSA(keys, exampleIssuer, nil, 0)
		_, err := v.Verify(strings.Join(parts, "."))
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})

	t.Run("garbage", func(t *testing.T) {
		v := jwtx.NewVerifierEdDSA(keys, exampleIssuer, nil, 0)
		_, err := v.Verify("not-a-jwt")
		require.ErrorIs(t, err, jwtx.ErrMalformed)
	})
}

func TestNewSignerEdDSA_RejectsBadPEM(t *testing.T) {
	_, err := jwtx.NewSignerEdDSA("k", []byte("nope"))
	require.Error(t, err)
}
