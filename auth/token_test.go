package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boulodrome/clubhouse/internal/util"
	"github.com/boulodrome/clubhouse/keyring"
)

func testKeys(t *testing.T) *keyring.Keyring {
	t.Helper()
	keys, err := keyring.New(keyring.Config{
		AuthSecret: "token-test-auth-secret-012345678",
		CSRFSecret: "token-test-csrf-secret-012345678",
		KDFProfile: util.KDFProfileInteractive,
	})
	require.NoError(t, err)
	t.Cleanup(keys.Destroy)
	return keys
}

func TestIssueVerifyRoundtrip(t *testing.T) {
	svc := NewTokenService(testKeys(t))

	p := Principal{Username: "marcel", Email: "marcel@club.example", Role: RoleAdmin}
	signed, err := svc.Issue(p)
	require.NoError(t, err)
	require.NotEmpty(t, signed)

	got, err := svc.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestIssueRejectsBadPrincipals(t *testing.T) {
	svc := NewTokenService(testKeys(t))

	_, err := svc.Issue(Principal{Username: "", Role: RoleAdmin})
	require.Error(t, err)

	_, err = svc.Issue(Principal{Username: "marcel", Role: Role("superuser")})
	require.Error(t, err)
}

func TestVerifyExpired(t *testing.T) {
	keys := testKeys(t)
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	issuer := NewTokenService(keys, WithClock(func() time.Time { return issuedAt }))
	signed, err := issuer.Issue(Principal{Username: "marcel", Role: RoleEditor})
	require.NoError(t, err)

	// Within the 24h window the token verifies.
	fresh := NewTokenService(keys, WithClock(func() time.Time { return issuedAt.Add(23 * time.Hour) }))
	_, err = fresh.Verify(signed)
	require.NoError(t, err)

	// Past the window it fails with the expiry sentinel.
	stale := NewTokenService(keys, WithClock(func() time.Time { return issuedAt.Add(25 * time.Hour) }))
	_, err = stale.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestVerifyMalformed(t *testing.T) {
	svc := NewTokenService(testKeys(t))

	for _, tok := range []string{"", "garbage", "a.b", "a.b.c.d"} {
		_, err := svc.Verify(tok)
		assert.ErrorIs(t, err, ErrTokenMalformed, "token %q", tok)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	svc := NewTokenService(testKeys(t))
	signed, err := svc.Issue(Principal{Username: "marcel", Role: RoleAdmin})
	require.NoError(t, err)

	otherKeys, err := keyring.New(keyring.Config{
		AuthSecret: "a-different-auth-secret-01234567",
		CSRFSecret: "a-different-csrf-secret-01234567",
		KDFProfile: util.KDFProfileInteractive,
	})
	require.NoError(t, err)
	defer otherKeys.Destroy()

	other := NewTokenService(otherKeys)
	_, err = other.Verify(signed)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestVerifyRejectsUnknownRoleClaim(t *testing.T) {
	keys := testKeys(t)
	svc := NewTokenService(keys)

	// Craft a correctly signed token whose role is not a known value.
	key, err := keys.SignKey()
	require.NoError(t, err)
	defer key.Destroy()

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "marcel",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: "superuser",
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.Bytes())
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	keys := testKeys(t)
	svc := NewTokenService(keys)

	key, err := keys.SignKey()
	require.NoError(t, err)
	defer key.Destroy()

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Role: string(RoleAdmin),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key.Bytes())
	require.NoError(t, err)

	_, err = svc.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestWithTTL(t *testing.T) {
	keys := testKeys(t)
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	short := NewTokenService(keys,
		WithTTL(time.Minute),
		WithClock(func() time.Time { return issuedAt }))
	require.Equal(t, time.Minute, short.TTL())

	signed, err := short.Issue(Principal{Username: "marcel", Role: RoleAdmin})
	require.NoError(t, err)

	later := NewTokenService(keys, WithClock(func() time.Time { return issuedAt.Add(2 * time.Minute) }))
	_, err = later.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestWrapUnwrapCookie(t *testing.T) {
	svc := NewTokenService(testKeys(t))

	signed, err := svc.Issue(Principal{Username: "marcel", Role: RoleAdmin})
	require.NoError(t, err)

	env, err := svc.WrapForCookie(signed)
	require.NoError(t, err)
	require.NotEqual(t, signed, env)

	// Envelopes are nondeterministic but all open to the same token.
	env2, err := svc.WrapForCookie(signed)
	require.NoError(t, err)
	assert.NotEqual(t, env, env2)

	unwrapped, err := svc.UnwrapFromCookie(env)
	require.NoError(t, err)
	assert.Equal(t, signed, unwrapped)

	p, err := svc.Verify(unwrapped)
	require.NoError(t, err)
	assert.Equal(t, "marcel", p.Username)
}

func TestUnwrapCookieFailures(t *testing.T) {
	keys := testKeys(t)
	svc := NewTokenService(keys)

	signed, err := svc.Issue(Principal{Username: "marcel", Role: RoleAdmin})
	require.NoError(t, err)
	env, err := svc.WrapForCookie(signed)
	require.NoError(t, err)

	t.Run("Garbage", func(t *testing.T) {
		for _, v := range []string{"", "not-an-envelope", "abc:def", signed} {
			_, err := svc.UnwrapFromCookie(v)
			assert.ErrorIs(t, err, ErrEnvelopeInvalid, "value %q", v)
		}
	})

	t.Run("Tampered", func(t *testing.T) {
		last := env[len(env)-1]
		flipped := byte('0')
		if last == '0' {
			flipped = '1'
		}
		_, err := svc.UnwrapFromCookie(env[:len(env)-1] + string(flipped))
		assert.ErrorIs(t, err, ErrEnvelopeInvalid)
	})

	t.Run("WrongKey", func(t *testing.T) {
		otherKeys, err := keyring.New(keyring.Config{
			AuthSecret: "a-different-auth-secret-01234567",
			CSRFSecret: "a-different-csrf-secret-01234567",
			KDFProfile: util.KDFProfileInteractive,
		})
		require.NoError(t, err)
		defer otherKeys.Destroy()

		other := NewTokenService(otherKeys)
		_, err = other.UnwrapFromCookie(env)
		assert.ErrorIs(t, err, ErrEnvelopeInvalid)
	})
}
