package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boulodrome/clubhouse/internal/util"
)

func testConfig() Config {
	return Config{
		AuthSecret: "unit-test-auth-secret-0123456789",
		CSRFSecret: "unit-test-csrf-secret-0123456789",
		KDFProfile: util.KDFProfileInteractive,
	}
}

func TestNewRejectsShortSecrets(t *testing.T) {
	cfg := testConfig()
	cfg.AuthSecret = "short"
	_, err := New(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.CSRFSecret = "short"
	_, err = New(cfg)
	require.Error(t, err)
}

func TestNewRejectsUnknownProfile(t *testing.T) {
	cfg := testConfig()
	cfg.KDFProfile = "turbo"
	_, err := New(cfg)
	require.Error(t, err)
}

func TestKeysAreDistinctAndStable(t *testing.T) {
	k1, err := New(testConfig())
	require.NoError(t, err)
	defer k1.Destroy()

	sign, err := k1.SignKey()
	require.NoError(t, err)
	defer sign.Destroy()
	envelope, err := k1.EnvelopeKey()
	require.NoError(t, err)
	defer envelope.Destroy()
	csrf, err := k1.CSRFKey()
	require.NoError(t, err)
	defer csrf.Destroy()

	assert.Len(t, sign.Bytes(), 32)
	assert.Len(t, envelope.Bytes(), 32)
	assert.Len(t, csrf.Bytes(), 32)

	assert.NotEqual(t, sign.Bytes(), envelope.Bytes())
	assert.NotEqual(t, sign.Bytes(), csrf.Bytes())
	assert.NotEqual(t, envelope.Bytes(), csrf.Bytes())

	// Same config derives the same keys.
	k2, err := New(testConfig())
	require.NoError(t, err)
	defer k2.Destroy()

	sign2, err := k2.SignKey()
	require.NoError(t, err)
	defer sign2.Destroy()
	assert.Equal(t, sign.Bytes(), sign2.Bytes())

	envelope2, err := k2.EnvelopeKey()
	require.NoError(t, err)
	defer envelope2.Destroy()
	assert.Equal(t, envelope.Bytes(), envelope2.Bytes())
}

func TestDifferentSecretsDeriveDifferentKeys(t *testing.T) {
	k1, err := New(testConfig())
	require.NoError(t, err)
	defer k1.Destroy()

	cfg := testConfig()
	cfg.AuthSecret = "another-auth-secret-9876543210!!"
	k2, err := New(cfg)
	require.NoError(t, err)
	defer k2.Destroy()

	s1, err := k1.SignKey()
	require.NoError(t, err)
	defer s1.Destroy()
	s2, err := k2.SignKey()
	require.NoError(t, err)
	defer s2.Destroy()

	assert.NotEqual(t, s1.Bytes(), s2.Bytes())
}

func TestDestroy(t *testing.T) {
	k, err := New(testConfig())
	require.NoError(t, err)

	k.Destroy()
	_, err = k.SignKey()
	assert.ErrorIs(t, err, ErrDestroyed)
	_, err = k.EnvelopeKey()
	assert.ErrorIs(t, err, ErrDestroyed)
	_, err = k.CSRFKey()
	assert.ErrorIs(t, err, ErrDestroyed)

	// Destroy is idempotent.
	k.Destroy()
}
