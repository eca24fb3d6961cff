// Package keyring holds the server-wide key material. The two configured
// secrets (auth token secret, CSRF secret) are stretched into fixed-length
// working keys at construction and sealed in memguard enclaves; nothing else
// in the process keeps a long-lived plaintext copy.
package keyring

import (
	"errors"
	"fmt"

	"github.com/awnumar/memguard"

	"github.com/boulodrome/clubhouse/internal/util"
)

// MinSecretLen is the minimum length in bytes for a configured secret.
const MinSecretLen = 16

// Derivation labels. These are versioned application constants, not secrets;
// changing one invalidates everything derived under it.
const (
	signKeyInfo  = "clubhouse.token-sign.v1"
	csrfKeyInfo  = "clubhouse.csrf-secret.v1"
	envelopeSalt = "clubhouse.cookie-envelope.v1"
)

// ErrDestroyed is returned when key material is requested after Destroy.
var ErrDestroyed = errors.New("keyring has been destroyed")

// Config carries the raw configured secrets.
type Config struct {
	// AuthSecret signs auth tokens and, through a memory-hard derivation,
	// encrypts cookie payloads.
	AuthSecret string

	// CSRFSecret keys the per-session CSRF secret derivation.
	CSRFSecret string

	// KDFProfile names the Argon2id cost profile for the cookie envelope
	// key. Empty selects the moderate profile.
	KDFProfile string
}

// Keyring is the set of derived working keys. Accessors return memguard
// LockedBuffers; callers must Destroy each buffer after use.
type Keyring struct {
	sign      *memguard.Enclave
	envelope  *memguard.Enclave
	csrf      *memguard.Enclave
	destroyed bool
}

// New derives the working keys from cfg and seals them.
//
// The token-signing and CSRF keys are cheap HKDF expansions of their secrets.
// The cookie envelope key is derived with Argon2id over the NFKD-normalized
// auth secret and a fixed application salt, so offline attacks against
// captured cookies pay the memory-hard cost once per guess. The derivation
// runs once here; per-request encryption reuses the sealed result.
func New(cfg Config) (*Keyring, error) {
	if len(cfg.AuthSecret) < MinSecretLen {
		return nil, fmt.Errorf("auth secret must be at least %d bytes", MinSecretLen)
	}
	if len(cfg.CSRFSecret) < MinSecretLen {
		return nil, fmt.Errorf("csrf secret must be at least %d bytes", MinSecretLen)
	}

	profile := cfg.KDFProfile
	if profile == "" {
		profile = util.KDFProfileModerate
	}
	params, err := util.Argon2idProfile(profile)
	if err != nil {
		return nil, err
	}

	signKey, err := util.HKDF([]byte(cfg.AuthSecret), nil, []byte(signKeyInfo))
	if err != nil {
		return nil, fmt.Errorf("deriving signing key: %w", err)
	}
	csrfKey, err := util.HKDF([]byte(cfg.CSRFSecret), nil, []byte(csrfKeyInfo))
	if err != nil {
		return nil, fmt.Errorf("deriving csrf key: %w", err)
	}
	envelopeKey, err := util.DeriveArgon2idKey(util.Normalize(cfg.AuthSecret), []byte(envelopeSalt), params)
	if err != nil {
		return nil, fmt.Errorf("deriving envelope key: %w", err)
	}

	// NewEnclave wipes the source slices.
	return &Keyring{
		sign:     memguard.NewEnclave(signKey),
		envelope: memguard.NewEnclave(envelopeKey),
		csrf:     memguard.NewEnclave(csrfKey),
	}, nil
}

// SignKey opens the HMAC key used to sign and verify auth tokens.
func (k *Keyring) SignKey() (*memguard.LockedBuffer, error) {
	return k.open(k.sign)
}

// EnvelopeKey opens the AES-256 key used to encrypt cookie payloads.
func (k *Keyring) EnvelopeKey() (*memguard.LockedBuffer, error) {
	return k.open(k.envelope)
}

// CSRFKey opens the HMAC key used to derive per-session CSRF secrets.
func (k *Keyring) CSRFKey() (*memguard.LockedBuffer, error) {
	return k.open(k.csrf)
}

func (k *Keyring) open(e *memguard.Enclave) (*memguard.LockedBuffer, error) {
	if k == nil || k.destroyed || e == nil {
		return nil, ErrDestroyed
	}
	buf, err := e.Open()
	if err != nil {
		return nil, fmt.Errorf("opening key enclave: %w", err)
	}
	return buf, nil
}

// Destroy drops the sealed keys. The Keyring must not be reused afterwards.
func (k *Keyring) Destroy() {
	if k == nil || k.destroyed {
		return
	}
	k.sign = nil
	k.envelope = nil
	k.csrf = nil
	k.destroyed = true
}
