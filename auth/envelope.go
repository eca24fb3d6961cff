package auth

import (
	"errors"

	"github.com/boulodrome/clubhouse/internal/util"
)

// ErrEnvelopeInvalid is returned when a cookie envelope cannot be opened:
// wrong key, truncation, tampering, or garbage that was never an envelope.
// Callers treat it as "no credential present" and clear the cookie; it is a
// routine outcome, not a server fault.
var ErrEnvelopeInvalid = errors.New("cookie envelope invalid")

// envelopeAAD binds cookie ciphertexts to their purpose so an envelope
// lifted from some other context never opens here.
const envelopeAAD = "clubhouse.auth-cookie.v1"

// WrapForCookie encrypts a signed token into the opaque envelope stored in
// the auth cookie. Browsers only ever see ciphertext; the signed token
// itself is never exposed to the client side.
func (s *TokenService) WrapForCookie(signed string) (string, error) {
	key, err := s.keys.EnvelopeKey()
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	return util.EncryptOpaqueWithAAD([]byte(signed), key.Bytes(), []byte(envelopeAAD))
}

// UnwrapFromCookie decrypts a cookie envelope back into the signed token.
// Any failure returns ErrEnvelopeInvalid without detail.
func (s *TokenService) UnwrapFromCookie(envelope string) (string, error) {
	key, err := s.keys.EnvelopeKey()
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	plaintext, err := util.DecryptOpaqueWithAAD(envelope, key.Bytes(), []byte(envelopeAAD))
	if err != nil {
		return "", ErrEnvelopeInvalid
	}
	return string(plaintext), nil
}
