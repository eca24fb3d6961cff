// Package csrf implements stateless synchronizer tokens. Each browser
// session carries a random identifier in a cookie; its CSRF secret is an
// HMAC of that identifier under a server key, derived on demand and never
// stored or transmitted. Tokens are a random nonce plus a truncated MAC
// bound to the secret, so any number of tokens can be outstanding for one
// session at a time and verification needs no server-side state.
package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/boulodrome/clubhouse/internal/util"
	"github.com/boulodrome/clubhouse/keyring"
)

// ErrInvalidToken is returned for any token that fails verification.
// Deliberately detail-free.
var ErrInvalidToken = errors.New("invalid csrf token")

const (
	// SessionIDBytes is the entropy of a session identifier.
	SessionIDBytes = 32

	nonceSize = 16
	macSize   = 16
)

// Engine derives per-session secrets and mints and checks tokens.
type Engine struct {
	keys *keyring.Keyring
}

func NewEngine(keys *keyring.Keyring) *Engine {
	return &Engine{keys: keys}
}

// NewSessionID mints the random identifier stored in the session cookie.
func (e *Engine) NewSessionID() (string, error) {
	return util.RandomID(SessionIDBytes)
}

// DeriveSecret maps a session identifier to its CSRF secret,
// HMAC-SHA256(serverKey, sessionID) in URL-safe base64. Deriving instead of
// storing means two sessions can never share a secret and nothing persists
// server side.
func (e *Engine) DeriveSecret(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("session id must not be empty")
	}
	key, err := e.keys.CSRFKey()
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	return util.DeriveHMACString(key.Bytes(), sessionID), nil
}

// IssueToken returns a fresh token bound to secret: a random nonce followed
// by a truncated HMAC of the nonce, URL-safe base64 encoded. Tokens do not
// expire on their own; they die when the session identifier rotates.
func (e *Engine) IssueToken(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("csrf secret must not be empty")
	}
	nonce, err := util.RandomBytes(nonceSize)
	if err != nil {
		return "", err
	}
	token := append(nonce, tokenMAC(secret, nonce)...)
	return base64.RawURLEncoding.EncodeToString(token), nil
}

// VerifyToken checks that token was issued for secret. Any failure, from
// base64 garbage to a MAC mismatch, returns ErrInvalidToken.
func (e *Engine) VerifyToken(secret, token string) error {
	if secret == "" || token == "" {
		return ErrInvalidToken
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return ErrInvalidToken
	}
	if len(data) != nonceSize+macSize {
		return ErrInvalidToken
	}
	nonce, mac := data[:nonceSize], data[nonceSize:]
	if !hmac.Equal(tokenMAC(secret, nonce), mac) {
		return ErrInvalidToken
	}
	return nil
}

// TokenForSession derives the session's secret and issues a token in one
// step.
func (e *Engine) TokenForSession(sessionID string) (string, error) {
	secret, err := e.DeriveSecret(sessionID)
	if err != nil {
		return "", err
	}
	return e.IssueToken(secret)
}

// ValidateForSession derives the session's secret and verifies token
// against it.
func (e *Engine) ValidateForSession(sessionID, token string) error {
	secret, err := e.DeriveSecret(sessionID)
	if err != nil {
		return ErrInvalidToken
	}
	return e.VerifyToken(secret, token)
}

func tokenMAC(secret string, nonce []byte) []byte {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(nonce)
	return h.Sum(nil)[:macSize]
}
