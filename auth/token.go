package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boulodrome/clubhouse/internal/uuid"
	"github.com/boulodrome/clubhouse/keyring"
)

// TokenTTL is how long an issued auth token stays valid. There is no
// server-side revocation list; a stolen token works until this window
// closes, which is the accepted tradeoff of the stateless design.
const TokenTTL = 24 * time.Hour

var (
	// ErrTokenExpired means the token was well-formed and correctly signed
	// but its expiry has passed.
	ErrTokenExpired = errors.New("auth token expired")

	// ErrTokenMalformed means the value was not a parseable token at all.
	ErrTokenMalformed = errors.New("auth token malformed")

	// ErrBadSignature means the token did not verify against the server key.
	ErrBadSignature = errors.New("auth token signature invalid")

	// ErrTokenInvalid covers any other verification failure.
	ErrTokenInvalid = errors.New("auth token invalid")
)

// Claims is the payload carried by a signed auth token. The username rides
// in the registered subject claim.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role"`
}

// TokenService issues and verifies the signed tokens that represent a
// logged-in member, and wraps them for cookie transport.
type TokenService struct {
	keys *keyring.Keyring
	ttl  time.Duration
	now  func() time.Time
}

// TokenOption customizes a TokenService.
type TokenOption func(*TokenService)

// WithTTL overrides the token lifetime.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) {
		s.ttl = ttl
	}
}

// WithClock injects the time source used for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// NewTokenService returns a TokenService signing with the keyring's sign key.
func NewTokenService(keys *keyring.Keyring, opts ...TokenOption) *TokenService {
	s := &TokenService{
		keys: keys,
		ttl:  TokenTTL,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Issue signs a token for the principal, valid for the service TTL.
func (s *TokenService) Issue(p Principal) (string, error) {
	if p.Username == "" {
		return "", fmt.Errorf("principal username must not be empty")
	}
	if _, err := ParseRole(string(p.Role)); err != nil {
		return "", err
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.New(),
		},
		Email: p.Email,
		Role:  string(p.Role),
	}

	key, err := s.keys.SignKey()
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(key.Bytes())
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry, and claim shape. On any failure it
// returns a zero Principal and one of the sentinel errors above.
func (s *TokenService) Verify(tokenString string) (Principal, error) {
	key, err := s.keys.SignKey()
	if err != nil {
		return Principal{}, err
	}
	defer key.Destroy()

	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key.Bytes(), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Principal{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return Principal{}, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Principal{}, ErrBadSignature
		default:
			return Principal{}, ErrTokenInvalid
		}
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return Principal{}, ErrTokenInvalid
	}
	role, err := ParseRole(claims.Role)
	if err != nil {
		return Principal{}, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return Principal{}, ErrTokenInvalid
	}

	return Principal{
		Username: claims.Subject,
		Email:    claims.Email,
		Role:     role,
	}, nil
}
