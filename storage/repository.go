// Package storage provides the persistence layer for club member accounts.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/boulodrome/clubhouse/internal/util"
)

// ErrNotFound is returned when no member exists under the requested username.
var ErrNotFound = errors.New("member not found")

// Member is a club account that can sign in. Only a handful exist per club;
// players who never log in are not members in this sense.
type Member struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// Repository defines the interface for member account storage. Usernames are
// the lookup key and must be passed through NormalizeUsername first; Put
// overwrites any existing account under the same username.
type Repository interface {
	GetMember(ctx context.Context, username string) (*Member, error)
	PutMember(ctx context.Context, member *Member) error
	DeleteMember(ctx context.Context, username string) error
	ListMembers(ctx context.Context) ([]*Member, error)
}

// NormalizeUsername folds a username to its canonical stored form: trimmed,
// NFKD-normalized, lowercased.
func NormalizeUsername(username string) string {
	return strings.ToLower(util.Normalize(strings.TrimSpace(username)))
}
