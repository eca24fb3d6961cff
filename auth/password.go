package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/boulodrome/clubhouse/internal/util"
)

const bcryptCost = 12

// HashPassword returns a bcrypt hash (cost 12) of the NFKD-normalized
// password. Normalization keeps a passphrase typed on different platforms
// comparable byte for byte.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(util.Normalize(password)), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword returns nil if password matches hash.
func CheckPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(util.Normalize(password)))
}

var (
	decoyOnce sync.Once
	decoyHash string
)

// DecoyCheck burns the same bcrypt work as a real comparison and always
// fails. Called when the username is unknown so response timing does not
// reveal whether an account exists.
func DecoyCheck(password string) {
	decoyOnce.Do(func() {
		chars, err := util.RandomChars(32)
		if err != nil {
			chars = "fallback decoy credential"
		}
		decoyHash, _ = HashPassword(chars)
	})
	_ = CheckPassword(decoyHash, password)
}
