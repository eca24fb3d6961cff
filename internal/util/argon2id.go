package util

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Minimum acceptable Argon2id parameters. The memory floor follows the OWASP
// password storage cheat sheet; anything below is rejected outright.
const (
	MinArgon2Time      uint32 = 2
	MinArgon2MemoryKiB uint32 = 19 * 1024
	MinArgon2Parallel  uint8  = 1
)

// Named KDF cost profiles, ordered by cost.
const (
	KDFProfileInteractive = "interactive"
	KDFProfileModerate    = "moderate"
	KDFProfileSensitive   = "sensitive"
)

type Argon2idParams struct {
	Time        uint32 `json:"time"`
	MemoryKiB   uint32 `json:"memory"`
	Parallelism uint8  `json:"parallelism"`
	KeyLen      uint32 `json:"key_len"`
}

func DefaultArgon2idParams() Argon2idParams {
	p, _ := Argon2idProfile(KDFProfileModerate)
	return p
}

// Argon2idProfile returns the parameters for a named cost profile.
func Argon2idProfile(name string) (Argon2idParams, error) {
	switch name {
	case KDFProfileInteractive:
		return Argon2idParams{Time: 2, MemoryKiB: 19 * 1024, Parallelism: 1, KeyLen: 32}, nil
	case KDFProfileModerate:
		return Argon2idParams{Time: 3, MemoryKiB: 64 * 1024, Parallelism: 4, KeyLen: 32}, nil
	case KDFProfileSensitive:
		return Argon2idParams{Time: 4, MemoryKiB: 128 * 1024, Parallelism: 4, KeyLen: 32}, nil
	default:
		return Argon2idParams{}, fmt.Errorf("unknown KDF profile %q", name)
	}
}

// ValidateArgon2idParams rejects parameter sets below the minimum floors.
func ValidateArgon2idParams(p Argon2idParams) error {
	if p.KeyLen != 32 {
		return fmt.Errorf("argon2id key length must be 32 bytes, got %d", p.KeyLen)
	}
	if p.Time < MinArgon2Time {
		return fmt.Errorf("argon2id time cost %d below minimum %d", p.Time, MinArgon2Time)
	}
	if p.MemoryKiB < MinArgon2MemoryKiB {
		return fmt.Errorf("argon2id memory cost %d KiB below minimum %d KiB", p.MemoryKiB, MinArgon2MemoryKiB)
	}
	if p.Parallelism < MinArgon2Parallel {
		return fmt.Errorf("argon2id parallelism %d below minimum %d", p.Parallelism, MinArgon2Parallel)
	}
	return nil
}

func DeriveArgon2idKey(passphrase string, salt []byte, params Argon2idParams) ([]byte, error) {
	if err := ValidateArgon2idParams(params); err != nil {
		return nil, err
	}
	key := argon2.IDKey([]byte(passphrase), salt, params.Time, params.MemoryKiB, params.Parallelism, params.KeyLen)
	return key, nil
}

func CompareArgon2idKey(passphrase string, salt []byte, params Argon2idParams, expectedKey []byte) (bool, error) {
	key, err := DeriveArgon2idKey(passphrase, salt, params)
	if err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(key, expectedKey) == 1, nil
}
