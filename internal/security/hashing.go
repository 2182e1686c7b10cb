package security

import (
	"errors"
	"strings"

	"github.com/matthewhartstonge/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Supported algorithms for new password hashes.
const (
	AlgoBcrypt   = "bcrypt"
	AlgoArgon2id = "argon2id"
)

// ErrPasswordMismatch is returned by Compare when the password does not match the hash.
var ErrPasswordMismatch = errors.New("password does not match")

// Hasher hashes and verifies passwords. New hashes use the configured algorithm;
// Compare accepts both bcrypt and argon2id hashes so the algorithm can be switched
// without invalidating stored passwords. Callers must not log or persist plaintext passwords.
type Hasher struct {
	Cost int
	Algo string
}

// NewHasher returns a bcrypt Hasher with the given cost (4–31). Cost 12 is a
// reasonable default for interactive login.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost, Algo: AlgoBcrypt}
}

// NewHasherWithAlgo returns a Hasher producing hashes with algo. Unknown values fall back to bcrypt.
func NewHasherWithAlgo(algo string, cost int) *Hasher {
	h := NewHasher(cost)
	if algo == AlgoArgon2id {
		h.Algo = AlgoArgon2id
	}
	return h
}

// Hash produces an encoded hash of password suitable for storage.
func (h *Hasher) Hash(password []byte) (string, error) {
	if h.Algo == AlgoArgon2id {
		cfg := argon2.DefaultConfig()
		encoded, err := cfg.HashEncoded(password)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
	b, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare verifies password against the stored hash. Returns nil if they match;
// ErrPasswordMismatch or a decoding error otherwise.
func (h *Hasher) Compare(hash string, password []byte) error {
	if strings.HasPrefix(hash, "$argon2") {
		ok, err := argon2.VerifyEncoded(password, []byte(hash))
		if err != nil {
			return err
		}
		if !ok {
			return ErrPasswordMismatch
		}
		return nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(hash), password)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrPasswordMismatch
	}
	return err
}
