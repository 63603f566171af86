// Package password hashes admin passwords with bcrypt and verifies both bcrypt and argon2id digests.
package password

import (
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

const DefaultCost = 10

type Hasher interface {
	Hash(plain string) (string, error)
	Compare(plain, digest string) bool
}

type hasher struct {
	cost int
}

func New(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &hasher{cost: cost}
}

func (h *hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare accepts argon2id digests so accounts imported from other systems can still sign in.
func (h *hasher) Compare(plain, digest string) bool {
	if strings.HasPrefix(digest, "$argon2id$") {
		ok, err := argon2id.ComparePasswordAndHash(plain, digest)
		return err == nil && ok
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
