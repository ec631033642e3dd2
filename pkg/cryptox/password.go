package cryptox

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// BcryptCost is the work factor for stored password hashes. Existing hashes
// carry their own cost, so raising this only affects new hashes.
const BcryptCost = 10

// ErrPasswordTooLong is returned for inputs bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("cryptox: password exceeds 72 bytes")

// HashPassword returns a salted bcrypt hash of plain.
func HashPassword(plain string) (string, error) {
	if len(plain) > 72 {
		return "", ErrPasswordTooLong
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt: %w", err)
	}
	return string(h), nil
}

// VerifyPassword reports whether plain matches hash. A malformed hash never
// matches.
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// DummyHash is a valid bcrypt hash nobody knows the input of. Comparing
// against it lets unknown-account paths spend the same time as real ones.
var DummyHash = mustDummyHash()

func mustDummyHash() string {
	tok, err := GenerateToken(TokenSize256)
	if err != nil {
		panic(err)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(tok[:40]), BcryptCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}
