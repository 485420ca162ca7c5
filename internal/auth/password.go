package auth

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength applies to passwords set through the API.
const MinPasswordLength = 8

var compareHash = bcrypt.CompareHashAndPassword

// dummyHash stands in for accounts that do not exist so a failed lookup
// costs the same bcrypt work as a wrong password.
var dummyHash = sync.OnceValue(func() []byte {
	b, err := bcrypt.GenerateFromPassword([]byte("eventory-no-such-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("hash dummy password: %v", err))
	}
	return b
})

func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// CheckPassword reports whether pw matches the bcrypt hash. An empty hash
// never matches but is still compared against a dummy hash.
func CheckPassword(hash, pw string) bool {
	if hash == "" {
		compareHash(dummyHash(), []byte(pw))
		return false
	}
	return compareHash([]byte(hash), []byte(pw)) == nil
}
