package auth

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not characters.
const MaxPasswordBytes = 72

var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

func HashPassword(password string) (string, error) {
	if len(password) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares password against a bcrypt hash in constant time.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// burnPasswordCheck runs a comparison that always fails. Logins for unknown
// usernames call it so they take as long as a wrong password does.
func burnPasswordCheck(password string) {
	dummyOnce.Do(func() {
		h, err := HashPassword("not-a-real-password")
		if err == nil {
			dummyHash = h
		}
	})
	CheckPassword(password, dummyHash)
}
