package security

import (
	"golang.org/x/crypto/bcrypt"
)

// HashPassword computes a salted bcrypt hash of the plaintext. The cost factor
// is isolated here so it can change without touching call sites.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
