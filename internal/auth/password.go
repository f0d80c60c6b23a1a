package auth

import "golang.org/x/crypto/bcrypt"

// bcryptCost mirrors the ten salt rounds the stored hashes were minted with.
const bcryptCost = 10

// HashPassword produces a salted bcrypt hash of the plaintext.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext matches the stored hash.
// Malformed hashes compare as false rather than erroring.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
