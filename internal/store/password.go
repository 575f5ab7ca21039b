package store

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashPassword appends the deployment-wide pepper before bcrypt hashing,
// so a leaked hash dump alone is not enough to brute force (§9).
func (s *Store) hashPassword(password string) (string, error) {
	if len(password) < s.security.MinPasswordLength {
		return "", fmt.Errorf("%w: password shorter than %d characters", ErrBadInput, s.security.MinPasswordLength)
	}
	cost := s.security.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password+s.security.Pepper), cost)
	if err != nil {
		return "", fmt.Errorf("store: failed to hash password: %w", err)
	}
	return string(hash), nil
}

// checkPassword reports whether password matches the stored hash.
func (s *Store) checkPassword(hash, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password+s.security.Pepper))
	return err == nil
}
