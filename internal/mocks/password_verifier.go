package mocks

import (
	"errors"
	"sync"
)

// MockPasswordVerifier implements auth.PasswordVerifier and auth.PasswordHasher
// with a reversible "hash" so tests avoid bcrypt's cost.
type MockPasswordVerifier struct {
	mu sync.Mutex

	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

const mockHashPrefix = "hashed:"

// Hash implements auth.PasswordHasher
func (m *MockPasswordVerifier) Hash(password string) (string, error) {
	return mockHashPrefix + password, nil
}

// Compare implements auth.PasswordVerifier
func (m *MockPasswordVerifier) Compare(hashedPassword, password string) error {
	m.mu.Lock()
	m.CompareCallCount++
	m.mu.Unlock()

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}
	if hashedPassword != mockHashPrefix+password {
		return errors.New("password mismatch")
	}
	return nil
}
