// Package credential holds the bearer token obtained at login.
//
// The token lives in process memory only. A Store starts empty, is filled by a
// successful login and is overwritten by any later login. It is never cleared.
package credential

import (
	"errors"
	"sync"
)

// ErrNotAuthenticated is returned when a token is requested before any login succeeded.
var ErrNotAuthenticated = errors.New("not authenticated: log in first")

const redacted = "[REDACTED]"

// Token is an opaque bearer token issued by the media service.
type Token string

// String redacts the token so it never ends up in logs by accident.
func (t Token) String() string {
	if t == "" {
		return ""
	}
	return redacted
}

// Header returns the value of the Authorization header carrying this token.
func (t Token) Header() string {
	return "Bearer " + string(t)
}

// Store ...
type Store struct {
	mu    sync.RWMutex
	token Token
}

// NewStore returns an unauthenticated store.
func NewStore() *Store {
	return &Store{}
}

// Set stores the token of a successful login, replacing any previous one.
func (s *Store) Set(token Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Token returns the current token or ErrNotAuthenticated.
func (s *Store) Token() (Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return "", ErrNotAuthenticated
	}
	return s.token, nil
}

// IsSet ...
func (s *Store) IsSet() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}
