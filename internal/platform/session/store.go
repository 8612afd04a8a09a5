// Package session holds authenticated portal sessions: who the user is and
// the bearer token the clinic API issued for them. Token issuance and
// verification are the backend's job; this side only keeps track of expiry.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found or expired")

// User is the identity attached to a session.
type User struct {
	IDUser int    `json:"idUser"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	LName  string `json:"lname"`
	Type   string `json:"type"` // "patient" or "medic"
}

type Session struct {
	ID        string
	User      User
	Token     string
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// BearerToken is the clinic API token this session authenticates with.
func (s *Session) BearerToken() string { return s.Token }

// Store is an in-memory session registry keyed by opaque session id.
type Store struct {
	fallbackTTL time.Duration
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore(fallbackTTL time.Duration) *Store {
	if fallbackTTL <= 0 {
		fallbackTTL = time.Hour
	}
	return &Store{
		fallbackTTL: fallbackTTL,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Create registers a session for a freshly authenticated user. Expiry is read
// from the access token's exp claim; tokens without one get the fallback TTL.
func (s *Store) Create(user User, accessToken string) *Session {
	sess := &Session{
		ID:        uuid.NewString(),
		User:      user,
		Token:     accessToken,
		ExpiresAt: s.tokenExpiry(accessToken),
	}
	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()
	return sess
}

// Get returns the live session for id, or ErrNotFound when it is unknown or
// expired. Expired sessions are dropped on access.
func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if sess.Expired(s.now()) {
		s.Delete(id)
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes a session (logout).
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// tokenExpiry reads the exp claim without verifying the signature; the
// gateway never trusts the token's contents for authorization, the backend
// re-checks it on every call.
func (s *Store) tokenExpiry(accessToken string) time.Time {
	fallback := s.now().Add(s.fallbackTTL)
	if accessToken == "" {
		return fallback
	}
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return fallback
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return fallback
	}
	return exp.Time
}
