package client

import (
	"encoding/json"
	"sync"
)

const sessionKey = "session"

// User is the identity slice of a sign-in response.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type sessionState struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
}

// Session mirrors the last successful login or registration response.
// It is rehydrated from storage on construction and cleared on logout;
// it is a cache of the server's answer, never the authority.
type Session struct {
	storage Storage

	mu    sync.Mutex
	state sessionState
}

// NewSession loads any previously saved session from storage. Corrupt
// data is discarded rather than surfaced.
func NewSession(storage Storage) *Session {
	s := &Session{storage: storage}
	data, err := storage.Get(sessionKey)
	if err != nil || data == nil {
		return s
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		_ = storage.Delete(sessionKey)
		s.state = sessionState{}
	}
	return s
}

// Set records a sign-in response and persists it.
func (s *Session) Set(user *User, accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sessionState{User: user, AccessToken: accessToken}
	data, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	return s.storage.Set(sessionKey, data)
}

// SetToken replaces only the access token, keeping the cached user.
func (s *Session) SetToken(accessToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AccessToken = accessToken
	data, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	return s.storage.Set(sessionKey, data)
}

// User returns the cached identity, or nil when signed out.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.User
}

// Token returns the cached access token, or "".
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.AccessToken
}

// Clear drops the cached identity and token.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = sessionState{}
	return s.storage.Delete(sessionKey)
}
