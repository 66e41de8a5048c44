// Package session owns the client's identity state: the User and Session
// records, the persisted session stores, and the Manager that is the single
// source of truth for "who is signed in".
package session

import (
	"errors"
	"fmt"
)

// User is the backend's user record. It is only ever replaced wholesale
// after a successful backend read or login, never patched field by field.
// Timestamps are kept as the backend's ISO-8601 strings.
type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	ProfilePicture  string `json:"profile_picture"`
	IsPremium       bool   `json:"is_premium"`
	GenerationCount int    `json:"generation_count"`
	CreatedAt       string `json:"created_at,omitempty"`
	LastGenerated   string `json:"last_generated,omitempty"`
	UpgradedAt      string `json:"upgraded_at,omitempty"`
}

// Validate rejects user payloads that don't meet the record's invariants.
// Unexpected backend shapes are stopped here, at the boundary.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.New("user record missing id")
	}
	if u.GenerationCount < 0 {
		return fmt.Errorf("user record has negative generation count %d", u.GenerationCount)
	}
	return nil
}

// Session is the authenticated identity of the client: a bearer token plus
// the user it belongs to. A session is either fully present or fully absent.
type Session struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Validate enforces the whole-record invariant.
func (s *Session) Validate() error {
	if s.Token == "" {
		return errors.New("session missing token")
	}
	return s.User.Validate()
}
