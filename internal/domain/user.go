// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// Lengths are in runes, the unit the wire validation counts.
const (
	MaxIdentityLen = 64
	MaxUsernameLen = 36
)

var (
	ErrIdentityEmpty   = errors.New("identity empty")
	ErrIdentityTooLong = errors.New("identity too long")
	ErrUsernameTooLong = errors.New("username too long")
	ErrUsernameEmpty   = errors.New("username empty")
)

// Identity is the stable caller-level id, distinct from a connection id.
type Identity string

type DisplayName string

// User is who a connection speaks for.
type User struct {
	Identity    Identity    `json:"identity"`
	DisplayName DisplayName `json:"displayName"`
}

// NewUser validates both parts; adapters build users only through it.
func NewUser(identity, displayName string) (User, error) {
	id, err := ParseIdentity(identity)
	if err != nil {
		return User{}, err
	}
	name, err := ParseDisplayName(displayName)
	if err != nil {
		return User{}, err
	}
	return User{Identity: id, DisplayName: name}, nil
}

func ParseIdentity(raw string) (Identity, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrIdentityEmpty
	}
	if utf8.RuneCountInString(raw) > MaxIdentityLen {
		return "", ErrIdentityTooLong
	}
	return Identity(raw), nil
}

func ParseDisplayName(raw string) (DisplayName, error) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrUsernameEmpty
	}
	if utf8.RuneCountInString(raw) > MaxUsernameLen {
		return "", ErrUsernameTooLong
	}
	return DisplayName(raw), nil
}
