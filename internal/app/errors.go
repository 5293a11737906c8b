package app

import "errors"

var (
	ErrInvalidEnvelope  = errors.New("invalid signaling envelope")
	ErrNotMember        = errors.New("not a member of the room")
	ErrIdentityMismatch = errors.New("identity does not match connection")
	ErrForbidden        = errors.New("forbidden")
	ErrMarkEndedFailed  = errors.New("mark stream ended failed")
)
