package core

import "errors"

var (
	ErrDuplicateConnection = errors.New("connection already registered")
	ErrNotFound            = errors.New("not found")
	ErrRoomClosed          = errors.New("room closed")
)
