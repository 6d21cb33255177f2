package main

import "errors"

var ErrNotConnected = errors.New("not connected")

// ErrorKind classifies everything that can go wrong in a session.
type ErrorKind int

const (
	// LocalGestureDiscard never leaves the gesture machine.
	LocalGestureDiscard ErrorKind = iota
	// RejectedMove is recoverable in place; the board is untouched.
	RejectedMove
	// ConnectionError is recoverable; the client redials and rejoins.
	ConnectionError
	// FatalServerError ends the session.
	FatalServerError
)

func (k ErrorKind) String() string {
	switch k {
	case LocalGestureDiscard:
		return "discard"
	case RejectedMove:
		return "rejected"
	case ConnectionError:
		return "connection"
	case FatalServerError:
		return "fatal"
	default:
		return "unknown"
	}
}

func (k ErrorKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
