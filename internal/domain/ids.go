// Package domain contains the watch session entities and the small amount of
// logic that keeps their invariants. Nothing here is safe for concurrent use;
// callers serialize access through the registry.
package domain

import (
	"strings"

	nanoid "github.com/jaevor/go-nanoid"
)

// SessionIDAlphabet leaves out characters that are easy to confuse when typed
// by hand (0/O, 1/I/L).
const SessionIDAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const SessionIDLength = 6

type (
	SessionID    string
	ConnectionID string
)

var genSessionID = mustGenerator()

func mustGenerator() func() string {
	gen, err := nanoid.CustomASCII(SessionIDAlphabet, SessionIDLength)
	if err != nil {
		panic(err)
	}
	return gen
}

// NewSessionID returns a random id. Uniqueness is checked by the registry.
func NewSessionID() SessionID {
	return SessionID(genSessionID())
}

// ParseSessionID normalizes user input; lowercase ids typed by viewers are accepted.
func ParseSessionID(raw string) SessionID {
	return SessionID(strings.ToUpper(strings.TrimSpace(raw)))
}

func (id SessionID) Valid() bool {
	if len(id) != SessionIDLength {
		return false
	}
	for _, c := range string(id) {
		if !strings.ContainsRune(SessionIDAlphabet, c) {
			return false
		}
	}
	return true
}
