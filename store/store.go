// store/store.go
package store

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DefaultTTL is a memory-safety net, not an expiry policy. Round and session
// transitions clear keys explicitly; every write renews the TTL so state
// cannot vanish mid-game in long sessions.
const DefaultTTL = time.Hour

var (
	ErrUnavailable = errors.New("state store unavailable")
)

// Store holds per-session ephemeral round state. Keys are composite
// session-scoped strings (see Key), so sessions never collide. Implementations
// must be safe for concurrent use by many sessions.
type Store interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
	Delete(key string)
	// DeletePrefix removes every key for a session, used on restart/finish.
	DeletePrefix(prefix string)
}

// Key builds the canonical composite key {session_code}:{round_number}:{category}.
func Key(sessionCode string, roundNumber int, category string) string {
	return fmt.Sprintf("%s:%d:%s", sessionCode, roundNumber, category)
}

// SessionPrefix is the prefix matching every key belonging to one session.
func SessionPrefix(sessionCode string) string {
	return sessionCode + ":"
}

// State categories used as the third key segment.
const (
	CategoryRound      = "round"      // generated round payload
	CategoryAnswers    = "answers"    // live per-player answers, last-write-wins
	CategoryMastermind = "mastermind" // mastermind sub-game state
	CategoryResults    = "results"    // finalized answers kept for overrides
)

// HasPrefix reports whether key belongs to the given session prefix.
func HasPrefix(key, prefix string) bool {
	return strings.HasPrefix(key, prefix)
}
