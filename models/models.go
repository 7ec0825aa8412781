// models/models.go
package models

import (
	"time"
)

// SessionStatus is the lifecycle state of a game session.
type SessionStatus string

const (
	StatusWaiting  SessionStatus = "waiting"
	StatusActive   SessionStatus = "active"
	StatusFinished SessionStatus = "finished"
)

// RoundType identifies the gameplay of a single round.
type RoundType string

const (
	RoundFreeText       RoundType = "free_text"
	RoundMultipleChoice RoundType = "multiple_choice"
	RoundMastermind     RoundType = "mastermind"
)

// SessionConfig is the per-session game configuration chosen at setup.
type SessionConfig struct {
	NumRounds    int         `json:"num_rounds"`
	RoundSeconds int         `json:"round_seconds"`
	RoundTypes   []RoundType `json:"round_types"` // sequence; round n uses RoundTypes[(n-1) % len]
	Categories   []string    `json:"categories"`  // category pool for free-text rounds
}

// TypeForRound returns the round type configured for round n (1-based).
func (c SessionConfig) TypeForRound(n int) RoundType {
	if len(c.RoundTypes) == 0 {
		return RoundFreeText
	}
	if n < 1 {
		n = 1
	}
	return c.RoundTypes[(n-1)%len(c.RoundTypes)]
}

// Session is one running game, identified by its join code. The orchestrator
// owns it; round 0 means no round has started yet.
type Session struct {
	Code         string        `json:"code"`
	Status       SessionStatus `json:"status"`
	CurrentRound int           `json:"current_round"`
	MaxPlayers   int           `json:"max_players"`
	Config       SessionConfig `json:"config"`
	CreatedAt    time.Time     `json:"created_at"`
	StartedAt    time.Time     `json:"started_at,omitempty"`
	FinishedAt   time.Time     `json:"finished_at,omitempty"`
}

// Player is a participant in a session. Players are never deleted mid-session;
// a dropped connection only flips Connected.
type Player struct {
	ID                int64     `json:"id"`
	Name              string    `json:"name"`
	SpecialistSubject string    `json:"specialist_subject,omitempty"`
	Connected         bool      `json:"connected"`
	Score             int       `json:"score"`
	Streak            int       `json:"-"` // consecutive correct answers, choice rounds
	JoinedAt          time.Time `json:"joined_at"`
}

// Answer is one player's submission for one round. Mutable until the round
// ends; after that only a GM validation override may adjust it.
type Answer struct {
	PlayerID    int64     `json:"player_id"`
	PlayerName  string    `json:"player_name"`
	RoundNumber int       `json:"round_number"`
	Text        string    `json:"answer_text"`
	IsValid     bool      `json:"is_valid"`
	IsUnique    bool      `json:"is_unique"`
	Points      int       `json:"points_awarded"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// Question is a multiple-choice question. CorrectAnswer must be stripped from
// any payload sent to clients before the question is revealed.
type Question struct {
	ID            int      `json:"id"`
	Text          string   `json:"question_text"`
	Choices       []string `json:"choices"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	Category      string   `json:"category,omitempty"`
}

// Redacted returns a copy safe to send to clients ahead of reveal.
func (q Question) Redacted() Question {
	q.CorrectAnswer = ""
	return q
}

// Event is one outbound protocol message, fanned out by the hub.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Standard outbound event types.
const (
	EventGameState          = "game_state"
	EventGameStarted        = "game_started"
	EventGameUpdate         = "game_update"
	EventRoundStarted       = "round_started"
	EventRoundEnded         = "round_ended"
	EventTimerUpdate        = "timer_update"
	EventScoreUpdate        = "score_update"
	EventPlayerResult       = "player_result"
	EventGameComplete       = "game_complete"
	EventGameRestarted      = "game_restarted"
	EventRoundUpdate        = "round_update"
	EventPlayerCompleted    = "player_completed"
	EventMastermindProgress = "mastermind_progress"
	EventError              = "error"
)

// LeaderboardEntry is one row of the final scores broadcast with
// game_complete.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	PlayerID int64  `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
}
