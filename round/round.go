// round/round.go
package round

import (
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/scoring"
	"github.com/shawncarter/NewQuiz/store"
)

var (
	ErrUnknownRoundType      = errors.New("unknown round type")
	ErrValidationUnsupported = errors.New("round type does not support manual validation")
	ErrNoQuestionSet         = errors.New("no question set available for player")
	ErrPlayerCompleted       = errors.New("player has already completed their specialist round")
	ErrPlayerBusy            = errors.New("another player is already mid-round")
	ErrNoSpecialistSubject   = errors.New("player has no specialist subject")
	ErrNotCurrentPlayer      = errors.New("submission is not from the current player")
)

// Payload is the closed variant describing what one round asks of players.
// Exactly one of the type-specific sections is populated, matching Type.
type Payload struct {
	RoundNumber int              `json:"round_number"`
	Type        models.RoundType `json:"round_type"`

	// Free text
	Category string `json:"category,omitempty"`
	Letter   string `json:"letter,omitempty"`
	Prompt   string `json:"prompt,omitempty"`

	// Multiple choice. The question is redacted before it reaches clients.
	Question *models.Question `json:"question,omitempty"`

	// Mastermind sub-game view.
	Mastermind *MastermindView `json:"mastermind,omitempty"`
}

// Redacted returns a copy of the payload with correct answers stripped,
// safe to broadcast before reveal.
func (p *Payload) Redacted() *Payload {
	out := *p
	if p.Question != nil {
		q := p.Question.Redacted()
		out.Question = &q
	}
	return &out
}

// ResultSet is the outcome of ending a round.
type ResultSet struct {
	RoundNumber   int              `json:"round_number"`
	Type          models.RoundType `json:"round_type"`
	Answers       []*models.Answer `json:"answers"`
	CorrectAnswer string           `json:"correct_answer,omitempty"`
	// PointsApplied is true when scoring already ran during the round
	// (mastermind rapid-fire) and the orchestrator must not re-award.
	PointsApplied bool `json:"-"`
}

// Handler is the uniform contract every round type implements.
//
// Generate is idempotent: repeated calls for the same round before it starts
// return an identical payload. Deterministic types derive everything from
// (session code, round number); the mastermind handler carries its state in
// the store instead.
type Handler interface {
	Type() models.RoundType
	Generate(roundNumber int) (*Payload, error)
	End(roundNumber int, answers []*models.Answer, players map[int64]*models.Player) (*ResultSet, error)
	ValidateOverride(answers []*models.Answer, playerID int64, isValid bool) ([]*models.Answer, error)
}

// Points bundles the scoring configuration handlers need.
type Points struct {
	FreeText scoring.FreeTextPoints
	Choice   scoring.ChoicePoints
}

// Deps carries everything a handler may depend on. Deterministic handlers
// ignore the store.
type Deps struct {
	SessionCode        string
	Config             models.SessionConfig
	Points             Points
	Store              store.Store
	Bank               *QuestionBank
	QuestionsPerPlayer int
}

// NewHandler builds the handler for one round type within a session.
func NewHandler(rt models.RoundType, deps Deps) (Handler, error) {
	switch rt {
	case models.RoundFreeText:
		return &FreeTextHandler{deps: deps}, nil
	case models.RoundMultipleChoice:
		return &ChoiceHandler{deps: deps}, nil
	case models.RoundMastermind:
		return &MastermindHandler{deps: deps}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRoundType, rt)
	}
}

// seededRNG returns the deterministic generator for one round of one session.
// Same code and round always yield the same sequence, so GM and player views
// agree without a shared database row.
func seededRNG(sessionCode string, roundNumber int) *rand.Rand {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s:%d", sessionCode, roundNumber)
	return rand.New(rand.NewSource(int64(h.Sum64())))
}
