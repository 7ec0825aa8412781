// round/phase.go
package round

import (
	"fmt"
)

// Phase is the mastermind sub-game's explicit state. Transitions are
// validated centrally against the table below; anything else is a
// TransitionError, never a silent no-op.
type Phase string

const (
	PhaseSelectingPlayer  Phase = "selecting_player"
	PhaseAwaitingReady    Phase = "awaiting_ready"
	PhaseRapidFire        Phase = "rapid_fire"
	PhasePlayerComplete   Phase = "player_complete"
	PhaseAwaitingGKReady  Phase = "awaiting_general_knowledge_ready"
	PhaseGeneralKnowledge Phase = "general_knowledge"
	PhaseAllComplete      Phase = "all_complete"
)

var phaseTransitions = map[Phase][]Phase{
	PhaseSelectingPlayer:  {PhaseAwaitingReady, PhaseAwaitingGKReady},
	PhaseAwaitingReady:    {PhaseRapidFire, PhaseSelectingPlayer},
	PhaseRapidFire:        {PhasePlayerComplete},
	PhasePlayerComplete:   {PhaseSelectingPlayer, PhaseAwaitingGKReady},
	PhaseAwaitingGKReady:  {PhaseGeneralKnowledge},
	PhaseGeneralKnowledge: {PhaseAllComplete},
	PhaseAllComplete:      {},
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to Phase) bool {
	for _, allowed := range phaseTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// TransitionError reports a rejected phase change. The state is unchanged
// when one is returned; Code is stable and safe to surface to clients.
type TransitionError struct {
	From Phase
	To   Phase
	Code string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s (%s)", e.From, e.To, e.Code)
}

func newTransitionError(from, to Phase) *TransitionError {
	return &TransitionError{From: from, To: to, Code: "invalid_transition"}
}

// Actor identifies who triggered a dual-path operation such as the ready
// response, which both the GM and the selected player may send.
type Actor string

const (
	ActorGM     Actor = "gm"
	ActorPlayer Actor = "player"
)
