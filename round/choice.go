// round/choice.go
package round

import (
	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/scoring"
)

// ChoiceHandler runs multiple-choice rounds. The question pick is seeded by
// (session code, round number) and skips questions used by earlier choice
// rounds of the same session, so refreshing a view mid-round can never
// change the question.
type ChoiceHandler struct {
	deps Deps
}

func (h *ChoiceHandler) Type() models.RoundType {
	return models.RoundMultipleChoice
}

func (h *ChoiceHandler) Generate(roundNumber int) (*Payload, error) {
	q := h.question(roundNumber)
	return &Payload{
		RoundNumber: roundNumber,
		Type:        models.RoundMultipleChoice,
		Question:    &q,
	}, nil
}

func (h *ChoiceHandler) End(roundNumber int, answers []*models.Answer, players map[int64]*models.Player) (*ResultSet, error) {
	q := h.question(roundNumber)

	answered := make(map[int64]bool, len(answers))
	for _, a := range answers {
		answered[a.PlayerID] = true
		player := players[a.PlayerID]
		streak := 0
		if player != nil {
			streak = player.Streak
		}
		points, newStreak, correct := scoring.ScoreChoice(a.Text, q.CorrectAnswer, streak, h.deps.Points.Choice)
		a.IsValid = correct
		a.Points = points
		if player != nil {
			player.Streak = newStreak
		}
	}

	// A missing answer breaks a streak the same as a wrong one.
	for id, p := range players {
		if !answered[id] {
			p.Streak = 0
		}
	}

	return &ResultSet{
		RoundNumber:   roundNumber,
		Type:          models.RoundMultipleChoice,
		Answers:       answers,
		CorrectAnswer: q.CorrectAnswer,
	}, nil
}

func (h *ChoiceHandler) ValidateOverride(answers []*models.Answer, playerID int64, isValid bool) ([]*models.Answer, error) {
	return nil, ErrValidationUnsupported
}

func (h *ChoiceHandler) question(roundNumber int) models.Question {
	used := make(map[int]bool)
	for n := 1; n < roundNumber; n++ {
		if h.deps.Config.TypeForRound(n) != models.RoundMultipleChoice {
			continue
		}
		q := h.deps.Bank.Choice(seededRNG(h.deps.SessionCode, n), used)
		used[q.ID] = true
	}
	return h.deps.Bank.Choice(seededRNG(h.deps.SessionCode, roundNumber), used)
}
