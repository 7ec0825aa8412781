// round/freetext.go
package round

import (
	"fmt"

	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/scoring"
)

// FreeTextHandler runs "category + letter" rounds: name something in the
// category starting with the letter. Generation is pure — both the GM view
// and every player view derive the identical prompt from the session code
// and round number.
type FreeTextHandler struct {
	deps Deps
}

func (h *FreeTextHandler) Type() models.RoundType {
	return models.RoundFreeText
}

func (h *FreeTextHandler) Generate(roundNumber int) (*Payload, error) {
	category, letter := h.pick(roundNumber)
	return &Payload{
		RoundNumber: roundNumber,
		Type:        models.RoundFreeText,
		Category:    category,
		Letter:      letter,
		Prompt:      fmt.Sprintf("%s that start with %s", category, letter),
	}, nil
}

func (h *FreeTextHandler) End(roundNumber int, answers []*models.Answer, players map[int64]*models.Player) (*ResultSet, error) {
	// Free-text answers start invalid and wait for GM validation. Uniqueness
	// here is text-based across all submissions, so the GM screen can show
	// duplicates before any answer has been validated.
	counts := make(map[string]int, len(answers))
	for _, a := range answers {
		counts[scoring.Normalize(a.Text)]++
	}
	for _, a := range answers {
		a.IsValid = false
		a.IsUnique = counts[scoring.Normalize(a.Text)] == 1
		a.Points = 0
	}
	return &ResultSet{
		RoundNumber: roundNumber,
		Type:        models.RoundFreeText,
		Answers:     answers,
	}, nil
}

func (h *FreeTextHandler) ValidateOverride(answers []*models.Answer, playerID int64, isValid bool) ([]*models.Answer, error) {
	changed := scoring.RescoreGroup(answers, playerID, isValid, h.deps.Points.FreeText)
	if changed == nil {
		return nil, fmt.Errorf("no answer from player %d in this round", playerID)
	}
	return changed, nil
}

// pick selects the category and letter for a round. Letters used by earlier
// rounds are replayed deterministically and skipped until the alphabet runs
// out, then the pool resets.
func (h *FreeTextHandler) pick(roundNumber int) (string, string) {
	categories := h.deps.Config.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}

	used := make(map[string]bool)
	for n := 1; n < roundNumber; n++ {
		if h.deps.Config.TypeForRound(n) != models.RoundFreeText {
			continue
		}
		_, letter := h.pickOne(n, categories, used)
		used[letter] = true
	}
	return h.pickOne(roundNumber, categories, used)
}

func (h *FreeTextHandler) pickOne(roundNumber int, categories []string, usedLetters map[string]bool) (string, string) {
	rng := seededRNG(h.deps.SessionCode, roundNumber)
	category := categories[rng.Intn(len(categories))]

	available := make([]string, 0, len(letters))
	for _, l := range letters {
		if !usedLetters[l] {
			available = append(available, l)
		}
	}
	if len(available) == 0 {
		available = letters
	}
	return category, available[rng.Intn(len(available))]
}
