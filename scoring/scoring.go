// scoring/scoring.go
//
// Pure scoring functions. Nothing here touches the store, the clock, or the
// network; callers apply the returned point values to player totals.
package scoring

import (
	"sort"
	"strings"

	"github.com/shawncarter/NewQuiz/models"
)

// FreeTextPoints are the point tiers for free-text rounds.
type FreeTextPoints struct {
	Unique int // only one player gave this normalized text
	Valid  int // valid but shared with another player
}

// ChoicePoints are the point values for choice-based rounds.
type ChoicePoints struct {
	Correct     int
	StreakBonus int // per consecutive correct answer beyond the first
}

// Normalize maps an answer to its comparison form: trimmed and case-folded.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// ScoreFreeText marks uniqueness and assigns points across a round's answers.
// Uniqueness counts only valid answers: two players writing the same invalid
// text do not rob each other of the unique tier once one is validated.
// Invalid answers always score zero.
func ScoreFreeText(answers []*models.Answer, points FreeTextPoints) {
	counts := make(map[string]int)
	for _, a := range answers {
		if a.IsValid {
			counts[Normalize(a.Text)]++
		}
	}

	for _, a := range answers {
		if !a.IsValid {
			a.IsUnique = false
			a.Points = 0
			continue
		}
		a.IsUnique = counts[Normalize(a.Text)] == 1
		if a.IsUnique {
			a.Points = points.Unique
		} else {
			a.Points = points.Valid
		}
	}
}

// RescoreGroup applies a GM validity override to one player's answer and
// rescores every answer sharing that normalized text in the same round.
// The group moves together: flipping one duplicate's validity can promote
// the remaining duplicate to unique, and all affected answers are returned.
func RescoreGroup(answers []*models.Answer, playerID int64, isValid bool, points FreeTextPoints) []*models.Answer {
	var target *models.Answer
	for _, a := range answers {
		if a.PlayerID == playerID {
			target = a
			break
		}
	}
	if target == nil {
		return nil
	}
	target.IsValid = isValid

	norm := Normalize(target.Text)
	var group []*models.Answer
	for _, a := range answers {
		if Normalize(a.Text) == norm {
			group = append(group, a)
		}
	}

	// Rescoring the whole answer set keeps uniqueness consistent; only the
	// group that shares the flipped text can actually change.
	ScoreFreeText(answers, points)

	return group
}

// ScoreChoice scores one choice answer. It returns the points earned and the
// player's new streak. A wrong or empty answer resets the streak.
func ScoreChoice(answerText, correctAnswer string, streak int, points ChoicePoints) (awarded int, newStreak int, correct bool) {
	if correctAnswer == "" {
		return 0, 0, false
	}
	if Normalize(answerText) != Normalize(correctAnswer) {
		return 0, 0, false
	}

	newStreak = streak + 1
	awarded = points.Correct
	if newStreak > 1 {
		awarded += (newStreak - 1) * points.StreakBonus
	}
	return awarded, newStreak, true
}

// Leaderboard ranks players by score descending, ties sharing join order.
func Leaderboard(players []*models.Player) []models.LeaderboardEntry {
	sorted := make([]*models.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool { return higher(sorted[i], sorted[j]) })

	entries := make([]models.LeaderboardEntry, 0, len(sorted))
	for i, p := range sorted {
		entries = append(entries, models.LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: p.ID,
			Name:     p.Name,
			Score:    p.Score,
		})
	}
	return entries
}

func higher(a, b *models.Player) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.JoinedAt.Before(b.JoinedAt)
}
