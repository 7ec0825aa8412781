package scoring

import (
	"testing"
	"time"

	"github.com/shawncarter/NewQuiz/models"
)

var testPoints = FreeTextPoints{Unique: 10, Valid: 5}

func freeTextAnswers() []*models.Answer {
	return []*models.Answer{
		{PlayerID: 1, PlayerName: "Amy", Text: "Apple", IsValid: true},
		{PlayerID: 2, PlayerName: "Ben", Text: "apple", IsValid: true},
		{PlayerID: 3, PlayerName: "Cat", Text: "Banana", IsValid: true},
	}
}

func TestScoreFreeText_DuplicatesShareTier(t *testing.T) {
	answers := freeTextAnswers()
	ScoreFreeText(answers, testPoints)

	if answers[0].IsUnique || answers[1].IsUnique {
		t.Error("Apple/apple normalize identically and must both be duplicates")
	}
	if answers[0].Points != 5 || answers[1].Points != 5 {
		t.Errorf("duplicate answers should earn %d points, got %d and %d", 5, answers[0].Points, answers[1].Points)
	}
	if !answers[2].IsUnique {
		t.Error("Banana is the only normalized instance and must be unique")
	}
	if answers[2].Points != 10 {
		t.Errorf("unique answer should earn %d points, got %d", 10, answers[2].Points)
	}
}

func TestScoreFreeText_InvalidScoresZero(t *testing.T) {
	answers := freeTextAnswers()
	answers[2].IsValid = false
	ScoreFreeText(answers, testPoints)

	if answers[2].Points != 0 {
		t.Errorf("invalid answer must score 0, got %d", answers[2].Points)
	}
	if answers[2].IsUnique {
		t.Error("invalid answer must not be marked unique")
	}
}

func TestScoreFreeText_AwardBound(t *testing.T) {
	answers := freeTextAnswers()
	ScoreFreeText(answers, testPoints)

	scored := 0
	valid := 0
	for _, a := range answers {
		if a.IsValid {
			valid++
		}
		if a.Points > 0 {
			scored++
		}
	}
	if scored > valid {
		t.Errorf("scored answers (%d) may not exceed valid submissions (%d)", scored, valid)
	}
}

func TestRescoreGroup_FlipPromotesRemainingDuplicate(t *testing.T) {
	answers := freeTextAnswers()
	ScoreFreeText(answers, testPoints)

	// GM rules Ben's "apple" invalid; Amy's "Apple" is now the only valid
	// instance of that text and must be promoted to the unique tier.
	changed := RescoreGroup(answers, 2, false, testPoints)

	if len(changed) != 2 {
		t.Fatalf("expected the whole normalized group (2 answers) to be rescored, got %d", len(changed))
	}
	if answers[1].IsValid || answers[1].Points != 0 {
		t.Errorf("overridden answer should be invalid with 0 points, got valid=%v points=%d", answers[1].IsValid, answers[1].Points)
	}
	if !answers[0].IsUnique || answers[0].Points != 10 {
		t.Errorf("remaining duplicate should be promoted to unique (10 points), got unique=%v points=%d", answers[0].IsUnique, answers[0].Points)
	}
}

func TestRescoreGroup_UnknownPlayer(t *testing.T) {
	answers := freeTextAnswers()
	if changed := RescoreGroup(answers, 99, true, testPoints); changed != nil {
		t.Errorf("expected nil for unknown player, got %d answers", len(changed))
	}
}

func TestScoreChoice_StreakGrowsAndResets(t *testing.T) {
	points := ChoicePoints{Correct: 10, StreakBonus: 5}

	awarded, streak, correct := ScoreChoice("Femur", "femur", 0, points)
	if !correct || awarded != 10 || streak != 1 {
		t.Errorf("first correct answer: expected 10 points streak 1, got %d points streak %d", awarded, streak)
	}

	awarded, streak, correct = ScoreChoice("Blue Whale", "Blue Whale", streak, points)
	if !correct || awarded != 15 || streak != 2 {
		t.Errorf("second consecutive correct: expected 15 points streak 2, got %d points streak %d", awarded, streak)
	}

	awarded, streak, correct = ScoreChoice("Tibia", "Femur", streak, points)
	if correct || awarded != 0 || streak != 0 {
		t.Errorf("wrong answer must reset: got %d points streak %d correct=%v", awarded, streak, correct)
	}
}

func TestLeaderboard_OrderAndRanks(t *testing.T) {
	base := time.Now()
	players := []*models.Player{
		{ID: 1, Name: "Amy", Score: 20, JoinedAt: base},
		{ID: 2, Name: "Ben", Score: 45, JoinedAt: base.Add(time.Second)},
		{ID: 3, Name: "Cat", Score: 20, JoinedAt: base.Add(2 * time.Second)},
	}

	entries := Leaderboard(players)
	if entries[0].PlayerID != 2 {
		t.Errorf("highest score should rank first, got player %d", entries[0].PlayerID)
	}
	if entries[1].PlayerID != 1 || entries[2].PlayerID != 3 {
		t.Error("ties should keep join order")
	}
	for i, e := range entries {
		if e.Rank != i+1 {
			t.Errorf("entry %d has rank %d", i, e.Rank)
		}
	}
}
