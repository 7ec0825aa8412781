package game

import (
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/shawncarter/NewQuiz/config"
	"github.com/shawncarter/NewQuiz/logger"
	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/round"
	"github.com/shawncarter/NewQuiz/store"
	"github.com/shawncarter/NewQuiz/timer"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop().Sugar()
	os.Exit(m.Run())
}

// MockBroadcaster is a test double for the Broadcaster interface. Timer
// ticks arrive on another goroutine, so everything is mutex guarded.
type MockBroadcaster struct {
	mutex     sync.Mutex
	broadcast []*models.Event
	unicast   map[int64][]*models.Event
	gm        []*models.Event
}

func (b *MockBroadcaster) BroadcastToSession(code string, event *models.Event) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.broadcast = append(b.broadcast, event)
}

func (b *MockBroadcaster) SendToPlayer(code string, playerID int64, event *models.Event) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.unicast == nil {
		b.unicast = make(map[int64][]*models.Event)
	}
	b.unicast[playerID] = append(b.unicast[playerID], event)
}

func (b *MockBroadcaster) SendToGM(code string, event *models.Event) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.gm = append(b.gm, event)
}

func (b *MockBroadcaster) count(eventType string) int {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	n := 0
	for _, e := range b.broadcast {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (b *MockBroadcaster) last(eventType string) *models.Event {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for i := len(b.broadcast) - 1; i >= 0; i-- {
		if b.broadcast[i].Type == eventType {
			return b.broadcast[i]
		}
	}
	return nil
}

func testGameConfig() config.GameConfig {
	return config.GameConfig{
		RoundSeconds:            2,
		RapidFireSeconds:        2,
		GeneralKnowledgeSeconds: 2,
		QuestionsPerPlayer:      3,
		NumRounds:               2,
		MaxPlayers:              3,
		UniquePoints:            10,
		ValidPoints:             5,
		CorrectPoints:           10,
		StreakBonus:             5,
	}
}

func newTestGame(t *testing.T, types []models.RoundType) (*Orchestrator, *MockBroadcaster, *clockwork.FakeClock) {
	t.Helper()

	clock := clockwork.NewFakeClock()
	s := store.NewMemoryStore()
	t.Cleanup(s.Close)

	b := &MockBroadcaster{}
	deps := Deps{
		Store:       s,
		Bank:        round.NewQuestionBank(),
		Broadcaster: b,
		Timers:      timer.NewManagerWithClock(clock),
		Game:        testGameConfig(),
	}
	session := &models.Session{
		Code:       "TEST01",
		Status:     models.StatusWaiting,
		MaxPlayers: 3,
		Config: models.SessionConfig{
			NumRounds:    2,
			RoundSeconds: 2,
			RoundTypes:   types,
		},
		CreatedAt: time.Now(),
	}
	return NewOrchestrator(session, deps), b, clock
}

func joinPlayers(t *testing.T, o *Orchestrator, names ...string) []*models.Player {
	t.Helper()
	players := make([]*models.Player, 0, len(names))
	for _, name := range names {
		p, _, err := o.Join(name, "")
		if err != nil {
			t.Fatalf("Join %s failed: %v", name, err)
		}
		players = append(players, p)
	}
	return players
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Timed out waiting for condition")
}

func advance(t *testing.T, clock *clockwork.FakeClock, seconds int) {
	t.Helper()
	for i := 0; i < seconds; i++ {
		clock.BlockUntil(1)
		clock.Advance(time.Second)
	}
}

func TestStartGame_RequiresConnectedPlayer(t *testing.T) {
	o, _, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})

	if err := o.StartGame(); !errors.Is(err, ErrNoConnectedPlayers) {
		t.Fatalf("Expected ErrNoConnectedPlayers, got %v", err)
	}

	joinPlayers(t, o, "Ana")
	if err := o.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if err := o.StartGame(); !errors.Is(err, ErrGameNotWaiting) {
		t.Fatalf("Second start should fail, got %v", err)
	}
}

func TestJoin_ReconnectByName(t *testing.T) {
	o, _, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})

	first, reconnected, err := o.Join("Ana", "space")
	if err != nil || reconnected {
		t.Fatalf("Fresh join: reconnected=%v err=%v", reconnected, err)
	}
	first.Score = 42
	first.Connected = false

	again, reconnected, err := o.Join("  ana ", "")
	if err != nil {
		t.Fatalf("Rejoin failed: %v", err)
	}
	if !reconnected {
		t.Fatal("Same name should reconnect, not create a new player")
	}
	if again.ID != first.ID || again.Score != 42 {
		t.Errorf("Reconnect must resume the same player: %+v", again)
	}
	if !again.Connected {
		t.Error("Reconnect should mark the player connected")
	}
	if again.SpecialistSubject != "space" {
		t.Error("An empty subject on rejoin must not clobber the stored one")
	}
}

func TestJoin_LimitsAndLifecycle(t *testing.T) {
	o, _, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})

	joinPlayers(t, o, "Ana", "Ben", "Cal")
	if _, _, err := o.Join("Dee", ""); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("Expected ErrSessionFull, got %v", err)
	}

	if err := o.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if _, _, err := o.Join("Eve", ""); !errors.Is(err, ErrGameNotWaiting) {
		t.Fatalf("New joins after start should fail, got %v", err)
	}
	// Known players may still reconnect mid-game.
	if _, reconnected, err := o.Join("Ana", ""); err != nil || !reconnected {
		t.Fatalf("Mid-game reconnect: reconnected=%v err=%v", reconnected, err)
	}
}

func TestRound_GMEndVsTimerRace(t *testing.T) {
	o, b, clock := newTestGame(t, []models.RoundType{models.RoundFreeText})
	joinPlayers(t, o, "Ana")
	if err := o.StartGame(); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	if err := o.StartRound(); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}

	if err := o.EndRound(); err != nil {
		t.Fatalf("EndRound failed: %v", err)
	}
	// The timer would have fired at 2s; let it try.
	clock.Advance(5 * time.Second)
	time.Sleep(50 * time.Millisecond)

	if got := b.count(models.EventRoundEnded); got != 1 {
		t.Fatalf("Expected exactly one round_ended, got %d", got)
	}
	if err := o.EndRound(); !errors.Is(err, ErrNoActiveRound) {
		t.Fatalf("Double end should fail, got %v", err)
	}
}

func TestRound_TimerExpiryEndsRound(t *testing.T) {
	o, b, clock := newTestGame(t, []models.RoundType{models.RoundFreeText})
	joinPlayers(t, o, "Ana")
	o.StartGame()
	if err := o.StartRound(); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}

	advance(t, clock, 1)
	waitFor(t, func() bool { return b.count(models.EventTimerUpdate) >= 1 })
	advance(t, clock, 1)
	waitFor(t, func() bool { return b.count(models.EventRoundEnded) == 1 })

	if err := o.StartRound(); err != nil {
		t.Fatalf("Next round should start after expiry: %v", err)
	}
}

func TestRound_CounterIsMonotonic(t *testing.T) {
	o, _, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})
	joinPlayers(t, o, "Ana")
	o.StartGame()

	if err := o.StartRound(); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}
	if err := o.StartRound(); !errors.Is(err, ErrRoundInProgress) {
		t.Fatalf("Expected ErrRoundInProgress, got %v", err)
	}
	if got := o.Snapshot().Session.CurrentRound; got != 1 {
		t.Fatalf("Expected round 1, got %d", got)
	}

	o.EndRound()
	o.StartRound()
	if got := o.Snapshot().Session.CurrentRound; got != 2 {
		t.Fatalf("Expected round 2, got %d", got)
	}
}

func TestRound_GameCompleteAfterLastRound(t *testing.T) {
	o, b, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})
	joinPlayers(t, o, "Ana")
	o.StartGame()

	for i := 0; i < 2; i++ {
		if err := o.StartRound(); err != nil {
			t.Fatalf("StartRound %d failed: %v", i+1, err)
		}
		if err := o.EndRound(); err != nil {
			t.Fatalf("EndRound %d failed: %v", i+1, err)
		}
	}

	// Configured for two rounds; the third start finishes the game instead.
	if err := o.StartRound(); err != nil {
		t.Fatalf("Final StartRound failed: %v", err)
	}
	if b.count(models.EventGameComplete) != 1 {
		t.Fatal("Expected a game_complete broadcast")
	}
	snap := o.Snapshot()
	if snap.Session.Status != models.StatusFinished {
		t.Fatalf("Expected finished, got %s", snap.Session.Status)
	}
	if len(snap.Leaderboard) != 1 {
		t.Fatal("Finished snapshot should carry the leaderboard")
	}
	if err := o.StartRound(); !errors.Is(err, ErrGameFinished) {
		t.Fatalf("Starting after completion should fail, got %v", err)
	}
}

func TestSubmitAnswer_LastWriteWins(t *testing.T) {
	o, _, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})
	players := joinPlayers(t, o, "Ana")
	o.StartGame()
	o.StartRound()

	if err := o.SubmitAnswer(players[0].ID, "Aardvark"); err != nil {
		t.Fatalf("SubmitAnswer failed: %v", err)
	}
	if err := o.SubmitAnswer(players[0].ID, "Antelope"); err != nil {
		t.Fatalf("Resubmit failed: %v", err)
	}
	o.EndRound()

	rs := o.Snapshot().Results
	if rs == nil || len(rs.Answers) != 1 {
		t.Fatalf("Expected one answer in results, got %+v", rs)
	}
	if rs.Answers[0].Text != "Antelope" {
		t.Errorf("Expected the later submission, got %q", rs.Answers[0].Text)
	}
}

func TestSubmitAnswer_AfterRoundEndIsDropped(t *testing.T) {
	o, _, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})
	players := joinPlayers(t, o, "Ana")
	o.StartGame()
	o.StartRound()

	o.SubmitAnswer(players[0].ID, "Aardvark")
	o.EndRound()

	// A submission racing the round end is ignored, not an error the hub
	// would relay back to the player.
	if err := o.SubmitAnswer(players[0].ID, "Antelope"); err != nil {
		t.Fatalf("Late submission should be dropped silently, got %v", err)
	}
	rs := o.Snapshot().Results
	if rs == nil || len(rs.Answers) != 1 || rs.Answers[0].Text != "Aardvark" {
		t.Fatalf("Late submission must not alter the results: %+v", rs)
	}
}

func TestSnapshot_CarriesTimeRemainingMidRound(t *testing.T) {
	o, b, clock := newTestGame(t, []models.RoundType{models.RoundFreeText})
	joinPlayers(t, o, "Ana")
	o.StartGame()
	if err := o.StartRound(); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}

	if got := o.Snapshot().TimeRemaining; got != 2 {
		t.Fatalf("Expected the full window right after start, got %d", got)
	}

	advance(t, clock, 1)
	waitFor(t, func() bool { return b.count(models.EventTimerUpdate) >= 1 })
	if got := o.Snapshot().TimeRemaining; got != 1 {
		t.Fatalf("A reconnect snapshot should carry the live countdown, got %d", got)
	}

	o.EndRound()
	if got := o.Snapshot().TimeRemaining; got != 0 {
		t.Fatalf("No time should remain once the round ended, got %d", got)
	}
}

func TestValidateAnswer_AppliesDeltaToScores(t *testing.T) {
	o, b, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})
	players := joinPlayers(t, o, "Ana", "Ben")
	o.StartGame()
	o.StartRound()

	o.SubmitAnswer(players[0].ID, "Aardvark")
	o.SubmitAnswer(players[1].ID, "Antelope")
	o.EndRound()

	if err := o.ValidateAnswer(players[0].ID, true); err != nil {
		t.Fatalf("ValidateAnswer failed: %v", err)
	}
	ana, _ := o.Player(players[0].ID)
	if ana.Score != 10 {
		t.Fatalf("Expected unique-tier score 10, got %d", ana.Score)
	}
	if b.count(models.EventScoreUpdate) == 0 {
		t.Fatal("Validation should broadcast a score update")
	}

	// Flipping back reverses the points.
	if err := o.ValidateAnswer(players[0].ID, false); err != nil {
		t.Fatalf("Reverting validation failed: %v", err)
	}
	ana, _ = o.Player(players[0].ID)
	if ana.Score != 0 {
		t.Fatalf("Expected score back at 0, got %d", ana.Score)
	}
}

func TestValidateAnswer_WindowClosesOnNextRound(t *testing.T) {
	o, _, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})
	players := joinPlayers(t, o, "Ana")
	o.StartGame()
	o.StartRound()
	o.SubmitAnswer(players[0].ID, "Aardvark")
	o.EndRound()
	o.StartRound()

	if err := o.ValidateAnswer(players[0].ID, true); !errors.Is(err, ErrRoundInProgress) {
		t.Fatalf("Validation during the next round should fail, got %v", err)
	}
}

func TestRestartGame_ResetsEverythingButPlayers(t *testing.T) {
	o, b, _ := newTestGame(t, []models.RoundType{models.RoundFreeText})
	players := joinPlayers(t, o, "Ana", "Ben")
	o.StartGame()
	o.StartRound()
	o.SubmitAnswer(players[0].ID, "Aardvark")
	o.EndRound()
	o.ValidateAnswer(players[0].ID, true)
	o.StartRound() // restart lands mid-round

	if err := o.RestartGame(); err != nil {
		t.Fatalf("RestartGame failed: %v", err)
	}

	snap := o.Snapshot()
	if snap.Session.Status != models.StatusWaiting {
		t.Fatalf("Expected waiting, got %s", snap.Session.Status)
	}
	if snap.Session.CurrentRound != 0 {
		t.Fatalf("Expected round counter reset, got %d", snap.Session.CurrentRound)
	}
	if snap.RoundActive {
		t.Fatal("No round should be active after restart")
	}
	if len(snap.Players) != 2 {
		t.Fatalf("Players must survive a restart, got %d", len(snap.Players))
	}
	for _, p := range snap.Players {
		if p.Score != 0 {
			t.Errorf("Player %s score should reset, got %d", p.Name, p.Score)
		}
	}
	if b.count(models.EventGameRestarted) != 1 {
		t.Fatal("Expected a game_restarted broadcast")
	}

	// The old round's ephemeral state is gone: a fresh game replays round 1
	// with no stale answers.
	o.StartGame()
	o.StartRound()
	o.EndRound()
	rs := o.Snapshot().Results
	if rs != nil && len(rs.Answers) != 0 {
		t.Fatalf("Restart must clear stored answers, got %d", len(rs.Answers))
	}
}

func TestMastermind_OrchestratedFlow(t *testing.T) {
	o, b, _ := newTestGame(t, []models.RoundType{models.RoundMastermind})
	_, _, err := o.Join("Ana", "football")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	ana, _ := o.Player(1)
	o.StartGame()
	if err := o.StartRound(); err != nil {
		t.Fatalf("StartRound failed: %v", err)
	}

	if err := o.SubmitAnswer(ana.ID, "nope"); !errors.Is(err, ErrWrongSubmission) {
		t.Fatalf("Plain submissions must be rejected in mastermind, got %v", err)
	}

	if err := o.SelectPlayer(ana.ID); err != nil {
		t.Fatalf("SelectPlayer failed: %v", err)
	}
	if err := o.ReadyResponse(ana.ID, true, round.ActorPlayer); err != nil {
		t.Fatalf("ReadyResponse failed: %v", err)
	}

	view := b.last(models.EventMastermindProgress)
	if view == nil {
		t.Fatal("Expected mastermind progress broadcasts")
	}
	mmView := view.Data.(*round.MastermindView)
	if mmView.Phase != round.PhaseRapidFire {
		t.Fatalf("Expected rapid_fire, got %s", mmView.Phase)
	}
	if len(mmView.Questions) != 3 {
		t.Fatalf("Expected 3 questions in view, got %d", len(mmView.Questions))
	}

	answers := make([]round.RapidFireAnswer, 0, 3)
	for _, q := range mmView.Questions {
		// Redacted views hide the answer; answer with the first choice.
		answers = append(answers, round.RapidFireAnswer{QuestionID: q.ID, Choice: q.Choices[0]})
	}
	if err := o.SubmitRapidFire(ana.ID, answers); err != nil {
		t.Fatalf("SubmitRapidFire failed: %v", err)
	}
	if b.count(models.EventPlayerCompleted) != 1 {
		t.Fatal("Answering the full set should broadcast player_completed")
	}

	if err := o.ContinueToNextPlayer(); err != nil {
		t.Fatalf("ContinueToNextPlayer failed: %v", err)
	}
	if err := o.ReadyResponse(0, true, round.ActorGM); err != nil {
		t.Fatalf("General knowledge ready failed: %v", err)
	}
	gkView := b.last(models.EventMastermindProgress).Data.(*round.MastermindView)
	if gkView.Phase != round.PhaseGeneralKnowledge {
		t.Fatalf("Expected general_knowledge, got %s", gkView.Phase)
	}

	gkAnswers := make([]round.RapidFireAnswer, 0, len(gkView.Questions))
	for _, q := range gkView.Questions {
		gkAnswers = append(gkAnswers, round.RapidFireAnswer{QuestionID: q.ID, Choice: q.Choices[0]})
	}
	if err := o.SubmitRapidFire(ana.ID, gkAnswers); err != nil {
		t.Fatalf("GK SubmitRapidFire failed: %v", err)
	}

	final := b.last(models.EventMastermindProgress).Data.(*round.MastermindView)
	if final.Phase != round.PhaseAllComplete {
		t.Fatalf("Expected all_complete once everyone submitted, got %s", final.Phase)
	}

	if err := o.EndRound(); err != nil {
		t.Fatalf("EndRound failed: %v", err)
	}
	rs := o.Snapshot().Results
	if rs == nil || !rs.PointsApplied {
		t.Fatal("Mastermind results must be marked as already scored")
	}
}

func TestManager_CreateGetRemove(t *testing.T) {
	s := store.NewMemoryStore()
	t.Cleanup(s.Close)
	m := NewManager(Deps{
		Store:       s,
		Bank:        round.NewQuestionBank(),
		Broadcaster: &MockBroadcaster{},
		Timers:      timer.NewManager(),
		Game:        testGameConfig(),
	})

	o := m.CreateSession(models.SessionConfig{NumRounds: 2, RoundTypes: []models.RoundType{models.RoundFreeText}})
	if len(o.Code()) != codeLength {
		t.Fatalf("Unexpected code %q", o.Code())
	}

	got, exists := m.Get(o.Code())
	if !exists || got != o {
		t.Fatal("Get should return the created session")
	}
	if m.Count() != 1 {
		t.Fatalf("Expected 1 session, got %d", m.Count())
	}

	m.Remove(o.Code())
	if _, exists := m.Get(o.Code()); exists {
		t.Fatal("Removed session should be gone")
	}
}
