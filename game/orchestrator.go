// game/orchestrator.go
package game

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shawncarter/NewQuiz/config"
	"github.com/shawncarter/NewQuiz/logger"
	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/monitor"
	"github.com/shawncarter/NewQuiz/persistence"
	"github.com/shawncarter/NewQuiz/round"
	"github.com/shawncarter/NewQuiz/scoring"
	"github.com/shawncarter/NewQuiz/store"
	"github.com/shawncarter/NewQuiz/timer"
)

var (
	ErrSessionFull        = errors.New("session is full")
	ErrGameNotWaiting     = errors.New("game has already started")
	ErrGameNotActive      = errors.New("game is not active")
	ErrGameFinished       = errors.New("game is finished")
	ErrNoConnectedPlayers = errors.New("at least one connected player is required")
	ErrRoundInProgress    = errors.New("a round is already in progress")
	ErrNoActiveRound      = errors.New("no round is in progress")
	ErrNoValidationWindow = errors.New("no ended round is awaiting validation")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrNotMastermindRound = errors.New("current round is not a mastermind round")
	ErrWrongSubmission    = errors.New("mastermind rounds take rapid fire submissions")
)

// Deps carries the shared infrastructure one orchestrator needs. DB and
// Metrics may be nil; everything else is required.
type Deps struct {
	Store       store.Store
	Bank        *round.QuestionBank
	DB          persistence.Database
	Broadcaster Broadcaster
	Timers      *timer.Manager
	Metrics     *monitor.Metrics
	Game        config.GameConfig
}

// GameState is the full snapshot sent to every client on identify and after
// a restart. Round payloads inside it are already redacted.
type GameState struct {
	Session       *models.Session           `json:"session"`
	Players       []*models.Player          `json:"players"`
	RoundActive   bool                      `json:"round_active"`
	TimeRemaining int                       `json:"time_remaining,omitempty"`
	Round         *round.Payload            `json:"round,omitempty"`
	Results       *round.ResultSet          `json:"results,omitempty"`
	Leaderboard   []models.LeaderboardEntry `json:"leaderboard,omitempty"`
}

// Orchestrator owns one session. Every public method takes the session
// mutex, so all round transitions, submissions, and timer callbacks for a
// session are serialized; the round counter is the single source of truth
// for which round anything applies to.
type Orchestrator struct {
	mutex        sync.Mutex
	deps         Deps
	session      *models.Session
	players      map[int64]*models.Player
	nextPlayerID int64
	roundActive  bool
}

func NewOrchestrator(session *models.Session, deps Deps) *Orchestrator {
	return &Orchestrator{
		deps:         deps,
		session:      session,
		players:      make(map[int64]*models.Player),
		nextPlayerID: 1,
	}
}

func (o *Orchestrator) Code() string {
	return o.session.Code
}

// --- players ---

// Join adds a player or reconnects one. Name matching is trimmed and
// case-insensitive: "Ana" coming back as "ana" resumes the same player and
// score rather than creating a duplicate.
func (o *Orchestrator) Join(name, specialistSubject string) (*models.Player, bool, error) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false, fmt.Errorf("player name is required")
	}

	for _, p := range o.players {
		if strings.EqualFold(p.Name, name) {
			p.Connected = true
			if specialistSubject != "" {
				p.SpecialistSubject = specialistSubject
			}
			o.persistPlayer(p)
			o.broadcastPlayers()
			return p, true, nil
		}
	}

	if o.session.Status == models.StatusFinished {
		return nil, false, ErrGameFinished
	}
	if o.session.Status == models.StatusActive {
		return nil, false, ErrGameNotWaiting
	}
	if len(o.players) >= o.session.MaxPlayers {
		return nil, false, ErrSessionFull
	}

	player := &models.Player{
		ID:                o.nextPlayerID,
		Name:              name,
		SpecialistSubject: specialistSubject,
		Connected:         true,
		JoinedAt:          time.Now(),
	}
	o.nextPlayerID++
	o.players[player.ID] = player

	o.persistPlayer(player)
	o.broadcastPlayers()
	logger.Log.Infof("Player %s joined session %s as #%d", name, o.session.Code, player.ID)
	return player, false, nil
}

// SetConnected flips a player's connection flag. Players are never removed
// mid-session; a dropped socket only marks them disconnected.
func (o *Orchestrator) SetConnected(playerID int64, connected bool) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	player, exists := o.players[playerID]
	if !exists {
		return ErrUnknownPlayer
	}
	if player.Connected == connected {
		return nil
	}
	player.Connected = connected
	o.persistPlayer(player)
	o.broadcastPlayers()
	return nil
}

func (o *Orchestrator) Player(playerID int64) (*models.Player, bool) {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	p, exists := o.players[playerID]
	return p, exists
}

// --- lifecycle ---

func (o *Orchestrator) StartGame() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.session.Status != models.StatusWaiting {
		return ErrGameNotWaiting
	}
	if o.connectedCount() == 0 {
		return ErrNoConnectedPlayers
	}

	o.session.Status = models.StatusActive
	o.session.StartedAt = time.Now()
	o.persistSession()

	o.broadcast(&models.Event{Type: models.EventGameStarted, Data: o.snapshotLocked()})
	logger.Log.Infof("Game started in session %s with %d players", o.session.Code, len(o.players))
	return nil
}

// StartRound begins the next round, or finishes the game when every
// configured round has been played.
func (o *Orchestrator) StartRound() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.session.Status == models.StatusFinished {
		return ErrGameFinished
	}
	if o.session.Status != models.StatusActive {
		return ErrGameNotActive
	}
	if o.roundActive {
		return ErrRoundInProgress
	}
	if o.session.CurrentRound >= o.numRounds() {
		o.finishGame()
		return nil
	}

	n := o.session.CurrentRound + 1
	h, err := o.handler(n)
	if err != nil {
		return err
	}
	payload, err := h.Generate(n)
	if err != nil {
		return err
	}

	o.session.CurrentRound = n
	o.roundActive = true
	o.deps.Store.Set(store.Key(o.session.Code, n, store.CategoryRound), payload, store.DefaultTTL)
	o.deps.Store.Set(o.answersKey(n), map[int64]*models.Answer{}, store.DefaultTTL)
	if o.deps.Metrics != nil {
		o.deps.Metrics.RoundsStarted.Inc()
	}

	seconds := o.roundSeconds()
	o.broadcast(&models.Event{Type: models.EventRoundStarted, Data: map[string]any{
		"round":   payload.Redacted(),
		"seconds": seconds,
	}})

	// Mastermind paces itself per phase; every other type runs one
	// countdown for the whole round.
	if payload.Type != models.RoundMastermind {
		o.startCountdown(n, seconds, o.handleRoundExpiry)
	}

	o.persistSession()
	logger.Log.Infof("Round %d (%s) started in session %s", n, payload.Type, o.session.Code)
	return nil
}

// EndRound is the GM trigger. Losing the race against the timer expiry is
// an error here, not a second round_ended broadcast.
func (o *Orchestrator) EndRound() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.roundActive {
		return ErrNoActiveRound
	}
	return o.endRound("gm")
}

func (o *Orchestrator) handleRoundExpiry(n int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	// A GM end or a restart may have won the race while this fired.
	if !o.roundActive || o.session.CurrentRound != n {
		return
	}
	if err := o.endRound("timer"); err != nil {
		logger.Log.Errorf("Timer-driven round end failed in session %s: %v", o.session.Code, err)
	}
}

func (o *Orchestrator) endRound(trigger string) error {
	o.deps.Timers.Cancel(o.session.Code)

	n := o.session.CurrentRound
	h, err := o.handler(n)
	if err != nil {
		return err
	}

	answers := o.roundAnswers(n)
	rs, err := h.End(n, answers, o.players)
	if err != nil {
		return err
	}
	o.roundActive = false
	o.deps.Store.Set(o.resultsKey(n), rs, store.DefaultTTL)

	// Choice rounds score on reveal. Free text waits for GM validation and
	// mastermind already applied points during play.
	scored := false
	if !rs.PointsApplied && rs.Type == models.RoundMultipleChoice {
		for _, a := range rs.Answers {
			if a.Points != 0 {
				o.applyPoints(a.PlayerID, a.Points, n, "round_score")
				scored = true
			}
		}
	}

	o.persistRound(n, rs)
	o.broadcast(&models.Event{Type: models.EventRoundEnded, Data: rs})
	for _, a := range rs.Answers {
		o.deps.Broadcaster.SendToPlayer(o.session.Code, a.PlayerID, &models.Event{
			Type: models.EventPlayerResult,
			Data: a,
		})
	}
	if scored {
		o.broadcastScores()
	}

	logger.Log.Infof("Round %d ended in session %s (%s)", n, o.session.Code, trigger)
	return nil
}

// RestartGame resets the session to a fresh waiting state. Players and
// their sockets survive; scores, streaks, and all per-round state do not.
func (o *Orchestrator) RestartGame() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	o.deps.Timers.Cancel(o.session.Code)
	o.deps.Store.DeletePrefix(store.SessionPrefix(o.session.Code))

	o.session.Status = models.StatusWaiting
	o.session.CurrentRound = 0
	o.session.StartedAt = time.Time{}
	o.session.FinishedAt = time.Time{}
	o.roundActive = false

	for _, p := range o.players {
		p.Score = 0
		p.Streak = 0
		o.persistPlayer(p)
	}
	o.persistSession()

	o.broadcast(&models.Event{Type: models.EventGameRestarted, Data: o.snapshotLocked()})
	logger.Log.Infof("Session %s restarted", o.session.Code)
	return nil
}

func (o *Orchestrator) finishGame() {
	o.session.Status = models.StatusFinished
	o.session.FinishedAt = time.Now()
	o.persistSession()

	leaderboard := scoring.Leaderboard(o.playerList())
	o.broadcast(&models.Event{Type: models.EventGameComplete, Data: map[string]any{
		"leaderboard": leaderboard,
	}})
	logger.Log.Infof("Game complete in session %s", o.session.Code)
}

// --- answers and validation ---

// SubmitAnswer records a free-text or choice answer. Resubmitting before
// the round ends overwrites: last write wins.
func (o *Orchestrator) SubmitAnswer(playerID int64, text string) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if !o.roundActive {
		// Stale submissions lose the race against the round end; they are
		// dropped rather than surfaced as an error to the player.
		logger.Log.Infof("Ignoring answer from player %d after round end in session %s", playerID, o.session.Code)
		return nil
	}
	player, exists := o.players[playerID]
	if !exists {
		return ErrUnknownPlayer
	}
	if o.currentType() == models.RoundMastermind {
		return ErrWrongSubmission
	}

	n := o.session.CurrentRound
	answers := o.answerMap(n)
	answers[playerID] = &models.Answer{
		PlayerID:    playerID,
		PlayerName:  player.Name,
		RoundNumber: n,
		Text:        text,
		SubmittedAt: time.Now(),
	}
	o.deps.Store.Set(o.answersKey(n), answers, store.DefaultTTL)

	o.deps.Broadcaster.SendToGM(o.session.Code, &models.Event{
		Type: models.EventRoundUpdate,
		Data: map[string]any{"answers_submitted": len(answers)},
	})
	return nil
}

// ValidateAnswer applies a GM validity override to the most recently ended
// round. The window closes when the next round starts.
func (o *Orchestrator) ValidateAnswer(playerID int64, isValid bool) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	if o.roundActive {
		return ErrRoundInProgress
	}
	n := o.session.CurrentRound
	rs := o.results(n)
	if rs == nil {
		return ErrNoValidationWindow
	}

	h, err := o.handler(n)
	if err != nil {
		return err
	}

	before := make(map[int64]int, len(rs.Answers))
	for _, a := range rs.Answers {
		before[a.PlayerID] = a.Points
	}

	changed, err := h.ValidateOverride(rs.Answers, playerID, isValid)
	if err != nil {
		return err
	}

	for _, a := range changed {
		if delta := a.Points - before[a.PlayerID]; delta != 0 {
			o.applyPoints(a.PlayerID, delta, n, "validation_override")
		}
	}
	o.deps.Store.Set(o.resultsKey(n), rs, store.DefaultTTL)

	o.broadcast(&models.Event{Type: models.EventRoundUpdate, Data: rs})
	o.broadcastScores()
	return nil
}

// --- mastermind ---

func (o *Orchestrator) SelectPlayer(playerID int64) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	mh, n, err := o.mastermind()
	if err != nil {
		return err
	}
	player, exists := o.players[playerID]
	if !exists {
		return ErrUnknownPlayer
	}
	if err := mh.SelectPlayer(n, player); err != nil {
		return err
	}
	o.broadcastMastermind(mh, n)
	return nil
}

// ReadyResponse handles both ready checks: the per-player one before rapid
// fire and the shared one before general knowledge. GM and player are
// equally valid triggers, so a double send is absorbed.
func (o *Orchestrator) ReadyResponse(playerID int64, isReady bool, actor round.Actor) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	mh, n, err := o.mastermind()
	if err != nil {
		return err
	}

	if mh.State(n).Phase == round.PhaseAwaitingGKReady {
		if !isReady {
			return nil
		}
		if err := mh.StartGeneralKnowledge(n); err != nil {
			return err
		}
		o.startCountdown(n, o.gameInt(o.deps.Game.GeneralKnowledgeSeconds, 120), o.handleGKExpiry)
		o.broadcastMastermind(mh, n)
		return nil
	}

	player := o.players[playerID]
	if player == nil {
		player = o.players[mh.State(n).CurrentPlayerID]
	}
	started, err := mh.ReadyResponse(n, player, isReady, actor)
	if err != nil {
		return err
	}
	if started {
		o.startCountdown(n, o.gameInt(o.deps.Game.RapidFireSeconds, 90), o.handleRapidFireExpiry)
	}
	o.broadcastMastermind(mh, n)
	return nil
}

// SubmitRapidFire grades answers immediately and applies the points to the
// player's total in the same step.
func (o *Orchestrator) SubmitRapidFire(playerID int64, answers []round.RapidFireAnswer) error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	mh, n, err := o.mastermind()
	if err != nil {
		return err
	}
	player, exists := o.players[playerID]
	if !exists {
		return ErrUnknownPlayer
	}

	result, err := mh.SubmitRapidFire(n, player, answers)
	if err != nil {
		return err
	}

	if result.Points != 0 {
		o.applyPoints(playerID, result.Points, n, "rapid_fire")
	}
	o.deps.Broadcaster.SendToPlayer(o.session.Code, playerID, &models.Event{
		Type: models.EventPlayerResult,
		Data: result,
	})
	o.broadcastScores()

	state := mh.State(n)
	if result.PhaseDone && state.Phase == round.PhasePlayerComplete {
		o.deps.Timers.Cancel(o.session.Code)
		o.broadcast(&models.Event{Type: models.EventPlayerCompleted, Data: map[string]any{
			"player_id": playerID,
		}})
	}
	if state.Phase == round.PhaseGeneralKnowledge && mh.AllGKSubmitted(n, o.players) {
		if err := mh.CompleteGeneralKnowledge(n); err == nil {
			o.deps.Timers.Cancel(o.session.Code)
		}
	}
	o.broadcastMastermind(mh, n)
	return nil
}

func (o *Orchestrator) ContinueToNextPlayer() error {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	mh, n, err := o.mastermind()
	if err != nil {
		return err
	}
	if _, err := mh.ContinueToNextPlayer(n, o.players); err != nil {
		return err
	}
	o.broadcastMastermind(mh, n)
	return nil
}

func (o *Orchestrator) handleRapidFireExpiry(n int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	mh, current, err := o.mastermind()
	if err != nil || current != n {
		return
	}
	state := mh.State(n)
	playerID := state.CurrentPlayerID
	if err := mh.CompleteCurrentPlayer(n); err != nil {
		// The player finished on their own just before the timer fired.
		var te *round.TransitionError
		if !errors.As(err, &te) {
			logger.Log.Errorf("Rapid fire expiry failed in session %s: %v", o.session.Code, err)
		}
		return
	}
	o.broadcast(&models.Event{Type: models.EventPlayerCompleted, Data: map[string]any{
		"player_id": playerID,
	}})
	o.broadcastMastermind(mh, n)
}

func (o *Orchestrator) handleGKExpiry(n int) {
	o.mutex.Lock()
	defer o.mutex.Unlock()

	mh, current, err := o.mastermind()
	if err != nil || current != n {
		return
	}
	if err := mh.CompleteGeneralKnowledge(n); err != nil {
		var te *round.TransitionError
		if !errors.As(err, &te) {
			logger.Log.Errorf("General knowledge expiry failed in session %s: %v", o.session.Code, err)
		}
		return
	}
	o.broadcastMastermind(mh, n)
}

func (o *Orchestrator) mastermind() (*round.MastermindHandler, int, error) {
	if !o.roundActive {
		return nil, 0, ErrNoActiveRound
	}
	n := o.session.CurrentRound
	if o.currentType() != models.RoundMastermind {
		return nil, 0, ErrNotMastermindRound
	}
	h, err := o.handler(n)
	if err != nil {
		return nil, 0, err
	}
	return h.(*round.MastermindHandler), n, nil
}

// --- snapshot ---

// Snapshot builds the full client-facing state. The hub sends it to every
// connection immediately after identify.
func (o *Orchestrator) Snapshot() *GameState {
	o.mutex.Lock()
	defer o.mutex.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() *GameState {
	sessionCopy := *o.session
	state := &GameState{
		Session:     &sessionCopy,
		Players:     o.playerList(),
		RoundActive: o.roundActive,
	}

	n := o.session.CurrentRound
	if o.roundActive {
		if remaining, ok := o.deps.Timers.Remaining(o.session.Code); ok {
			state.TimeRemaining = remaining
		}
		if h, err := o.handler(n); err == nil {
			if payload, err := h.Generate(n); err == nil {
				payload = payload.Redacted()
				if mh, ok := h.(*round.MastermindHandler); ok {
					payload.Mastermind = mh.View(n, o.players)
				}
				state.Round = payload
			}
		}
	} else if n > 0 {
		state.Results = o.results(n)
	}

	if o.session.Status == models.StatusFinished {
		state.Leaderboard = scoring.Leaderboard(state.Players)
	}
	return state
}

// --- internals ---

func (o *Orchestrator) handler(n int) (round.Handler, error) {
	return round.NewHandler(o.session.Config.TypeForRound(n), round.Deps{
		SessionCode: o.session.Code,
		Config:      o.session.Config,
		Points: round.Points{
			FreeText: scoring.FreeTextPoints{
				Unique: o.gameInt(o.deps.Game.UniquePoints, 10),
				Valid:  o.gameInt(o.deps.Game.ValidPoints, 5),
			},
			Choice: scoring.ChoicePoints{
				Correct:     o.gameInt(o.deps.Game.CorrectPoints, 10),
				StreakBonus: o.deps.Game.StreakBonus,
			},
		},
		Store:              o.deps.Store,
		Bank:               o.deps.Bank,
		QuestionsPerPlayer: o.gameInt(o.deps.Game.QuestionsPerPlayer, 20),
	})
}

func (o *Orchestrator) currentType() models.RoundType {
	return o.session.Config.TypeForRound(o.session.CurrentRound)
}

func (o *Orchestrator) numRounds() int {
	if o.session.Config.NumRounds > 0 {
		return o.session.Config.NumRounds
	}
	return o.gameInt(o.deps.Game.NumRounds, 5)
}

func (o *Orchestrator) roundSeconds() int {
	if o.session.Config.RoundSeconds > 0 {
		return o.session.Config.RoundSeconds
	}
	return o.gameInt(o.deps.Game.RoundSeconds, 60)
}

func (o *Orchestrator) gameInt(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}

// startCountdown runs the session's single countdown. Ticks are broadcast
// without the session mutex; expiry callbacks re-acquire it.
func (o *Orchestrator) startCountdown(n, seconds int, onExpire func(n int)) {
	code := o.session.Code
	o.deps.Timers.Start(code, time.Duration(seconds)*time.Second,
		func(remaining int) {
			o.deps.Broadcaster.BroadcastToSession(code, &models.Event{
				Type: models.EventTimerUpdate,
				Data: map[string]any{"remaining": remaining},
			})
		},
		func() { onExpire(n) })
}

func (o *Orchestrator) applyPoints(playerID int64, delta, roundNumber int, reason string) {
	player, exists := o.players[playerID]
	if !exists {
		return
	}
	player.Score += delta
	o.persistPlayer(player)
	if o.deps.DB != nil {
		if err := o.deps.DB.AppendScoreHistory(o.session.Code, playerID, roundNumber, delta, reason); err != nil {
			logger.Log.Warnf("Score history write failed for session %s: %v", o.session.Code, err)
		}
	}
}

func (o *Orchestrator) answersKey(n int) string {
	return store.Key(o.session.Code, n, store.CategoryAnswers)
}

func (o *Orchestrator) resultsKey(n int) string {
	return store.Key(o.session.Code, n, store.CategoryResults)
}

func (o *Orchestrator) answerMap(n int) map[int64]*models.Answer {
	if v, ok := o.deps.Store.Get(o.answersKey(n)); ok {
		if m, ok := v.(map[int64]*models.Answer); ok {
			return m
		}
	}
	return make(map[int64]*models.Answer)
}

func (o *Orchestrator) roundAnswers(n int) []*models.Answer {
	m := o.answerMap(n)
	answers := make([]*models.Answer, 0, len(m))
	for _, a := range m {
		answers = append(answers, a)
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].PlayerID < answers[j].PlayerID })
	return answers
}

func (o *Orchestrator) results(n int) *round.ResultSet {
	if v, ok := o.deps.Store.Get(o.resultsKey(n)); ok {
		if rs, ok := v.(*round.ResultSet); ok {
			return rs
		}
	}
	return nil
}

func (o *Orchestrator) playerList() []*models.Player {
	players := make([]*models.Player, 0, len(o.players))
	for _, p := range o.players {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool { return players[i].JoinedAt.Before(players[j].JoinedAt) })
	return players
}

func (o *Orchestrator) connectedCount() int {
	count := 0
	for _, p := range o.players {
		if p.Connected {
			count++
		}
	}
	return count
}

func (o *Orchestrator) broadcast(event *models.Event) {
	o.deps.Broadcaster.BroadcastToSession(o.session.Code, event)
}

func (o *Orchestrator) broadcastPlayers() {
	o.broadcast(&models.Event{Type: models.EventGameUpdate, Data: map[string]any{
		"players": o.playerList(),
	}})
}

func (o *Orchestrator) broadcastScores() {
	o.broadcast(&models.Event{Type: models.EventScoreUpdate, Data: map[string]any{
		"players": o.playerList(),
	}})
}

func (o *Orchestrator) broadcastMastermind(mh *round.MastermindHandler, n int) {
	o.broadcast(&models.Event{Type: models.EventMastermindProgress, Data: mh.View(n, o.players)})
}

func (o *Orchestrator) persistSession() {
	if o.deps.DB == nil {
		return
	}
	if err := o.deps.DB.SaveSession(o.session); err != nil {
		logger.Log.Warnf("Session persist failed for %s: %v", o.session.Code, err)
	}
}

func (o *Orchestrator) persistPlayer(p *models.Player) {
	if o.deps.DB == nil {
		return
	}
	if err := o.deps.DB.SavePlayer(o.session.Code, p); err != nil {
		logger.Log.Warnf("Player persist failed for %s/%d: %v", o.session.Code, p.ID, err)
	}
}

func (o *Orchestrator) persistRound(n int, rs *round.ResultSet) {
	o.persistSession()
	for _, p := range o.players {
		o.persistPlayer(p)
	}
	if o.deps.DB == nil {
		return
	}
	if err := o.deps.DB.SaveRoundAnswers(o.session.Code, n, rs.Answers); err != nil {
		logger.Log.Warnf("Round answer persist failed for %s round %d: %v", o.session.Code, n, err)
	}
}
