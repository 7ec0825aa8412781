// round/mastermind.go
package round

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"sort"

	"github.com/shawncarter/NewQuiz/logger"
	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/scoring"
	"github.com/shawncarter/NewQuiz/store"
)

// RapidFireAnswer is one answer inside a rapid-fire or general-knowledge
// submission, keyed by the question it answers.
type RapidFireAnswer struct {
	QuestionID     int    `json:"question_id"`
	Choice         string `json:"choice"`
	ResponseTimeMS int    `json:"response_time_ms,omitempty"`
}

// QuestionResult is the immediate grading outcome for one question.
type QuestionResult struct {
	QuestionID int    `json:"question_id"`
	Correct    bool   `json:"correct"`
	Points     int    `json:"points"`
	Answer     string `json:"correct_answer"` // revealed once graded
}

// RapidFireResult summarizes a player's graded submission.
type RapidFireResult struct {
	PlayerID     int64            `json:"player_id"`
	CorrectCount int              `json:"correct_count"`
	Total        int              `json:"total"`
	Points       int              `json:"points"`
	Results      []QuestionResult `json:"results"`
	PhaseDone    bool             `json:"phase_done"` // player finished their question set
}

// MastermindState is the sub-game's owned state, one value per
// (session, round), persisted in the store on every transition.
type MastermindState struct {
	Phase           Phase
	CurrentPlayerID int64
	Completed       map[int64]bool
	QuestionSets    map[int64][]models.Question // specialist sets, pre-loaded per player
	GKQuestions     []models.Question           // shared simultaneous-phase set
	QuestionIndex   map[int64]int               // per-player progress during rapid fire
	Answered        map[int64]map[int]bool      // (player, question) -> graded
	GKSubmitted     map[int64]bool
	Streaks         map[int64]int
	CorrectCounts   map[int64]int
	PointsEarned    map[int64]int
}

func newMastermindState() *MastermindState {
	return &MastermindState{
		Phase:         PhaseSelectingPlayer,
		Completed:     make(map[int64]bool),
		QuestionSets:  make(map[int64][]models.Question),
		QuestionIndex: make(map[int64]int),
		Answered:      make(map[int64]map[int]bool),
		GKSubmitted:   make(map[int64]bool),
		Streaks:       make(map[int64]int),
		CorrectCounts: make(map[int64]int),
		PointsEarned:  make(map[int64]int),
	}
}

func (s *MastermindState) transition(to Phase) error {
	if !CanTransition(s.Phase, to) {
		return newTransitionError(s.Phase, to)
	}
	s.Phase = to
	return nil
}

// PlayerSummary is the client-safe slice of a player used in views.
type PlayerSummary struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	SpecialistSubject string `json:"specialist_subject"`
}

// MastermindView is the broadcastable projection of the sub-game. Questions
// are always redacted; correct answers only ever travel inside grading
// results after the question has been answered.
type MastermindView struct {
	Phase              Phase             `json:"phase"`
	CurrentPlayer      *PlayerSummary    `json:"current_player,omitempty"`
	CompletedPlayerIDs []int64           `json:"completed_player_ids"`
	AvailablePlayers   []PlayerSummary   `json:"available_players,omitempty"`
	QuestionsPerPlayer int               `json:"questions_per_player"`
	QuestionIndex      int               `json:"question_index,omitempty"`
	Questions          []models.Question `json:"questions,omitempty"`
}

// MastermindHandler runs the specialist/rapid-fire round: one player at a
// time answers their specialist set, then everyone answers a shared general
// knowledge set under one timer. All mutation goes through the owning
// orchestrator's lock; the store carries the state across calls.
type MastermindHandler struct {
	deps Deps
}

func (h *MastermindHandler) Type() models.RoundType {
	return models.RoundMastermind
}

func (h *MastermindHandler) stateKey(roundNumber int) string {
	return store.Key(h.deps.SessionCode, roundNumber, store.CategoryMastermind)
}

// State loads the round's sub-game state, initializing a fresh one when
// absent. Mid-round TTL expiry therefore recovers to player selection
// rather than wedging the round.
func (h *MastermindHandler) State(roundNumber int) *MastermindState {
	if v, ok := h.deps.Store.Get(h.stateKey(roundNumber)); ok {
		if st, ok := v.(*MastermindState); ok {
			return st
		}
	}
	st := newMastermindState()
	h.save(roundNumber, st)
	return st
}

func (h *MastermindHandler) save(roundNumber int, st *MastermindState) {
	h.deps.Store.Set(h.stateKey(roundNumber), st, store.DefaultTTL)
}

func (h *MastermindHandler) Generate(roundNumber int) (*Payload, error) {
	st := h.State(roundNumber)
	return &Payload{
		RoundNumber: roundNumber,
		Type:        models.RoundMastermind,
		Mastermind: &MastermindView{
			Phase:              st.Phase,
			CompletedPlayerIDs: completedIDs(st),
			QuestionsPerPlayer: h.deps.QuestionsPerPlayer,
		},
	}, nil
}

// SelectPlayer moves selecting_player -> awaiting_ready for the chosen
// player and pre-loads their specialist question set.
func (h *MastermindHandler) SelectPlayer(roundNumber int, player *models.Player) error {
	st := h.State(roundNumber)

	if st.Phase != PhaseSelectingPlayer {
		if st.CurrentPlayerID != 0 {
			return ErrPlayerBusy
		}
		return newTransitionError(st.Phase, PhaseAwaitingReady)
	}
	if st.Completed[player.ID] {
		return ErrPlayerCompleted
	}
	if player.SpecialistSubject == "" {
		return ErrNoSpecialistSubject
	}

	if _, loaded := st.QuestionSets[player.ID]; !loaded {
		set := h.deps.Bank.Specialist(player.SpecialistSubject, h.deps.QuestionsPerPlayer, h.playerRNG(roundNumber, player.ID))
		if set != nil {
			st.QuestionSets[player.ID] = set
		}
	}

	if err := st.transition(PhaseAwaitingReady); err != nil {
		return err
	}
	st.CurrentPlayerID = player.ID
	st.QuestionIndex[player.ID] = 0
	h.save(roundNumber, st)

	logger.Log.Infof("Selected player %s for specialist round %d in session %s", player.Name, roundNumber, h.deps.SessionCode)
	return nil
}

// ReadyResponse handles the ready handshake. GM and player are both valid
// triggers; a duplicate "yes" after rapid fire has begun is a no-op rather
// than an error. A "yes" without a loaded question set attempts one
// synchronous fallback generation and fails loudly if none can be produced.
func (h *MastermindHandler) ReadyResponse(roundNumber int, player *models.Player, isReady bool, actor Actor) (started bool, err error) {
	st := h.State(roundNumber)

	if st.Phase == PhaseRapidFire && isReady && player != nil && st.CurrentPlayerID == player.ID {
		return false, nil // the other trigger already fired
	}
	if st.Phase != PhaseAwaitingReady {
		return false, newTransitionError(st.Phase, PhaseRapidFire)
	}

	if !isReady {
		if err := st.transition(PhaseSelectingPlayer); err != nil {
			return false, err
		}
		st.CurrentPlayerID = 0
		h.save(roundNumber, st)
		logger.Log.Infof("Player not ready (%s trigger), returning to selection in session %s", actor, h.deps.SessionCode)
		return false, nil
	}

	current := st.CurrentPlayerID
	if _, loaded := st.QuestionSets[current]; !loaded {
		subject := ""
		if player != nil && player.ID == current {
			subject = player.SpecialistSubject
		}
		set := h.deps.Bank.Specialist(subject, h.deps.QuestionsPerPlayer, h.playerRNG(roundNumber, current))
		if set == nil {
			return false, fmt.Errorf("%w: player %d", ErrNoQuestionSet, current)
		}
		st.QuestionSets[current] = set
		logger.Log.Warnf("Fallback-generated question set for player %d in session %s", current, h.deps.SessionCode)
	}

	if err := st.transition(PhaseRapidFire); err != nil {
		return false, err
	}
	h.save(roundNumber, st)
	logger.Log.Infof("Rapid fire started for player %d in session %s (%s trigger)", current, h.deps.SessionCode, actor)
	return true, nil
}

// SubmitRapidFire grades a player's answers question by question, applying
// the per-correct-answer points and streak immediately. During rapid fire
// only the current player may submit; during general knowledge any player
// may, once.
func (h *MastermindHandler) SubmitRapidFire(roundNumber int, player *models.Player, answers []RapidFireAnswer) (*RapidFireResult, error) {
	st := h.State(roundNumber)

	switch st.Phase {
	case PhaseRapidFire:
		if player.ID != st.CurrentPlayerID {
			return nil, ErrNotCurrentPlayer
		}
		result := h.grade(st, player.ID, st.QuestionSets[player.ID], answers)
		if st.QuestionIndex[player.ID] >= len(st.QuestionSets[player.ID]) {
			if err := h.completeCurrent(st); err != nil {
				return nil, err
			}
			result.PhaseDone = true
		}
		h.save(roundNumber, st)
		return result, nil

	case PhaseGeneralKnowledge:
		if st.GKSubmitted[player.ID] {
			return nil, fmt.Errorf("player %d already submitted general knowledge answers", player.ID)
		}
		result := h.grade(st, player.ID, st.GKQuestions, answers)
		st.GKSubmitted[player.ID] = true
		result.PhaseDone = true
		h.save(roundNumber, st)
		return result, nil

	default:
		return nil, newTransitionError(st.Phase, PhasePlayerComplete)
	}
}

func (h *MastermindHandler) grade(st *MastermindState, playerID int64, set []models.Question, answers []RapidFireAnswer) *RapidFireResult {
	byID := make(map[int]models.Question, len(set))
	for _, q := range set {
		byID[q.ID] = q
	}
	if st.Answered[playerID] == nil {
		st.Answered[playerID] = make(map[int]bool)
	}

	result := &RapidFireResult{PlayerID: playerID, Total: len(set)}
	for _, a := range answers {
		q, known := byID[a.QuestionID]
		if !known || st.Answered[playerID][a.QuestionID] {
			continue
		}
		st.Answered[playerID][a.QuestionID] = true
		st.QuestionIndex[playerID]++

		points, streak, correct := scoring.ScoreChoice(a.Choice, q.CorrectAnswer, st.Streaks[playerID], h.deps.Points.Choice)
		st.Streaks[playerID] = streak
		if correct {
			result.CorrectCount++
			st.CorrectCounts[playerID]++
		}
		result.Points += points
		st.PointsEarned[playerID] += points
		result.Results = append(result.Results, QuestionResult{
			QuestionID: q.ID,
			Correct:    correct,
			Points:     points,
			Answer:     q.CorrectAnswer,
		})
	}
	return result
}

// CompleteCurrentPlayer forces rapid_fire -> player_complete, the timer
// expiry path. Racing with an all-questions-answered completion is safe:
// the loser sees a TransitionError and must treat it as already done.
func (h *MastermindHandler) CompleteCurrentPlayer(roundNumber int) error {
	st := h.State(roundNumber)
	if st.Phase != PhaseRapidFire {
		return newTransitionError(st.Phase, PhasePlayerComplete)
	}
	if err := h.completeCurrent(st); err != nil {
		return err
	}
	h.save(roundNumber, st)
	return nil
}

func (h *MastermindHandler) completeCurrent(st *MastermindState) error {
	if err := st.transition(PhasePlayerComplete); err != nil {
		return err
	}
	st.Completed[st.CurrentPlayerID] = true
	return nil
}

// ContinueToNextPlayer leaves player_complete, either back to selection or
// on to the general knowledge ready check when no eligible player remains.
func (h *MastermindHandler) ContinueToNextPlayer(roundNumber int, players map[int64]*models.Player) (Phase, error) {
	st := h.State(roundNumber)
	if st.Phase != PhasePlayerComplete {
		return st.Phase, newTransitionError(st.Phase, PhaseSelectingPlayer)
	}

	st.CurrentPlayerID = 0
	next := PhaseSelectingPlayer
	if len(h.eligible(st, players)) == 0 {
		next = PhaseAwaitingGKReady
	}
	if err := st.transition(next); err != nil {
		return st.Phase, err
	}
	h.save(roundNumber, st)
	return next, nil
}

// StartGeneralKnowledge begins the simultaneous phase: one shared question
// set, one shared timer, everyone at once.
func (h *MastermindHandler) StartGeneralKnowledge(roundNumber int) error {
	st := h.State(roundNumber)
	if st.Phase != PhaseAwaitingGKReady {
		return newTransitionError(st.Phase, PhaseGeneralKnowledge)
	}

	if len(st.GKQuestions) == 0 {
		set := h.deps.Bank.GeneralKnowledge(h.deps.QuestionsPerPlayer, seededRNG(h.deps.SessionCode, roundNumber))
		if len(set) == 0 {
			return fmt.Errorf("%w: general knowledge", ErrNoQuestionSet)
		}
		st.GKQuestions = set
	}
	if err := st.transition(PhaseGeneralKnowledge); err != nil {
		return err
	}
	h.save(roundNumber, st)
	return nil
}

// AllGKSubmitted reports whether every connected player has submitted.
func (h *MastermindHandler) AllGKSubmitted(roundNumber int, players map[int64]*models.Player) bool {
	st := h.State(roundNumber)
	for _, p := range players {
		if p.Connected && !st.GKSubmitted[p.ID] {
			return false
		}
	}
	return true
}

// CompleteGeneralKnowledge ends the shared phase: timer expiry or everyone
// finished. Idempotence is the caller's via the returned TransitionError.
func (h *MastermindHandler) CompleteGeneralKnowledge(roundNumber int) error {
	st := h.State(roundNumber)
	if st.Phase != PhaseGeneralKnowledge {
		return newTransitionError(st.Phase, PhaseAllComplete)
	}
	if err := st.transition(PhaseAllComplete); err != nil {
		return err
	}
	h.save(roundNumber, st)
	return nil
}

// View projects the sub-game for broadcast. Question sets are redacted and
// only the active set travels.
func (h *MastermindHandler) View(roundNumber int, players map[int64]*models.Player) *MastermindView {
	st := h.State(roundNumber)

	view := &MastermindView{
		Phase:              st.Phase,
		CompletedPlayerIDs: completedIDs(st),
		QuestionsPerPlayer: h.deps.QuestionsPerPlayer,
	}

	if current := players[st.CurrentPlayerID]; current != nil {
		view.CurrentPlayer = &PlayerSummary{ID: current.ID, Name: current.Name, SpecialistSubject: current.SpecialistSubject}
		view.QuestionIndex = st.QuestionIndex[current.ID]
	}

	switch st.Phase {
	case PhaseSelectingPlayer:
		for _, p := range h.eligible(st, players) {
			view.AvailablePlayers = append(view.AvailablePlayers, PlayerSummary{ID: p.ID, Name: p.Name, SpecialistSubject: p.SpecialistSubject})
		}
	case PhaseRapidFire:
		view.Questions = redact(st.QuestionSets[st.CurrentPlayerID])
	case PhaseGeneralKnowledge:
		view.Questions = redact(st.GKQuestions)
	}
	return view
}

// End summarizes the sub-game into one answer row per participant. Points
// were applied per question during play, so PointsApplied is set.
func (h *MastermindHandler) End(roundNumber int, answers []*models.Answer, players map[int64]*models.Player) (*ResultSet, error) {
	st := h.State(roundNumber)

	summaries := make([]*models.Answer, 0, len(players))
	for _, p := range players {
		graded := st.Answered[p.ID]
		if len(graded) == 0 {
			continue
		}
		correct, points := st.CorrectCounts[p.ID], st.PointsEarned[p.ID]
		summaries = append(summaries, &models.Answer{
			PlayerID:    p.ID,
			PlayerName:  p.Name,
			RoundNumber: roundNumber,
			Text:        fmt.Sprintf("Mastermind: %d/%d correct", correct, len(graded)),
			IsValid:     correct > 0,
			Points:      points,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].PlayerID < summaries[j].PlayerID })

	return &ResultSet{
		RoundNumber:   roundNumber,
		Type:          models.RoundMastermind,
		Answers:       summaries,
		PointsApplied: true,
	}, nil
}

func (h *MastermindHandler) ValidateOverride(answers []*models.Answer, playerID int64, isValid bool) ([]*models.Answer, error) {
	return nil, ErrValidationUnsupported
}

func (h *MastermindHandler) eligible(st *MastermindState, players map[int64]*models.Player) []*models.Player {
	var out []*models.Player
	for _, p := range players {
		if p.Connected && p.SpecialistSubject != "" && !st.Completed[p.ID] {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

// playerRNG seeds per-player question selection so two players in the same
// round draw different sets.
func (h *MastermindHandler) playerRNG(roundNumber int, playerID int64) *rand.Rand {
	hash := fnv.New64a()
	fmt.Fprintf(hash, "%s:%d:%d", h.deps.SessionCode, roundNumber, playerID)
	return rand.New(rand.NewSource(int64(hash.Sum64())))
}

func completedIDs(st *MastermindState) []int64 {
	ids := make([]int64, 0, len(st.Completed))
	for id := range st.Completed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func redact(set []models.Question) []models.Question {
	out := make([]models.Question, 0, len(set))
	for _, q := range set {
		out = append(out, q.Redacted())
	}
	return out
}
