// game/manager.go
package game

import (
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/shawncarter/NewQuiz/logger"
	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/store"
)

var ErrSessionNotFound = errors.New("session not found")

// codeAlphabet omits easily confused characters (0/O, 1/I).
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
const codeLength = 6

// Manager owns every live session, keyed by join code.
type Manager struct {
	mutex    sync.RWMutex
	sessions map[string]*Orchestrator
	deps     Deps
	rng      *rand.Rand
}

func NewManager(deps Deps) *Manager {
	return &Manager{
		sessions: make(map[string]*Orchestrator),
		deps:     deps,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CreateSession builds a new waiting session with a fresh join code.
func (m *Manager) CreateSession(cfg models.SessionConfig) *Orchestrator {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	code := m.generateCode()
	session := &models.Session{
		Code:       code,
		Status:     models.StatusWaiting,
		MaxPlayers: m.maxPlayers(),
		Config:     cfg,
		CreatedAt:  time.Now(),
	}

	o := NewOrchestrator(session, m.deps)
	m.sessions[code] = o

	if m.deps.Metrics != nil {
		m.deps.Metrics.ActiveSessions.Inc()
	}
	o.persistSession()
	logger.Log.Infof("Created session %s (%d rounds)", code, session.Config.NumRounds)
	return o
}

func (m *Manager) Get(code string) (*Orchestrator, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	o, exists := m.sessions[code]
	return o, exists
}

// Remove drops a session and clears its ephemeral state.
func (m *Manager) Remove(code string) {
	m.mutex.Lock()
	_, exists := m.sessions[code]
	if exists {
		delete(m.sessions, code)
	}
	m.mutex.Unlock()

	if !exists {
		return
	}
	m.deps.Timers.Cancel(code)
	m.deps.Store.DeletePrefix(store.SessionPrefix(code))
	if m.deps.Metrics != nil {
		m.deps.Metrics.ActiveSessions.Dec()
	}
	logger.Log.Infof("Removed session %s", code)
}

// Count reports the number of live sessions.
func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.sessions)
}

// Codes lists the live session codes.
func (m *Manager) Codes() []string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	codes := make([]string, 0, len(m.sessions))
	for code := range m.sessions {
		codes = append(codes, code)
	}
	return codes
}

func (m *Manager) maxPlayers() int {
	if m.deps.Game.MaxPlayers > 0 {
		return m.deps.Game.MaxPlayers
	}
	return 10
}

// generateCode returns a join code unused by any live session. Caller holds
// the manager mutex.
func (m *Manager) generateCode() string {
	for {
		code := make([]byte, codeLength)
		for i := range code {
			code[i] = codeAlphabet[m.rng.Intn(len(codeAlphabet))]
		}
		if _, taken := m.sessions[string(code)]; !taken {
			return string(code)
		}
	}
}
