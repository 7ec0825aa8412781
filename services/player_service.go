// services/player_service.go
package services

import (
	"github.com/shawncarter/NewQuiz/game"
	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/persistence"
	"github.com/shawncarter/NewQuiz/round"
)

// PlayerService handles joining and player queries on top of the session
// manager, with the database as fallback for sessions no longer live.
type PlayerService struct {
	manager *game.Manager
	bank    *round.QuestionBank
	db      persistence.Database
}

func NewPlayerService(manager *game.Manager, bank *round.QuestionBank, db persistence.Database) *PlayerService {
	return &PlayerService{manager: manager, bank: bank, db: db}
}

// Join adds a player to a session, or reconnects them when the name is
// already taken by an earlier join.
func (s *PlayerService) Join(code, name, specialistSubject string) (*models.Player, bool, error) {
	o, exists := s.manager.Get(code)
	if !exists {
		return nil, false, game.ErrSessionNotFound
	}
	return o.Join(name, specialistSubject)
}

// Subjects lists the specialist subjects the question bank can serve,
// for the join form.
func (s *PlayerService) Subjects() []string {
	return s.bank.Subjects()
}

// SessionPlayers returns a session's players. Live sessions answer from
// memory; finished ones fall back to the database.
func (s *PlayerService) SessionPlayers(code string) ([]*models.Player, error) {
	if o, exists := s.manager.Get(code); exists {
		return o.Snapshot().Players, nil
	}
	if s.db == nil {
		return nil, game.ErrSessionNotFound
	}
	players, err := s.db.LoadPlayers(code)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return nil, game.ErrSessionNotFound
	}
	return players, nil
}
