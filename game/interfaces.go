package game

import (
	"github.com/shawncarter/NewQuiz/models"
)

// Broadcaster fans events out to a session's clients. Defined here to break
// the import cycle between game and hub.
type Broadcaster interface {
	// BroadcastToSession delivers the event to every client in the session.
	BroadcastToSession(code string, event *models.Event)
	// SendToPlayer delivers the event to one player's connections only.
	SendToPlayer(code string, playerID int64, event *models.Event)
	// SendToGM delivers the event to the game master screen only.
	SendToGM(code string, event *models.Event)
}
