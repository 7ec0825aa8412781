// hub/hub.go
package hub

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/shawncarter/NewQuiz/game"
	"github.com/shawncarter/NewQuiz/logger"
	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/monitor"
	"github.com/shawncarter/NewQuiz/network"
	"github.com/shawncarter/NewQuiz/round"
)

var errGMOnly = errors.New("operation restricted to the game master")

// Client is one websocket connection bound to a session. A player may hold
// several clients at once (phone plus reopened tab); the GM screen is a
// client with no player ID.
type Client struct {
	ID       string
	conn     network.Connection
	code     string
	playerID int64
	isGM     bool
}

// Hub owns the connection groups and fans events out per session. It is the
// game package's Broadcaster. Send failures are left to the read loop: a
// dead socket errors there and the client is removed once.
type Hub struct {
	mutex   sync.RWMutex
	manager *game.Manager
	metrics *monitor.Metrics
	groups  map[string]map[string]*Client
}

func NewHub(metrics *monitor.Metrics) *Hub {
	return &Hub{
		metrics: metrics,
		groups:  make(map[string]map[string]*Client),
	}
}

// BindManager wires the session manager in after construction. The manager
// needs the hub as its broadcaster, so the two cannot be built in one step.
func (h *Hub) BindManager(manager *game.Manager) {
	h.manager = manager
}

// --- game.Broadcaster ---

func (h *Hub) BroadcastToSession(code string, event *models.Event) {
	for _, c := range h.clients(code) {
		h.send(c, event)
	}
}

func (h *Hub) SendToPlayer(code string, playerID int64, event *models.Event) {
	for _, c := range h.clients(code) {
		if c.playerID == playerID && !c.isGM {
			h.send(c, event)
		}
	}
}

func (h *Hub) SendToGM(code string, event *models.Event) {
	for _, c := range h.clients(code) {
		if c.isGM {
			h.send(c, event)
		}
	}
}

func (h *Hub) send(c *Client, event *models.Event) {
	if err := c.conn.Send(event); err != nil {
		logger.Log.Debugf("Send to client %s failed: %v", c.ID, err)
		return
	}
	if h.metrics != nil {
		h.metrics.EventsBroadcast.Inc()
	}
}

func (h *Hub) clients(code string) []*Client {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	group := h.groups[code]
	out := make([]*Client, 0, len(group))
	for _, c := range group {
		out = append(out, c)
	}
	return out
}

// --- connection handling ---

// HandleConnection runs a connection's read loop until the socket drops.
// The first message must be an identify; everything before that is
// rejected.
func (h *Hub) HandleConnection(conn network.Connection) {
	client := &Client{ID: uuid.New().String(), conn: conn}

	if h.metrics != nil {
		h.metrics.ConnectedClients.Inc()
	}
	defer func() {
		h.drop(client)
		conn.Close()
		if h.metrics != nil {
			h.metrics.ConnectedClients.Dec()
		}
	}()

	for {
		msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		h.handleMessage(client, msg)
	}
}

func (h *Hub) handleMessage(client *Client, msg *network.Message) {
	if msg.Type == network.MsgTypeIdentify {
		h.handleIdentify(client, msg.Payload)
		return
	}
	if client.code == "" {
		h.sendError(client, "not_identified", "identify before sending anything else")
		return
	}

	o, exists := h.manager.Get(client.code)
	if !exists {
		h.sendError(client, "session_not_found", "session no longer exists")
		return
	}

	var err error
	switch msg.Type {
	case network.MsgTypeStartGame:
		err = h.gmOnly(client, o.StartGame)
	case network.MsgTypeStartRound:
		err = h.gmOnly(client, o.StartRound)
	case network.MsgTypeEndRound:
		err = h.gmOnly(client, o.EndRound)
	case network.MsgTypeRestartGame:
		err = h.gmOnly(client, o.RestartGame)

	case network.MsgTypeSubmitAnswer:
		var p network.SubmitAnswerPayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = o.SubmitAnswer(client.playerID, p.Answer)
		}

	case network.MsgTypeSubmitRapidFire:
		var p network.SubmitRapidFirePayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			answers := make([]round.RapidFireAnswer, 0, len(p.Answers))
			for _, a := range p.Answers {
				answers = append(answers, round.RapidFireAnswer{
					QuestionID:     a.QuestionID,
					Choice:         a.Choice,
					ResponseTimeMS: a.ResponseTimeMS,
				})
			}
			err = o.SubmitRapidFire(client.playerID, answers)
		}

	case network.MsgTypeValidateAnswer:
		var p network.ValidateAnswerPayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.gmOnly(client, func() error {
				return o.ValidateAnswer(p.PlayerID, p.IsValid)
			})
		}

	case network.MsgTypeSelectPlayer:
		var p network.SelectPlayerPayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = h.gmOnly(client, func() error {
				return o.SelectPlayer(p.PlayerID)
			})
		}

	case network.MsgTypeReadyResponse:
		var p network.ReadyResponsePayload
		if err = json.Unmarshal(msg.Payload, &p); err == nil {
			err = o.ReadyResponse(client.playerID, p.IsReady, h.actor(client))
		}

	case network.MsgTypeContinuePlayer:
		err = h.gmOnly(client, o.ContinueToNextPlayer)

	default:
		h.sendError(client, "unknown_message", "unknown message type: "+msg.Type)
		return
	}

	if err != nil {
		h.sendError(client, "operation_failed", err.Error())
	}
}

// handleIdentify binds the connection to a session and replies with the
// full snapshot, so every client starts from consistent state no matter
// when it connected.
func (h *Hub) handleIdentify(client *Client, payload json.RawMessage) {
	var p network.IdentifyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		h.sendError(client, "bad_payload", "malformed identify payload")
		return
	}

	o, exists := h.manager.Get(p.SessionCode)
	if !exists {
		h.sendError(client, "session_not_found", "no session with code "+p.SessionCode)
		return
	}
	if !p.IsGM && p.PlayerID > 0 {
		if _, known := o.Player(p.PlayerID); !known {
			h.sendError(client, "unknown_player", "no such player in this session")
			return
		}
	}

	// Rebinding an already identified connection moves it between groups.
	h.drop(client)
	client.code = p.SessionCode
	client.playerID = p.PlayerID
	client.isGM = p.IsGM

	h.mutex.Lock()
	if h.groups[client.code] == nil {
		h.groups[client.code] = make(map[string]*Client)
	}
	h.groups[client.code][client.ID] = client
	h.mutex.Unlock()

	// Snapshot first, always: every other event a client sees applies on
	// top of this state.
	h.send(client, &models.Event{Type: models.EventGameState, Data: o.Snapshot()})

	if !client.isGM && client.playerID > 0 {
		if err := o.SetConnected(client.playerID, true); err != nil {
			logger.Log.Warnf("Connect flag update failed for player %d: %v", client.playerID, err)
		}
	}
	logger.Log.Infof("Client %s identified for session %s (player=%d gm=%v)",
		client.ID, client.code, client.playerID, client.isGM)
}

// drop removes the client from its group and flips the player's connected
// flag when no other connection of theirs remains.
func (h *Hub) drop(client *Client) {
	if client.code == "" {
		return
	}

	h.mutex.Lock()
	delete(h.groups[client.code], client.ID)
	if len(h.groups[client.code]) == 0 {
		delete(h.groups, client.code)
	}
	remaining := 0
	for _, c := range h.groups[client.code] {
		if c.playerID == client.playerID && !c.isGM {
			remaining++
		}
	}
	h.mutex.Unlock()

	if client.isGM || client.playerID == 0 || remaining > 0 {
		return
	}
	if o, exists := h.manager.Get(client.code); exists {
		if err := o.SetConnected(client.playerID, false); err != nil {
			logger.Log.Warnf("Disconnect flag update failed for player %d: %v", client.playerID, err)
		}
	}
}

func (h *Hub) gmOnly(client *Client, op func() error) error {
	if !client.isGM {
		return errGMOnly
	}
	return op()
}

func (h *Hub) actor(client *Client) round.Actor {
	if client.isGM {
		return round.ActorGM
	}
	return round.ActorPlayer
}

func (h *Hub) sendError(client *Client, code, message string) {
	h.send(client, &models.Event{Type: models.EventError, Data: map[string]any{
		"code":    code,
		"message": message,
	}})
}
