package hub

import (
	"encoding/json"
	"io"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/shawncarter/NewQuiz/config"
	"github.com/shawncarter/NewQuiz/game"
	"github.com/shawncarter/NewQuiz/logger"
	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/network"
	"github.com/shawncarter/NewQuiz/round"
	"github.com/shawncarter/NewQuiz/store"
	"github.com/shawncarter/NewQuiz/timer"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop().Sugar()
	os.Exit(m.Run())
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct {
	mutex sync.Mutex
	sent  []*models.Event
	inbox chan *network.Message
}

func newMockConnection() *MockConnection {
	return &MockConnection{inbox: make(chan *network.Message, 16)}
}

func (c *MockConnection) Send(event *models.Event) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.sent = append(c.sent, event)
	return nil
}

func (c *MockConnection) ReadMessage() (*network.Message, error) {
	msg, ok := <-c.inbox
	if !ok {
		return nil, io.EOF
	}
	return msg, nil
}

func (c *MockConnection) Close() error                        { return nil }
func (c *MockConnection) RemoteAddr() net.Addr                { return &net.TCPAddr{} }
func (c *MockConnection) SetHeartbeat(interval time.Duration) {}

func (c *MockConnection) push(t *testing.T, msgType string, payload any) {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("Marshal payload: %v", err)
		}
		raw = data
	}
	c.inbox <- &network.Message{Type: msgType, Payload: raw}
}

func (c *MockConnection) count(eventType string) int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	n := 0
	for _, e := range c.sent {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (c *MockConnection) first() *models.Event {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if len(c.sent) == 0 {
		return nil
	}
	return c.sent[0]
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

type testEnv struct {
	hub     *Hub
	manager *game.Manager
	orch    *game.Orchestrator
	player  *models.Player
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	s := store.NewMemoryStore()
	t.Cleanup(s.Close)

	h := NewHub(nil)
	manager := game.NewManager(game.Deps{
		Store:       s,
		Bank:        round.NewQuestionBank(),
		Broadcaster: h,
		Timers:      timer.NewManagerWithClock(clockwork.NewFakeClock()),
		Game: config.GameConfig{
			RoundSeconds: 60, NumRounds: 2, MaxPlayers: 5,
			UniquePoints: 10, ValidPoints: 5, CorrectPoints: 10, StreakBonus: 5,
			QuestionsPerPlayer: 3,
		},
	})
	h.BindManager(manager)

	o := manager.CreateSession(models.SessionConfig{
		NumRounds:  2,
		RoundTypes: []models.RoundType{models.RoundFreeText},
	})
	player, _, err := o.Join("Ana", "")
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	return &testEnv{hub: h, manager: manager, orch: o, player: player}
}

func (env *testEnv) connect(t *testing.T, playerID int64, isGM bool) *MockConnection {
	t.Helper()
	conn := newMockConnection()
	go env.hub.HandleConnection(conn)
	conn.push(t, network.MsgTypeIdentify, network.IdentifyPayload{
		SessionCode: env.orch.Code(),
		PlayerID:    playerID,
		IsGM:        isGM,
	})
	waitFor(t, func() bool { return conn.count(models.EventGameState) == 1 })
	return conn
}

func TestHub_IdentifyDeliversSnapshotFirst(t *testing.T) {
	env := newTestEnv(t)
	conn := env.connect(t, env.player.ID, false)

	first := conn.first()
	if first.Type != models.EventGameState {
		t.Fatalf("First event must be the snapshot, got %s", first.Type)
	}
	state := first.Data.(*game.GameState)
	if state.Session.Code != env.orch.Code() {
		t.Errorf("Snapshot carries the wrong session: %s", state.Session.Code)
	}
	if len(state.Players) != 1 {
		t.Errorf("Snapshot should list the joined player, got %d", len(state.Players))
	}
}

func TestHub_RejectsMessagesBeforeIdentify(t *testing.T) {
	env := newTestEnv(t)
	conn := newMockConnection()
	go env.hub.HandleConnection(conn)

	conn.push(t, network.MsgTypeStartGame, nil)
	waitFor(t, func() bool { return conn.count(models.EventError) == 1 })
}

func TestHub_IdentifyUnknownSession(t *testing.T) {
	env := newTestEnv(t)
	conn := newMockConnection()
	go env.hub.HandleConnection(conn)

	conn.push(t, network.MsgTypeIdentify, network.IdentifyPayload{SessionCode: "NOPE99"})
	waitFor(t, func() bool { return conn.count(models.EventError) == 1 })
	if conn.count(models.EventGameState) != 0 {
		t.Fatal("Unknown session must not get a snapshot")
	}
}

func TestHub_GMOnlyOperations(t *testing.T) {
	env := newTestEnv(t)
	playerConn := env.connect(t, env.player.ID, false)
	gmConn := env.connect(t, 0, true)

	// The player cannot start the game.
	playerConn.push(t, network.MsgTypeStartGame, nil)
	waitFor(t, func() bool { return playerConn.count(models.EventError) == 1 })

	// The GM can, and the broadcast reaches both clients.
	gmConn.push(t, network.MsgTypeStartGame, nil)
	waitFor(t, func() bool {
		return gmConn.count(models.EventGameStarted) == 1 &&
			playerConn.count(models.EventGameStarted) == 1
	})
}

func TestHub_RoundFlowOverWire(t *testing.T) {
	env := newTestEnv(t)
	playerConn := env.connect(t, env.player.ID, false)
	gmConn := env.connect(t, 0, true)

	gmConn.push(t, network.MsgTypeStartGame, nil)
	gmConn.push(t, network.MsgTypeStartRound, nil)
	waitFor(t, func() bool { return playerConn.count(models.EventRoundStarted) == 1 })

	playerConn.push(t, network.MsgTypeSubmitAnswer, network.SubmitAnswerPayload{Answer: "Aardvark"})
	waitFor(t, func() bool { return gmConn.count(models.EventRoundUpdate) == 1 })

	gmConn.push(t, network.MsgTypeEndRound, nil)
	waitFor(t, func() bool {
		return gmConn.count(models.EventRoundEnded) == 1 &&
			playerConn.count(models.EventRoundEnded) == 1
	})

	// Player result is unicast to the player, not the GM screen.
	waitFor(t, func() bool { return playerConn.count(models.EventPlayerResult) == 1 })
	if gmConn.count(models.EventPlayerResult) != 0 {
		t.Fatal("player_result must not reach the GM")
	}

	gmConn.push(t, network.MsgTypeValidateAnswer, network.ValidateAnswerPayload{
		PlayerID: env.player.ID, IsValid: true,
	})
	waitFor(t, func() bool { return playerConn.count(models.EventScoreUpdate) >= 1 })
}

func TestHub_DisconnectFlipsConnectedFlag(t *testing.T) {
	env := newTestEnv(t)
	conn := env.connect(t, env.player.ID, false)

	close(conn.inbox)
	waitFor(t, func() bool {
		p, _ := env.orch.Player(env.player.ID)
		return !p.Connected
	})

	// The player row survives the disconnect.
	if _, exists := env.orch.Player(env.player.ID); !exists {
		t.Fatal("Disconnect must not remove the player")
	}
}
