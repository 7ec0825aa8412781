// server/server.go
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/rpc"

	"github.com/gorilla/websocket"

	"github.com/shawncarter/NewQuiz/game"
	"github.com/shawncarter/NewQuiz/hub"
	"github.com/shawncarter/NewQuiz/logger"
	"github.com/shawncarter/NewQuiz/models"
	"github.com/shawncarter/NewQuiz/network"
	quizrpc "github.com/shawncarter/NewQuiz/rpc"
	"github.com/shawncarter/NewQuiz/services"
)

// GameServer ties the websocket hub and the HTTP action endpoints to one
// listener, with the admin RPC server alongside.
type GameServer struct {
	addr          string
	upgrader      websocket.Upgrader
	hub           *hub.Hub
	manager       *game.Manager
	playerService *services.PlayerService
	rpcServer     *quizrpc.Server
	shutdownChan  chan struct{}
}

func NewGameServer(addr, rpcAddr string, h *hub.Hub, manager *game.Manager, playerService *services.PlayerService) *GameServer {
	s := &GameServer{
		addr:          addr,
		hub:           h,
		manager:       manager,
		playerService: playerService,
		shutdownChan:  make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	rpcServer, err := quizrpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer
	rpc.Register(quizrpc.NewSessionService(manager))

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("POST /api/games", s.handleCreateGame)
	mux.HandleFunc("GET /api/games/{code}", s.handleGetGame)
	mux.HandleFunc("POST /api/games/{code}/start", s.action(func(o *game.Orchestrator) error { return o.StartGame() }))
	mux.HandleFunc("POST /api/games/{code}/rounds/start", s.action(func(o *game.Orchestrator) error { return o.StartRound() }))
	mux.HandleFunc("POST /api/games/{code}/rounds/end", s.action(func(o *game.Orchestrator) error { return o.EndRound() }))
	mux.HandleFunc("POST /api/games/{code}/restart", s.action(func(o *game.Orchestrator) error { return o.RestartGame() }))
	mux.HandleFunc("POST /api/games/{code}/answers/validate", s.handleValidateAnswer)
	mux.HandleFunc("POST /api/join", s.handleJoin)
	mux.HandleFunc("GET /api/subjects", s.handleSubjects)

	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, mux)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	wsConn := network.NewWSConnection(conn)
	logger.Log.Infof("New connection from %s", wsConn.RemoteAddr())
	s.hub.HandleConnection(wsConn)
}

type createGameRequest struct {
	NumRounds    int                `json:"num_rounds"`
	RoundSeconds int                `json:"round_seconds"`
	RoundTypes   []models.RoundType `json:"round_types"`
	Categories   []string           `json:"categories"`
}

func (s *GameServer) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	o := s.manager.CreateSession(models.SessionConfig{
		NumRounds:    req.NumRounds,
		RoundSeconds: req.RoundSeconds,
		RoundTypes:   req.RoundTypes,
		Categories:   req.Categories,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"code": o.Code()})
}

func (s *GameServer) handleGetGame(w http.ResponseWriter, r *http.Request) {
	o, exists := s.manager.Get(r.PathValue("code"))
	if !exists {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, o.Snapshot())
}

// action wraps the GM lifecycle endpoints: look up the session, run the
// operation, map the error.
func (s *GameServer) action(op func(*game.Orchestrator) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, exists := s.manager.Get(r.PathValue("code"))
		if !exists {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		if err := op(o); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

type validateAnswerRequest struct {
	PlayerID int64 `json:"player_id"`
	IsValid  bool  `json:"is_valid"`
}

func (s *GameServer) handleValidateAnswer(w http.ResponseWriter, r *http.Request) {
	o, exists := s.manager.Get(r.PathValue("code"))
	if !exists {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	var req validateAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := o.ValidateAnswer(req.PlayerID, req.IsValid); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type joinRequest struct {
	Code              string `json:"code"`
	Name              string `json:"name"`
	SpecialistSubject string `json:"specialist_subject"`
}

func (s *GameServer) handleJoin(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	player, reconnected, err := s.playerService.Join(req.Code, req.Name, req.SpecialistSubject)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"player":      player,
		"reconnected": reconnected,
	})
}

func (s *GameServer) handleSubjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"subjects": s.playerService.Subjects()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrSessionFull),
		errors.Is(err, game.ErrGameNotWaiting),
		errors.Is(err, game.ErrGameNotActive),
		errors.Is(err, game.ErrGameFinished),
		errors.Is(err, game.ErrRoundInProgress),
		errors.Is(err, game.ErrNoActiveRound),
		errors.Is(err, game.ErrNoValidationWindow),
		errors.Is(err, game.ErrNoConnectedPlayers):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Errorf("Response encode failed: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
