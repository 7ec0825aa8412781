// rpc/rpc.go
package rpc

import (
	"fmt"
	"net"
	"net/rpc"

	"github.com/shawncarter/NewQuiz/game"
	"github.com/shawncarter/NewQuiz/logger"
	"github.com/shawncarter/NewQuiz/models"
)

// Server manages the RPC listener. Operational tooling talks to it over
// plain TCP; it is not part of the client protocol.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// SessionService exposes session inspection over RPC.
type SessionService struct {
	manager *game.Manager
}

func NewSessionService(manager *game.Manager) *SessionService {
	return &SessionService{manager: manager}
}

type StatsArgs struct{}

type StatsReply struct {
	Sessions int
	Codes    []string
}

// Stats reports the live session count and codes.
func (s *SessionService) Stats(args *StatsArgs, reply *StatsReply) error {
	reply.Sessions = s.manager.Count()
	reply.Codes = s.manager.Codes()
	return nil
}

type SessionArgs struct {
	Code string
}

type SessionReply struct {
	Status       models.SessionStatus
	CurrentRound int
	RoundActive  bool
	Players      int
	Connected    int
}

// Session reports one session's lifecycle state.
func (s *SessionService) Session(args *SessionArgs, reply *SessionReply) error {
	o, exists := s.manager.Get(args.Code)
	if !exists {
		return fmt.Errorf("session %s not found", args.Code)
	}

	snap := o.Snapshot()
	reply.Status = snap.Session.Status
	reply.CurrentRound = snap.Session.CurrentRound
	reply.RoundActive = snap.RoundActive
	reply.Players = len(snap.Players)
	for _, p := range snap.Players {
		if p.Connected {
			reply.Connected++
		}
	}
	return nil
}
