// Package ws lets remote pilots drive agents over a websocket. A pilot sends
// HELLO naming an agent, receives a WELCOME for every episode that agent is
// part of and an OBS after every tick, and sends ACT whenever it wants the
// agent to do something other than what the policy (or idling) would.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/agent"
	"wumpusworld.ai/internal/sim/world"
)

var (
	errNoEpisode  = errors.New("no episode running")
	errAgentTaken = errors.New("agent already piloted")
)

type Server struct {
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	world    *world.World
	sessions map[string]*session
}

type session struct {
	agentID string
	out     chan []byte
}

func NewServer(logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		log: logger.WithField("component", "pilot"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		sessions: map[string]*session{},
	}
}

// Attach switches pilots over to a new episode. Pilots whose agent exists in
// w get a fresh WELCOME.
func (s *Server) Attach(w *world.World) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = w
	for _, sess := range s.sessions {
		if w.Agent(sess.agentID) != nil {
			s.sendLocked(sess, welcome(w, sess.agentID))
		}
	}
}

// Sessions returns the number of connected pilots.
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// WriteTick pushes an OBS to every pilot whose agent took part in the tick.
// It runs on the goroutine driving the world.
func (s *Server) WriteTick(entry world.TickLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.world
	if w == nil || len(s.sessions) == 0 {
		return nil
	}
	for _, sess := range s.sessions {
		a := w.Agent(sess.agentID)
		if a == nil {
			continue
		}
		s.sendLocked(sess, observe(w, a, entry))
	}
	return nil
}

func welcome(w *world.World, agentID string) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		EpisodeID:       w.Config().EpisodeID,
		AgentID:         agentID,
		Size:            w.Size(),
		Auto:            w.Agent(agentID).Auto,
	}
}

func observe(w *world.World, a *agent.Agent, entry world.TickLogEntry) protocol.ObsMsg {
	tags := w.Percepts(a.Pos)
	percepts := make([]string, 0, len(tags))
	for _, t := range tags {
		percepts = append(percepts, t.String())
	}
	var inbox []string
	for _, m := range entry.Messages {
		for _, to := range m.To {
			if to == a.ID {
				inbox = append(inbox, m.From+" "+m.Text)
				break
			}
		}
	}
	return protocol.ObsMsg{
		Type:            protocol.TypeObs,
		ProtocolVersion: protocol.Version,
		EpisodeID:       entry.Episode,
		Tick:            entry.Tick,
		Pos:             a.Pos.ToArray(),
		Dir:             a.Dir.String(),
		Percepts:        percepts,
		Alive:           a.Alive,
		Score:           a.Score,
		ArrowsLeft:      a.ArrowsLeft,
		Inbox:           inbox,
		Over:            w.Over(),
	}
}

// sendLocked drops the message when the pilot is not keeping up.
func (s *Server) sendLocked(sess *session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case sess.out <- b:
	default:
	}
}

func (s *Server) register(sess *session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.world == nil {
		return errNoEpisode
	}
	if s.world.Agent(sess.agentID) == nil {
		return fmt.Errorf("%w %q", world.ErrUnknownAgent, sess.agentID)
	}
	if _, taken := s.sessions[sess.agentID]; taken {
		return errAgentTaken
	}
	s.sessions[sess.agentID] = sess
	s.sendLocked(sess, welcome(s.world, sess.agentID))
	return nil
}

func (s *Server) unregister(sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sess.agentID] == sess {
		delete(s.sessions, sess.agentID)
	}
}

func (s *Server) submit(agentID, action string) error {
	s.mu.Lock()
	w := s.world
	s.mu.Unlock()
	if w == nil {
		return errNoEpisode
	}
	return w.Submit(agentID, action)
}

func codeFor(err error) string {
	switch {
	case errors.Is(err, world.ErrUnknownAgent):
		return protocol.CodeUnknownAgent
	case errors.Is(err, errAgentTaken):
		return protocol.CodeAgentTaken
	case errors.Is(err, world.ErrEpisodeOver), errors.Is(err, errNoEpisode):
		return protocol.CodeEpisodeOver
	case errors.Is(err, agent.ErrUnknownAction):
		return protocol.CodeUnknownActionName
	default:
		return protocol.CodeBadRequest
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess := s.handshake(conn)
		if sess == nil {
			return
		}
		defer s.unregister(sess)
		log := s.log.WithField("agent", sess.agentID)
		log.Info("pilot connected")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				s.reply(sess, protocol.NewError(protocol.CodeBadRequest, "expected ACT"))
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil || act.ProtocolVersion != protocol.Version {
				s.reply(sess, protocol.NewError(protocol.CodeBadRequest, "bad ACT"))
				continue
			}
			if err := s.submit(sess.agentID, act.Action); err != nil {
				log.WithField("code", codeFor(err)).Debugf("act %q: %v", act.Action, err)
				s.reply(sess, protocol.NewError(codeFor(err), err.Error()))
			}
		}
		log.Info("pilot disconnected")
	}
}

func (s *Server) reply(sess *session, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendLocked(sess, v)
}

func (s *Server) handshake(conn *websocket.Conn) *session {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, websocket.ClosePolicyViolation, "expected HELLO")
		return nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, "bad HELLO")
		return nil
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, websocket.ClosePolicyViolation, "bad protocol_version")
		return nil
	}

	maxQ := hello.MaxQueue
	if maxQ <= 0 {
		maxQ = 8
	}
	if maxQ > 64 {
		maxQ = 64
	}
	sess := &session{agentID: hello.AgentID, out: make(chan []byte, maxQ)}
	if err := s.register(sess); err != nil {
		_ = writeJSON(conn, protocol.NewError(codeFor(err), err.Error()))
		closeWith(conn, websocket.ClosePolicyViolation, codeFor(err))
		return nil
	}
	return sess
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
