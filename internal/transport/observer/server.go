package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/observerproto"
	"wumpusworld.ai/internal/sim/belief"
	"wumpusworld.ai/internal/sim/geom"
	"wumpusworld.ai/internal/sim/world"
)

// Server fans finished ticks out to loopback spectators. It is a world.TickSink
// and must be re-attached for every episode.
type Server struct {
	log logrus.FieldLogger

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu    sync.Mutex
	world *world.World
	boot  observerproto.BootstrapResponse
	subs  map[string]*subscriber
}

type subscriber struct {
	id  string
	out chan []byte
	sub observerproto.SubscribeMsg
}

func NewServer(logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		log: logger.WithField("component", "observer"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		subs: map[string]*subscriber{},
	}
}

func (s *Server) Attach(w *world.World) {
	cfg := w.Config()
	layout := w.Layout()
	ids := make([]string, 0, len(layout.Agents))
	for _, a := range layout.Agents {
		ids = append(ids, a.ID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.world = w
	s.boot = observerproto.BootstrapResponse{
		ProtocolVersion: observerproto.Version,
		EpisodeID:       cfg.EpisodeID,
		Tick:            w.CurrentTick(),
		Params: observerproto.EpisodeParams{
			Size:       layout.Size,
			TickRateHz: cfg.TickRateHz,
			MaxTicks:   cfg.MaxTicks,
			Seed:       cfg.Seed,
			Scenario:   layout.Name,
			Agents:     ids,
		},
	}
}

func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// WriteTick renders the tick once per distinct subscription and queues it.
// Slow spectators lose ticks. It runs on the goroutine driving the world.
func (s *Server) WriteTick(entry world.TickLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boot.Tick = entry.Tick + 1
	if s.world == nil || len(s.subs) == 0 {
		return nil
	}
	rendered := map[[2]bool][]byte{}
	for _, sub := range s.subs {
		key := [2]bool{sub.sub.Beliefs, sub.sub.Hidden}
		b, ok := rendered[key]
		if !ok {
			var err error
			if b, err = json.Marshal(render(s.world, entry, sub.sub)); err != nil {
				return fmt.Errorf("render tick %d: %w", entry.Tick, err)
			}
			rendered[key] = b
		}
		select {
		case sub.out <- b:
		default:
		}
	}
	return nil
}

// Finish tells every spectator how the episode ended.
func (s *Server) Finish(out world.Outcome) {
	b, err := json.Marshal(observerproto.EpisodeEndMsg{
		Type:            "EPISODE_END",
		ProtocolVersion: observerproto.Version,
		Outcome:         out,
	})
	if err != nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		select {
		case sub.out <- b:
		default:
		}
	}
}

func render(w *world.World, entry world.TickLogEntry, sub observerproto.SubscribeMsg) observerproto.TickMsg {
	msg := observerproto.TickMsg{
		Type:            "TICK",
		ProtocolVersion: observerproto.Version,
		EpisodeID:       entry.Episode,
		Tick:            entry.Tick,
		Digest:          entry.Digest,
		Actions:         entry.Actions,
		Messages:        entry.Messages,
		Events:          entry.Events,
	}
	for _, a := range w.Agents() {
		st := observerproto.AgentState{
			ID:         a.ID,
			Pos:        a.Pos.ToArray(),
			Dir:        a.Dir.String(),
			Alive:      a.Alive,
			Auto:       a.Auto,
			Score:      a.Score,
			ArrowsLeft: a.ArrowsLeft,
			VoteAdmin:  a.VoteAdmin,
		}
		if sub.Beliefs {
			a.Belief.Each(func(p geom.Pos, c belief.CellBelief) {
				st.Beliefs = append(st.Beliefs, observerproto.BeliefCell{
					Pos:     p.ToArray(),
					Visited: c.Visited,
					Pit:     probPtr(c.Pit),
					Wumpus:  probPtr(c.Wumpus),
				})
			})
		}
		msg.Agents = append(msg.Agents, st)
	}

	g := w.Grid()
	for x := 0; x < g.Size(); x++ {
		for y := 0; y < g.Size(); y++ {
			cell, err := g.CellAt(geom.P(x, y))
			if err != nil {
				continue
			}
			cs := observerproto.CellState{Pos: [2]int{x, y}, Visible: cell.Visible}
			if cell.Occupant != nil && (cell.Visible || sub.Hidden) {
				cs.Occupant = cell.Occupant.Kind().String()
			}
			if cell.Visible || sub.Hidden {
				for _, t := range cell.Percepts {
					cs.Percepts = append(cs.Percepts, t.String())
				}
			}
			if cs.Visible || cs.Occupant != "" || len(cs.Percepts) > 0 {
				msg.Cells = append(msg.Cells, cs)
			}
		}
	}
	return msg
}

func probPtr(p belief.Prob) *float64 {
	v, ok := p.Float()
	if !ok {
		return nil
	}
	return &v
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		s.mu.Lock()
		resp := s.boot
		attached := s.world != nil
		s.mu.Unlock()
		if !attached {
			http.Error(rw, "no episode", http.StatusServiceUnavailable)
			return
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		sub, ok := decodeSubscribe(msg)
		if !ok {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		sess := &subscriber{
			id:  fmt.Sprintf("O%d", s.nextID.Add(1)),
			out: make(chan []byte, 64),
			sub: sub,
		}
		s.mu.Lock()
		s.subs[sess.id] = sess
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.subs, sess.id)
			s.mu.Unlock()
		}()
		s.log.WithField("session", sess.id).Debug("observer subscribed")

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// Writer goroutine.
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-ctx.Done():
					writeErr <- ctx.Err()
					return
				case b := <-sess.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			sub, ok := decodeSubscribe(msg)
			if !ok {
				continue
			}
			s.mu.Lock()
			sess.sub = sub
			s.mu.Unlock()
		}

		cancel()
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func decodeSubscribe(msg []byte) (observerproto.SubscribeMsg, bool) {
	var sub observerproto.SubscribeMsg
	if err := json.Unmarshal(msg, &sub); err != nil {
		return sub, false
	}
	return sub, sub.Type == "SUBSCRIBE" && sub.ProtocolVersion == observerproto.Version
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
