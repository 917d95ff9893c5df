package main

import (
	"encoding/json"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"slices"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"wumpusworld.ai/internal/protocol"
)

var moves = []string{"move_front", "move_back", "move_left", "move_right", "turn_left", "turn_right"}

func main() {
	var (
		url     = flag.String("url", "ws://localhost:8080/v1/pilot", "pilot ws url")
		agentID = flag.String("agent", "agent-1", "agent to drive")
		seed    = flag.Uint64("seed", 1, "bot rng seed")
	)
	flag.Parse()

	log := logrus.WithField("component", "bot")
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		AgentID:         *agentID,
		MaxQueue:        8,
	}
	if err := conn.WriteJSON(hello); err != nil {
		log.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	rng := rand.New(rand.NewPCG(*seed, *seed))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			log.Infof("WELCOME episode=%s agent=%s size=%d", w.EpisodeID, w.AgentID, w.Size)

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			handleObs(conn, log, rng, &obs)

		case protocol.TypeError:
			var e protocol.ErrorMsg
			_ = json.Unmarshal(msg, &e)
			log.Warnf("ERROR %s: %s", e.Code, e.Message)
		}
	}
}

func handleObs(conn *websocket.Conn, log logrus.FieldLogger, rng *rand.Rand, obs *protocol.ObsMsg) {
	for _, m := range obs.Inbox {
		log.Debugf("tick=%d inbox %s", obs.Tick, m)
	}
	if obs.Over {
		log.Infof("episode %s over at tick %d score=%d", obs.EpisodeID, obs.Tick, obs.Score)
		return
	}
	if !obs.Alive {
		return
	}

	action := moves[rng.IntN(len(moves))]
	switch {
	case slices.Contains(obs.Percepts, "shininess"):
		action = "collect"
	case slices.Contains(obs.Percepts, "stench") && obs.ArrowsLeft > 0:
		action = "attack"
	case obs.Tick%50 == 49:
		action = "communicate shout vote: call"
	}
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Action:          action,
	}
	_ = conn.WriteJSON(act)
}
