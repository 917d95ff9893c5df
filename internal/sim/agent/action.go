package agent

import (
	"errors"
	"fmt"
	"strings"

	"wumpusworld.ai/internal/protocol"
	"wumpusworld.ai/internal/sim/geom"
)

var ErrUnknownAction = errors.New("unknown action")

type ActionKind uint8

const (
	ActNoop ActionKind = iota
	ActMove
	ActTurn
	ActAttack
	ActCollect
	ActCommunicate
	ActTerminate
)

func (k ActionKind) String() string {
	switch k {
	case ActMove:
		return "move"
	case ActTurn:
		return "turn"
	case ActAttack:
		return "attack"
	case ActCollect:
		return "collect"
	case ActCommunicate:
		return "communicate"
	case ActTerminate:
		return "terminate"
	default:
		return "neutral"
	}
}

// Action is what an agent does in one tick. String renders the manual action
// name, so ParseAction(a.String()) reproduces every manual action. Err is set
// when the policy wanted something it could not express, such as a move toward
// a non-adjacent cell; the action is then a no-op.
type Action struct {
	Kind  ActionKind
	Dir   geom.Direction
	Scope protocol.Scope
	Msg   *protocol.Message
	Err   error
}

func Noop() Action                 { return Action{Kind: ActNoop} }
func Move(d geom.Direction) Action { return Action{Kind: ActMove, Dir: d} }
func Turn(d geom.Direction) Action { return Action{Kind: ActTurn, Dir: d} }
func Attack() Action               { return Action{Kind: ActAttack} }
func Collect() Action              { return Action{Kind: ActCollect} }
func Terminate() Action            { return Action{Kind: ActTerminate} }

func Communicate(scope protocol.Scope, m protocol.Message) Action {
	return Action{Kind: ActCommunicate, Scope: scope, Msg: &m}
}

func invalid(err error) Action { return Action{Kind: ActNoop, Err: err} }

func (a Action) String() string {
	switch a.Kind {
	case ActMove, ActTurn:
		return a.Kind.String() + "_" + a.Dir.String()
	case ActCommunicate:
		if a.Msg == nil {
			return a.Kind.String()
		}
		return a.Kind.String() + " " + a.Scope.String() + " " + a.Msg.String()
	default:
		return a.Kind.String()
	}
}

// ParseAction reads a manual action name: move_<dir>, turn_<dir>, attack,
// collect, communicate or neutral. communicate may be followed by a scope and a
// wire message, as in "communicate shout vote: call".
func ParseAction(name string) (Action, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "neutral", "":
		return Noop(), nil
	case "attack":
		return Attack(), nil
	case "collect":
		return Collect(), nil
	case "communicate":
		return Action{Kind: ActCommunicate}, nil
	}
	if rest, ok := strings.CutPrefix(name, "communicate "); ok {
		return parseCommunicate(rest)
	}
	for prefix, build := range map[string]func(geom.Direction) Action{"move_": Move, "turn_": Turn} {
		if d, ok := strings.CutPrefix(name, prefix); ok {
			dir, err := geom.ParseDirection(d)
			if err != nil {
				return Noop(), err
			}
			return build(dir), nil
		}
	}
	return Noop(), fmt.Errorf("%w %q", ErrUnknownAction, name)
}

func parseCommunicate(rest string) (Action, error) {
	scopeName, text, _ := strings.Cut(strings.TrimSpace(rest), " ")
	var scope protocol.Scope
	switch scopeName {
	case "whisper":
		scope = protocol.Whisper
	case "shout":
		scope = protocol.Shout
	default:
		return Noop(), fmt.Errorf("%w: communicate scope %q", ErrUnknownAction, scopeName)
	}
	m, err := protocol.Parse(text)
	if err != nil {
		return Noop(), err
	}
	return Communicate(scope, m), nil
}
