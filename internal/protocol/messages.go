package protocol

import (
	"errors"
	"fmt"
	"strings"

	"wumpusworld.ai/internal/sim/geom"
)

var (
	ErrMalformedPayload = errors.New("malformed message payload")
	ErrUnknownAction    = errors.New("unknown message action")
)

type Kind uint8

const (
	KindWantToMove Kind = iota + 1
	KindDeny
	KindAllow
	KindWumpusKilled
	KindStuck
	KindSafeCellAt
	KindVote
	KindStay
)

var keywords = map[Kind]string{
	KindWantToMove:   KeywordWantToMove,
	KindDeny:         KeywordDeny,
	KindAllow:        KeywordAllow,
	KindWumpusKilled: KeywordWumpusKilled,
	KindStuck:        KeywordStuck,
	KindSafeCellAt:   KeywordSafeCellAt,
	KindVote:         KeywordVote,
	KindStay:         KeywordStay,
}

var kindsByKeyword = func() map[string]Kind {
	m := make(map[string]Kind, len(keywords))
	for k, kw := range keywords {
		m[kw] = k
	}
	return m
}()

func (k Kind) String() string {
	if kw, ok := keywords[k]; ok {
		return kw
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Ballot distinguishes an administrator's call for an exit vote from a peer's
// concurring reply.
type Ballot uint8

const (
	BallotCall Ballot = iota
	BallotExit
)

func (b Ballot) String() string {
	if b == BallotExit {
		return "exit"
	}
	return "call"
}

// Message is one negotiation or voting message. From is set for WantToMove
// only, Ballot for Vote only; Pos is unused by Vote and Stay.
type Message struct {
	Kind   Kind
	From   geom.Pos
	Pos    geom.Pos
	Ballot Ballot
}

func WantToMove(from, to geom.Pos) Message {
	return Message{Kind: KindWantToMove, From: from, Pos: to}
}
func Deny(p geom.Pos) Message         { return Message{Kind: KindDeny, Pos: p} }
func Allow(p geom.Pos) Message        { return Message{Kind: KindAllow, Pos: p} }
func WumpusKilled(p geom.Pos) Message { return Message{Kind: KindWumpusKilled, Pos: p} }
func Stuck(p geom.Pos) Message        { return Message{Kind: KindStuck, Pos: p} }
func SafeCellAt(p geom.Pos) Message   { return Message{Kind: KindSafeCellAt, Pos: p} }
func Vote(b Ballot) Message           { return Message{Kind: KindVote, Ballot: b} }
func Stay() Message                   { return Message{Kind: KindStay} }

func (m Message) String() string { return Encode(m) }

// Encode renders m as "<action>: <payload>".
func Encode(m Message) string {
	switch m.Kind {
	case KindWantToMove:
		return fmt.Sprintf("%s: %s->%s", KeywordWantToMove, m.From, m.Pos)
	case KindVote:
		return KeywordVote + ": " + m.Ballot.String()
	case KindStay:
		return KeywordStay + ":"
	default:
		return fmt.Sprintf("%s: %s", m.Kind, m.Pos)
	}
}

// Parse reads the wire form produced by Encode. Surrounding whitespace is
// tolerated everywhere. A missing vote ballot reads as a call.
func Parse(text string) (Message, error) {
	action, payload, _ := strings.Cut(strings.TrimSpace(text), ":")
	action = strings.TrimSpace(action)
	payload = strings.TrimSpace(payload)

	kind, ok := kindsByKeyword[action]
	if !ok {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	switch kind {
	case KindWantToMove:
		a, b, found := strings.Cut(payload, "->")
		if !found {
			return Message{}, fmt.Errorf("%w: %s wants \"<from>-><to>\", got %q", ErrMalformedPayload, action, payload)
		}
		from, err := parsePos(action, a)
		if err != nil {
			return Message{}, err
		}
		to, err := parsePos(action, b)
		if err != nil {
			return Message{}, err
		}
		return WantToMove(from, to), nil
	case KindVote:
		switch payload {
		case "", "call":
			return Vote(BallotCall), nil
		case "exit":
			return Vote(BallotExit), nil
		default:
			return Message{}, fmt.Errorf("%w: vote ballot %q", ErrMalformedPayload, payload)
		}
	case KindStay:
		if payload != "" {
			return Message{}, fmt.Errorf("%w: stay takes no payload, got %q", ErrMalformedPayload, payload)
		}
		return Stay(), nil
	default:
		p, err := parsePos(action, payload)
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: kind, Pos: p}, nil
	}
}

func parsePos(action, s string) (geom.Pos, error) {
	p, err := geom.ParsePos(strings.TrimSpace(s))
	if err != nil {
		return geom.Pos{}, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, action, err)
	}
	return p, nil
}

// CodeOf maps a Parse error to its log code.
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnknownAction):
		return CodeUnknownAction
	case errors.Is(err, ErrMalformedPayload):
		return CodeBadMessage
	default:
		return CodeInternal
	}
}
