package grid

import "fmt"

type Kind uint8

const (
	KindAgent Kind = iota + 1
	KindWumpus
	KindPit
	KindGold
)

func (k Kind) String() string {
	switch k {
	case KindAgent:
		return "agent"
	case KindWumpus:
		return "wumpus"
	case KindPit:
		return "pit"
	case KindGold:
		return "gold"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func ParseKind(s string) (Kind, error) {
	for _, k := range []Kind{KindAgent, KindWumpus, KindPit, KindGold} {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown entity kind %q", s)
}

// Entity is the closed set of cell occupants: *Agent, *Wumpus, *Pit, *Gold.
type Entity interface {
	Kind() Kind
	sealed()
}

// Agent marks a cell occupied by the agent with the given id. Agent state itself
// lives with the simulation, not on the grid.
type Agent struct {
	ID string
}

type Wumpus struct {
	Reward int
}

type Pit struct{}

// Gold emits no glow until an agent bumps into it.
type Gold struct {
	Reward  int
	Glowing bool
}

func (*Agent) Kind() Kind  { return KindAgent }
func (*Wumpus) Kind() Kind { return KindWumpus }
func (*Pit) Kind() Kind    { return KindPit }
func (*Gold) Kind() Kind   { return KindGold }

func (*Agent) sealed()  {}
func (*Wumpus) sealed() {}
func (*Pit) sealed()    {}
func (*Gold) sealed()   {}

const (
	DefaultWumpusReward = 1000
	DefaultGoldReward   = 100
)

func NewWumpus() *Wumpus { return &Wumpus{Reward: DefaultWumpusReward} }
func NewGold() *Gold     { return &Gold{Reward: DefaultGoldReward} }

// IsHazard reports whether stepping onto e kills the mover.
func IsHazard(e Entity) bool {
	switch e.(type) {
	case *Pit, *Wumpus:
		return true
	default:
		return false
	}
}

// emission returns the percept an entity spreads over its Neumann neighbourhood
// and the range of that neighbourhood.
func emission(e Entity) (Tag, int, bool) {
	switch v := e.(type) {
	case *Pit:
		return TagBreeze, 1, true
	case *Wumpus:
		return TagStench, 1, true
	case *Gold:
		if v.Glowing {
			return TagShininess, 1, true
		}
		return TagShininess, 0, true
	default:
		return 0, 0, false
	}
}
