package grid

type Interaction uint8

const (
	// Neutral is the implicit interaction of an agent stepping into a cell.
	Neutral Interaction = iota
	Attack
	Collect
)

func (i Interaction) String() string {
	switch i {
	case Attack:
		return "attack"
	case Collect:
		return "collect"
	default:
		return "neutral"
	}
}

// Outcome describes what an interaction does. The caller applies it.
type Outcome struct {
	// Hit is false only when the cell had no occupant.
	Hit            bool
	Blocks         bool
	KillsInitiator bool
	Destroyed      bool
	Reveal         bool
	Glow           bool
	Reward         int
}

// Interact resolves the initiator's interaction with the occupant of a cell.
func Interact(target Entity, initiator *Agent, kind Interaction) Outcome {
	switch e := target.(type) {
	case nil:
		return Outcome{}
	case *Agent:
		if initiator != nil && e.ID == initiator.ID {
			return Outcome{}
		}
		return Outcome{Hit: true, Blocks: true}
	case *Pit:
		if kind == Neutral {
			return Outcome{Hit: true, Blocks: true, KillsInitiator: true, Reveal: true}
		}
		return Outcome{Hit: true}
	case *Wumpus:
		switch kind {
		case Neutral:
			return Outcome{Hit: true, Blocks: true, KillsInitiator: true, Reveal: true}
		case Attack:
			return Outcome{Hit: true, Destroyed: true, Reveal: true, Reward: e.Reward}
		default:
			return Outcome{Hit: true}
		}
	case *Gold:
		switch kind {
		case Neutral:
			return Outcome{Hit: true, Blocks: true, Glow: !e.Glowing}
		case Collect:
			return Outcome{Hit: true, Destroyed: true, Reward: e.Reward}
		default:
			return Outcome{Hit: true}
		}
	default:
		return Outcome{}
	}
}
