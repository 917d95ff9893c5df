package grid

import "fmt"

// Tag is an observable cue left in a cell by a nearby entity.
type Tag uint8

const (
	TagBreeze Tag = iota + 1
	TagStench
	TagShininess
)

func (t Tag) String() string {
	switch t {
	case TagBreeze:
		return "breeze"
	case TagStench:
		return "stench"
	case TagShininess:
		return "shininess"
	default:
		return fmt.Sprintf("tag(%d)", uint8(t))
	}
}

func ParseTag(s string) (Tag, error) {
	switch s {
	case "breeze":
		return TagBreeze, nil
	case "stench":
		return TagStench, nil
	case "shininess", "glow":
		return TagShininess, nil
	default:
		return 0, fmt.Errorf("unknown percept tag %q", s)
	}
}

func (t Tag) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Tag) UnmarshalText(b []byte) error {
	v, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
