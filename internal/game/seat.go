package game

import (
	"encoding/json"
	"fmt"
)

// Seat identifies one of the four positions at the table. Rotation is
// clockwise: North → East → South → West → North.
type Seat int

const (
	North Seat = iota
	East
	South
	West
)

// Seats lists the four seats in clockwise order.
var Seats = [4]Seat{North, East, South, West}

// String returns the string representation of a seat
func (s Seat) String() string {
	switch s {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	default:
		return "?"
	}
}

// Clockwise returns the next seat in turn order.
func (s Seat) Clockwise() Seat {
	return (s + 1) % 4
}

// Partner returns the seat across the table.
func (s Seat) Partner() Seat {
	return (s + 2) % 4
}

// Partnership returns the partnership the seat belongs to.
func (s Seat) Partnership() Partnership {
	if s == North || s == South {
		return NorthSouth
	}
	return EastWest
}

// ParseSeat converts a seat name back into a Seat.
func ParseSeat(name string) (Seat, error) {
	switch name {
	case "north":
		return North, nil
	case "east":
		return East, nil
	case "south":
		return South, nil
	case "west":
		return West, nil
	default:
		return 0, fmt.Errorf("invalid seat %q", name)
	}
}

// MarshalJSON encodes the seat as its name.
func (s Seat) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a seat from its name.
func (s *Seat) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	seat, err := ParseSeat(name)
	if err != nil {
		return err
	}
	*s = seat
	return nil
}

// Partnership identifies one of the two partnerships: North+South or
// East+West.
type Partnership int

const (
	NorthSouth Partnership = iota
	EastWest
)

// String returns the string representation of a partnership
func (p Partnership) String() string {
	switch p {
	case NorthSouth:
		return "north/south"
	case EastWest:
		return "east/west"
	default:
		return "?"
	}
}

// Seats returns the two seats of the partnership.
func (p Partnership) Seats() [2]Seat {
	if p == NorthSouth {
		return [2]Seat{North, South}
	}
	return [2]Seat{East, West}
}

// Opponent returns the other partnership.
func (p Partnership) Opponent() Partnership {
	if p == NorthSouth {
		return EastWest
	}
	return NorthSouth
}
