package crossword

import (
	"encoding/json"
	"fmt"
)

// Move is a one-cell cursor movement.
type Move int

const (
	MoveLeft Move = iota + 1
	MoveRight
	MoveUp
	MoveDown
)

var moveNames = map[Move]string{
	MoveLeft:  "left",
	MoveRight: "right",
	MoveUp:    "up",
	MoveDown:  "down",
}

func (m Move) String() string {
	if s, ok := moveNames[m]; ok {
		return s
	}
	return "none"
}

// Direction returns the word direction a move travels along.
func (m Move) Direction() Direction {
	switch m {
	case MoveLeft, MoveRight:
		return Across
	case MoveUp, MoveDown:
		return Down
	}
	return DirectionNone
}

// forward returns the move that advances one letter along d, and backward the
// one that retreats.
func forward(d Direction) Move {
	if d == Down {
		return MoveDown
	}
	return MoveRight
}

func backward(d Direction) Move {
	if d == Down {
		return MoveUp
	}
	return MoveLeft
}

func (m Move) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Move) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for k, v := range moveNames {
		if v == s {
			*m = k
			return nil
		}
	}
	return fmt.Errorf("unknown move %q", s)
}

// InputSource tags where an event came from. Pointer selections adopt the
// direction of the clicked word; keyboard selections keep the direction the
// cursor was already travelling.
type InputSource int

const (
	SourceKeyboard InputSource = iota
	SourcePointer
)

func (s InputSource) String() string {
	if s == SourcePointer {
		return "pointer"
	}
	return "keyboard"
}

func (s InputSource) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *InputSource) UnmarshalJSON(b []byte) error {
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v {
	case "pointer", "mouse", "touch":
		*s = SourcePointer
	case "keyboard", "":
		*s = SourceKeyboard
	default:
		return fmt.Errorf("unknown input source %q", v)
	}
	return nil
}

// EventKind selects the transition an Event triggers.
type EventKind int

const (
	EventSelect EventKind = iota + 1
	EventMove
	EventKey
	EventBackspace
	EventEscape
)

// Event is a single user input delivered to a Session.
type Event struct {
	Kind   EventKind
	Source InputSource
	Cell   int  // EventSelect
	Move   Move // EventMove
	Key    rune // EventKey
}
