package crossword

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"
)

// Direction is the orientation of a word in the grid.
type Direction int

const (
	DirectionNone Direction = iota
	Across
	Down
)

// Unit returns the one-cell offset that advances along d.
func (d Direction) Unit() Vec2 {
	switch d {
	case Across:
		return Vec2{X: 1}
	case Down:
		return Vec2{Y: 1}
	}
	return Vec2{}
}

// Perpendicular returns the other of the two word directions.
func (d Direction) Perpendicular() Direction {
	if d == Across {
		return Down
	}
	return Across
}

func (d Direction) String() string {
	switch d {
	case Across:
		return "across"
	case Down:
		return "down"
	}
	return "none"
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Direction) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDirection(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection accepts "across"/"a" and "down"/"d" in either case.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "across", "Across", "ACROSS", "a", "A":
		return Across, nil
	case "down", "Down", "DOWN", "d", "D":
		return Down, nil
	case "", "none":
		return DirectionNone, nil
	}
	return DirectionNone, fmt.Errorf("unknown direction %q", s)
}

// Clue is an unplaced (answer, clue) pair as supplied by a puzzle source.
type Clue struct {
	Answer string `json:"answer"`
	Text   string `json:"clue"`
}

// Word is an answer placed in the crossword. Position is the anchor, the
// cell holding the first letter.
type Word struct {
	Answer    string    `json:"answer"`
	Clue      string    `json:"clue"`
	Direction Direction `json:"direction"`
	Position  Vec2      `json:"position"`
}

// Letter is a single character of a placed word.
type Letter struct {
	Char     rune `json:"char"`
	Position Vec2 `json:"position"`
}

// Len returns the answer length in letters.
func (w Word) Len() int {
	return utf8.RuneCountInString(w.Answer)
}

// End returns the position of the last letter.
func (w Word) End() Vec2 {
	return w.Position.Step(w.Direction, w.Len()-1)
}

// Letters returns the word's letters in reading order.
func (w Word) Letters() []Letter {
	out := make([]Letter, 0, w.Len())
	i := 0
	for _, r := range w.Answer {
		out = append(out, Letter{Char: r, Position: w.Position.Step(w.Direction, i)})
		i++
	}
	return out
}

// Offset returns the index of p within the word, or -1 if the word does not
// cover p.
func (w Word) Offset(p Vec2) int {
	d := p.Sub(w.Position)
	var along, across int
	switch w.Direction {
	case Across:
		along, across = d.X, d.Y
	case Down:
		along, across = d.Y, d.X
	default:
		return -1
	}
	if across != 0 || along < 0 || along >= w.Len() {
		return -1
	}
	return along
}

// Contains reports whether p lies on the word.
func (w Word) Contains(p Vec2) bool {
	return w.Offset(p) >= 0
}

// CharAt returns the letter at p, or 0 if p is not on the word.
func (w Word) CharAt(p Vec2) rune {
	i := w.Offset(p)
	if i < 0 {
		return 0
	}
	return []rune(w.Answer)[i]
}
