package crossword

import (
	"cmp"
	"slices"
)

// Cell is one square of a projected grid. Block cells carry no letter; open
// cells hold their solution letter and, when a word starts there, its ordinal.
type Cell struct {
	Block   bool   `json:"block"`
	Letter  string `json:"letter,omitempty"`
	Ordinal int    `json:"ordinal,omitempty"`
}

// Grid is a dense row-major projection of a Crossword, translated so that its
// top-left corner is (0, 0).
type Grid struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cells  []Cell `json:"cells"`

	origin Vec2
}

// Entry describes one clue for the clue list.
type Entry struct {
	Ordinal   int       `json:"ordinal"`
	Direction Direction `json:"direction"`
	Clue      string    `json:"clue"`
	Length    int       `json:"length"`
	Cells     []int     `json:"cells"`
}

// Project lays cw out as a grid sized cw.Size().
func Project(cw *Crossword) *Grid {
	lo, _ := cw.Bounds()
	size := cw.Size()
	g := &Grid{
		Width:  size.X,
		Height: size.Y,
		Cells:  make([]Cell, size.X*size.Y),
		origin: lo,
	}
	for i := range g.Cells {
		g.Cells[i].Block = true
	}

	for _, l := range cw.Letters() {
		c := &g.Cells[g.Index(l.Position.Sub(lo))]
		c.Block = false
		c.Letter = string(l.Char)
	}

	var anchors []Vec2
	for _, w := range cw.words {
		p := w.Position.Sub(lo)
		if !slices.Contains(anchors, p) {
			anchors = append(anchors, p)
		}
	}
	slices.SortFunc(anchors, func(a, b Vec2) int {
		if c := cmp.Compare(a.Y, b.Y); c != 0 {
			return c
		}
		return cmp.Compare(a.X, b.X)
	})
	for i, p := range anchors {
		g.Cells[g.Index(p)].Ordinal = i + 1
	}
	return g
}

// Index converts a grid-relative position to a cell index. It returns -1 for
// positions outside the grid.
func (g *Grid) Index(p Vec2) int {
	if p.X < 0 || p.Y < 0 || p.X >= g.Width || p.Y >= g.Height {
		return -1
	}
	return p.Y*g.Width + p.X
}

// Position converts a cell index back to a grid-relative position.
func (g *Grid) Position(i int) Vec2 {
	return V(i%g.Width, i/g.Width)
}

// Absolute converts a cell index to the crossword's own coordinates.
func (g *Grid) Absolute(i int) Vec2 {
	return g.Position(i).Add(g.origin)
}

// Valid reports whether i is a cell index of g.
func (g *Grid) Valid(i int) bool {
	return i >= 0 && i < len(g.Cells)
}

// Open reports whether i is a valid, non-block cell.
func (g *Grid) Open(i int) bool {
	return g.Valid(i) && !g.Cells[i].Block
}

// OpenCells returns the indices of every open cell in row-major order.
func (g *Grid) OpenCells() []int {
	var out []int
	for i, c := range g.Cells {
		if !c.Block {
			out = append(out, i)
		}
	}
	return out
}

// Entry builds the clue-list entry for a placed word.
func (g *Grid) Entry(w Word) Entry {
	e := Entry{
		Direction: w.Direction,
		Clue:      w.Clue,
		Length:    w.Len(),
		Cells:     make([]int, 0, w.Len()),
	}
	for _, l := range w.Letters() {
		e.Cells = append(e.Cells, g.Index(l.Position.Sub(g.origin)))
	}
	if len(e.Cells) > 0 && g.Valid(e.Cells[0]) {
		e.Ordinal = g.Cells[e.Cells[0]].Ordinal
	}
	return e
}

// Entries returns the clue list of cw, ordered by ordinal with Across before
// Down for a shared anchor.
func (g *Grid) Entries(cw *Crossword) []Entry {
	out := make([]Entry, 0, cw.Len())
	for _, w := range cw.words {
		out = append(out, g.Entry(w))
	}
	slices.SortStableFunc(out, func(a, b Entry) int {
		if c := cmp.Compare(a.Ordinal, b.Ordinal); c != 0 {
			return c
		}
		return cmp.Compare(a.Direction, b.Direction)
	})
	return out
}
