// Package crossword builds crossword layouts from answer/clue lists and runs
// the interactive solving state for a projected grid.
package crossword

import "slices"

// Crossword is an immutable set of placed words. The first word is anchored
// at the origin running Across; the rest follow in placement order.
type Crossword struct {
	words   []Word
	dropped []Clue
}

// Words returns the placed words in placement order.
func (cw *Crossword) Words() []Word {
	return slices.Clone(cw.words)
}

// Len returns the number of placed words.
func (cw *Crossword) Len() int {
	return len(cw.words)
}

// Dropped returns the inputs that could not be placed.
func (cw *Crossword) Dropped() []Clue {
	return slices.Clone(cw.dropped)
}

// Bounds returns the smallest and largest positions covered by a letter.
func (cw *Crossword) Bounds() (lo, hi Vec2) {
	if len(cw.words) == 0 {
		return Vec2{}, Vec2{}
	}
	lo, hi = cw.words[0].Position, cw.words[0].Position
	for _, w := range cw.words {
		lo = minVec(lo, minVec(w.Position, w.End()))
		hi = maxVec(hi, maxVec(w.Position, w.End()))
	}
	return lo, hi
}

// Size returns the width and height of the bounding box.
func (cw *Crossword) Size() Vec2 {
	if len(cw.words) == 0 {
		return Vec2{}
	}
	lo, hi := cw.Bounds()
	return hi.Sub(lo).Add(V(1, 1))
}

// Letters returns every letter of every word in absolute coordinates. A
// crossing cell appears once per word covering it.
func (cw *Crossword) Letters() []Letter {
	var out []Letter
	for _, w := range cw.words {
		out = append(out, w.Letters()...)
	}
	return out
}

// WordsAt returns the words covering p, in placement order.
func (cw *Crossword) WordsAt(p Vec2) []Word {
	var out []Word
	for _, w := range cw.words {
		if w.Contains(p) {
			out = append(out, w)
		}
	}
	return out
}
