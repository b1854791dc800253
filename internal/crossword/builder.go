package crossword

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	// ErrNoWords is returned when Build is given nothing to anchor the grid on.
	ErrNoWords = errors.New("crossword: no words")

	// ErrInvalidAnswer is returned for answers that are empty or contain
	// anything other than letters.
	ErrInvalidAnswer = errors.New("crossword: answer must be letters only")
)

var upper = cases.Upper(language.Und)

// Build places clues into a crossword.
//
// Words are placed longest first; the first one runs Across from the origin.
// Every following word is tried against the already placed words in placement
// order and takes the first legal crossing found. Candidate crossings are
// shuffled with a generator seeded from the input, so the same input always
// yields the same layout. Words that cannot cross anything are dropped.
func Build(clues []Clue) (*Crossword, error) {
	if len(clues) == 0 {
		return nil, ErrNoWords
	}

	normalized := make([]Clue, len(clues))
	for i, c := range clues {
		answer := upper.String(c.Answer)
		if !validAnswer(answer) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAnswer, c.Answer)
		}
		normalized[i] = Clue{Answer: answer, Text: c.Text}
	}

	rng := rand.New(rand.NewPCG(seed(normalized)))

	sorted := slices.Clone(normalized)
	slices.SortStableFunc(sorted, func(a, b Clue) int {
		return utf8.RuneCountInString(b.Answer) - utf8.RuneCountInString(a.Answer)
	})

	cw := &Crossword{}
	cw.words = append(cw.words, Word{
		Answer:    sorted[0].Answer,
		Clue:      sorted[0].Text,
		Direction: Across,
	})

	for _, c := range sorted[1:] {
		w, ok := cw.place(c, rng)
		if !ok {
			cw.dropped = append(cw.dropped, c)
			continue
		}
		cw.words = append(cw.words, w)
	}
	return cw, nil
}

// place finds the first legal crossing for c, trying placed words in order.
func (cw *Crossword) place(c Clue, rng *rand.Rand) (Word, bool) {
	runes := []rune(c.Answer)
	for _, existing := range cw.words {
		candidates := crossings(existing, runes)
		rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})
		for _, cand := range candidates {
			w := Word{Answer: c.Answer, Clue: c.Text, Direction: cand.dir, Position: cand.pos}
			if cw.fits(w) {
				return w, true
			}
		}
	}
	return Word{}, false
}

type candidate struct {
	dir Direction
	pos Vec2
}

// crossings lists every placement of answer perpendicular to existing that
// lines up a pair of equal letters.
func crossings(existing Word, answer []rune) []candidate {
	dir := existing.Direction.Perpendicular()
	var out []candidate
	for i, er := range []rune(existing.Answer) {
		shared := existing.Position.Step(existing.Direction, i)
		for j, r := range answer {
			if r != er {
				continue
			}
			out = append(out, candidate{dir: dir, pos: shared.Step(dir, -j)})
		}
	}
	return out
}

func (cw *Crossword) fits(w Word) bool {
	for _, placed := range cw.words {
		if !compatible(w, placed) {
			return false
		}
	}
	return true
}

// compatible reports whether a and b may share a grid. They may if they
// neither share nor orthogonally touch a cell, or if they are perpendicular
// and cross at exactly one cell holding the same letter.
func compatible(a, b Word) bool {
	if a.Direction == b.Direction {
		return parallelClear(a, b)
	}

	across, down := a, b
	if across.Direction != Across {
		across, down = b, a
	}
	p := V(down.Position.X, across.Position.Y)

	inX := p.X >= across.Position.X && p.X <= across.End().X
	nearX := p.X >= across.Position.X-1 && p.X <= across.End().X+1
	inY := p.Y >= down.Position.Y && p.Y <= down.End().Y
	nearY := p.Y >= down.Position.Y-1 && p.Y <= down.End().Y+1

	switch {
	case inX && inY:
		return across.CharAt(p) == down.CharAt(p)
	case inX && nearY, nearX && inY:
		return false
	}
	return true
}

// parallelClear reports whether two same-direction words keep at least one
// empty cell between them on their line and do not run side by side.
func parallelClear(a, b Word) bool {
	// line is the coordinate across the direction, span runs along it.
	line := func(w Word) int {
		if w.Direction == Across {
			return w.Position.Y
		}
		return w.Position.X
	}
	start := func(w Word) int {
		if w.Direction == Across {
			return w.Position.X
		}
		return w.Position.Y
	}

	gap := line(a) - line(b)
	a0, a1 := start(a), start(a)+a.Len()-1
	b0, b1 := start(b), start(b)+b.Len()-1

	switch gap {
	case 0:
		return a1+1 < b0 || b1+1 < a0
	case 1, -1:
		return a1 < b0 || b1 < a0
	}
	return true
}

func validAnswer(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// seed derives the shuffle seed from the whole ordered input.
func seed(clues []Clue) (uint64, uint64) {
	d := xxhash.New()
	for _, c := range clues {
		d.WriteString(c.Answer)
		d.Write([]byte{0})
		d.WriteString(c.Text)
		d.Write([]byte{0})
	}
	s := d.Sum64()
	return s, s ^ 0x9e3779b97f4a7c15
}
