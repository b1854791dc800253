package crossword

import (
	"maps"
	"unicode"
)

// NoSelection is the selection value when no cell is selected.
const NoSelection = -1

// Solution maps open cell indices to the entered letter. An empty string
// means nothing has been entered in that cell.
type Solution map[int]string

// Highlight is the word shown as active for the selected cell.
type Highlight struct {
	Cell int `json:"cell"`
	Entry
}

// CheckResult is the outcome of the Check action.
type CheckResult struct {
	Enabled bool `json:"enabled"`
	Correct bool `json:"correct"`
}

// Observer receives display notifications from a Session.
type Observer interface {
	// SolutionChanged is called after every write with a copy of the whole
	// solution.
	SolutionChanged(Solution)
	// SelectionChanged is called whenever the selected cell changes. h is nil
	// when nothing is selected.
	SelectionChanged(h *Highlight)
}

// Session is the interactive solving state of one puzzle view. It is not safe
// for concurrent use; callers feed it one event at a time.
type Session struct {
	cw       *Crossword
	grid     *Grid
	observer Observer

	solution      Solution
	selection     int
	lastDirection Direction
}

// NewSession starts an empty session on grid, the projection of cw. observer
// may be nil.
func NewSession(cw *Crossword, grid *Grid, observer Observer) *Session {
	s := &Session{
		cw:        cw,
		grid:      grid,
		observer:  observer,
		solution:  make(Solution),
		selection: NoSelection,
	}
	for _, i := range grid.OpenCells() {
		s.solution[i] = ""
	}
	return s
}

// Selection returns the selected cell index or NoSelection.
func (s *Session) Selection() int {
	return s.selection
}

// LastDirection returns the direction the cursor last travelled.
func (s *Session) LastDirection() Direction {
	return s.lastDirection
}

// Solution returns a copy of the entered letters.
func (s *Session) Solution() Solution {
	return maps.Clone(s.solution)
}

// Handle applies ev.
func (s *Session) Handle(ev Event) {
	switch ev.Kind {
	case EventSelect:
		s.Select(ev.Cell, ev.Source)
	case EventMove:
		s.Move(ev.Move)
	case EventKey:
		s.Type(ev.Key)
	case EventBackspace:
		s.Backspace()
	case EventEscape:
		s.Escape()
	}
}

// Select toggles the selection of cell. Block cells are ignored.
func (s *Session) Select(cell int, src InputSource) {
	if !s.grid.Open(cell) {
		return
	}
	if cell == s.selection {
		s.setSelection(NoSelection)
		return
	}
	if src == SourcePointer {
		if d := s.soleDirection(cell); d != DirectionNone {
			s.lastDirection = d
		}
	}
	s.setSelection(cell)
}

// Move steps the selection one cell. It reports false, leaving the state
// untouched, when nothing is selected or the target is off the grid, across a
// row edge, or a block.
func (s *Session) Move(m Move) bool {
	if s.selection == NoSelection {
		return false
	}
	p := s.grid.Position(s.selection)
	switch m {
	case MoveLeft:
		if p.X == 0 {
			return false
		}
		p.X--
	case MoveRight:
		if p.X == s.grid.Width-1 {
			return false
		}
		p.X++
	case MoveUp:
		if p.Y == 0 {
			return false
		}
		p.Y--
	case MoveDown:
		if p.Y == s.grid.Height-1 {
			return false
		}
		p.Y++
	default:
		return false
	}
	target := s.grid.Index(p)
	if !s.grid.Open(target) {
		return false
	}
	s.lastDirection = m.Direction()
	s.setSelection(target)
	return true
}

// Type enters r at the selection and advances along the active word.
func (s *Session) Type(r rune) {
	if s.selection == NoSelection || !unicode.IsLetter(r) {
		return
	}
	s.write(string(unicode.ToUpper(r)))
	s.step(forward)
}

// Backspace clears the selection and retreats along the active word.
func (s *Session) Backspace() {
	if s.selection == NoSelection {
		return
	}
	s.write("")
	s.step(backward)
}

// Escape clears the selection.
func (s *Session) Escape() {
	s.setSelection(NoSelection)
}

// Highlight returns the active word for the selection, or nil.
func (s *Session) Highlight() *Highlight {
	if s.selection == NoSelection {
		return nil
	}
	w, ok := s.activeWord(s.selection)
	if !ok {
		return nil
	}
	return &Highlight{Cell: s.selection, Entry: s.grid.Entry(w)}
}

// Correct reports whether the solution is non-empty and no entered letter
// disagrees with the grid. Unentered cells are not counted as wrong.
func (s *Session) Correct() bool {
	if len(s.solution) == 0 {
		return false
	}
	for i, v := range s.solution {
		if v != "" && v != s.grid.Cells[i].Letter {
			return false
		}
	}
	return true
}

// Complete reports whether every open cell has an entry.
func (s *Session) Complete() bool {
	if len(s.solution) == 0 {
		return false
	}
	for _, v := range s.solution {
		if v == "" {
			return false
		}
	}
	return true
}

// Check is only enabled once the grid is complete; an incomplete grid never
// reports correct.
func (s *Session) Check() CheckResult {
	if !s.Complete() {
		return CheckResult{}
	}
	return CheckResult{Enabled: true, Correct: s.Correct()}
}

func (s *Session) write(v string) {
	s.solution[s.selection] = v
	if s.observer != nil {
		s.observer.SolutionChanged(s.Solution())
	}
}

// step moves one cell along the active word. A rejected move leaves the
// selection where it is.
func (s *Session) step(move func(Direction) Move) {
	w, ok := s.activeWord(s.selection)
	if !ok {
		return
	}
	s.Move(move(w.Direction))
}

func (s *Session) setSelection(cell int) {
	if cell == s.selection {
		return
	}
	s.selection = cell
	if s.observer != nil {
		s.observer.SelectionChanged(s.Highlight())
	}
}

// activeWord picks the word through cell running in lastDirection, falling
// back to the first word through cell.
func (s *Session) activeWord(cell int) (Word, bool) {
	words := s.cw.WordsAt(s.grid.Absolute(cell))
	if len(words) == 0 {
		return Word{}, false
	}
	for _, w := range words {
		if w.Direction == s.lastDirection {
			return w, true
		}
	}
	return words[0], true
}

// soleDirection returns the direction shared by every word through cell, or
// DirectionNone at a crossing.
func (s *Session) soleDirection(cell int) Direction {
	d := DirectionNone
	for _, w := range s.cw.WordsAt(s.grid.Absolute(cell)) {
		if d != DirectionNone && w.Direction != d {
			return DirectionNone
		}
		d = w.Direction
	}
	return d
}
