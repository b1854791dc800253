package main

import (
	"log/slog"
	"sync"
	"time"

	"github.com/bodul/crossgen/internal/crossword"
	"github.com/bodul/crossgen/internal/puzzle"
)

// GameSession is one open puzzle view. Events from concurrent requests are
// applied one at a time under mu.
type GameSession struct {
	ID        string    `json:"id"`
	PuzzleID  string    `json:"puzzle_id"`
	CreatedAt time.Time `json:"created_at"`

	mu      sync.Mutex
	session *crossword.Session
}

// Snapshot is the externally visible state of a session.
type Snapshot struct {
	ID            string                `json:"id"`
	PuzzleID      string                `json:"puzzle_id"`
	Selection     int                   `json:"selection"`
	LastDirection crossword.Direction   `json:"last_direction"`
	Highlight     *crossword.Highlight  `json:"highlight"`
	Solution      crossword.Solution    `json:"solution"`
	Check         crossword.CheckResult `json:"check"`
}

func newGameSession(id string, p *puzzle.Puzzle, observer crossword.Observer) *GameSession {
	return &GameSession{
		ID:        id,
		PuzzleID:  p.ID,
		CreatedAt: time.Now(),
		session:   crossword.NewSession(p.Crossword, p.Grid, observer),
	}
}

// Apply feeds one input event to the session and returns the resulting state.
func (g *GameSession) Apply(ev crossword.Event) Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session.Handle(ev)
	return g.snapshot()
}

// Snapshot returns a copy of the current state.
func (g *GameSession) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// Check runs the Check action.
func (g *GameSession) Check() crossword.CheckResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session.Check()
}

func (g *GameSession) snapshot() Snapshot {
	return Snapshot{
		ID:            g.ID,
		PuzzleID:      g.PuzzleID,
		Selection:     g.session.Selection(),
		LastDirection: g.session.LastDirection(),
		Highlight:     g.session.Highlight(),
		Solution:      g.session.Solution(),
		Check:         g.session.Check(),
	}
}

// streamEvent is the payload pushed to SSE clients.
type streamEvent struct {
	Type      string               `json:"type"`
	Solution  crossword.Solution   `json:"solution,omitempty"`
	Highlight *crossword.Highlight `json:"highlight,omitempty"`
	State     *Snapshot            `json:"state,omitempty"`
}

// gameObserver forwards session notifications to the session's SSE clients.
type gameObserver struct {
	gameID string
	sse    *Broadcaster
	logger *slog.Logger
}

func (o *gameObserver) SolutionChanged(s crossword.Solution) {
	o.publish(streamEvent{Type: "solution", Solution: s})
}

func (o *gameObserver) SelectionChanged(h *crossword.Highlight) {
	o.publish(streamEvent{Type: "selection", Highlight: h})
}

func (o *gameObserver) publish(evt streamEvent) {
	if err := o.sse.Publish(o.gameID, evt); err != nil {
		o.logger.Error("publish session event", "game", o.gameID, "type", evt.Type, "err", err)
	}
}
