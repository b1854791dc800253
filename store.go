package main

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"go.uber.org/atomic"

	"github.com/bodul/crossgen/internal/crossword"
	"github.com/bodul/crossgen/internal/puzzle"
)

// Store holds puzzles generated at runtime and open solving sessions in
// memory.
type Store struct {
	mu      sync.RWMutex
	puzzles map[string]*puzzle.Puzzle
	order   []string
	games   map[string]*GameSession

	generated atomic.Int64
	opened    atomic.Int64
	closed    atomic.Int64
}

// Stats counts store activity since startup.
type Stats struct {
	Generated int64 `json:"generated"`
	Open      int   `json:"open_sessions"`
	Opened    int64 `json:"opened_sessions"`
	Closed    int64 `json:"closed_sessions"`
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		puzzles: make(map[string]*puzzle.Puzzle),
		games:   make(map[string]*GameSession),
	}
}

// SavePuzzle builds a puzzle from clues and stores it under a generated ID.
// An empty title defaults to the ID.
func (s *Store) SavePuzzle(title string, clues []crossword.Clue) (*puzzle.Puzzle, error) {
	id := generateID()
	if title == "" {
		title = id
	}
	p, err := puzzle.New(id, title, clues)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.puzzles[p.ID] = p
	s.order = append(s.order, p.ID)
	s.mu.Unlock()

	s.generated.Inc()
	return p, nil
}

// GetPuzzle returns a generated puzzle by ID, or nil if not found.
func (s *Store) GetPuzzle(id string) *puzzle.Puzzle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.puzzles[id]
}

// ListPuzzles returns generated puzzles, most recent first.
func (s *Store) ListPuzzles() []*puzzle.Puzzle {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*puzzle.Puzzle, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		list = append(list, s.puzzles[s.order[i]])
	}
	return list
}

// CreateGame opens a solving session on p. newObserver receives the session
// ID before the session starts.
func (s *Store) CreateGame(p *puzzle.Puzzle, newObserver func(id string) crossword.Observer) *GameSession {
	id := generateID()
	var observer crossword.Observer
	if newObserver != nil {
		observer = newObserver(id)
	}
	game := newGameSession(id, p, observer)

	s.mu.Lock()
	s.games[game.ID] = game
	s.mu.Unlock()

	s.opened.Inc()
	return game
}

// GetGame returns a session by ID, or nil if not found.
func (s *Store) GetGame(id string) *GameSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.games[id]
}

// DeleteGame discards a session. It reports whether the session existed.
func (s *Store) DeleteGame(id string) bool {
	s.mu.Lock()
	_, ok := s.games[id]
	delete(s.games, id)
	s.mu.Unlock()

	if ok {
		s.closed.Inc()
	}
	return ok
}

// ListGames returns all open sessions.
func (s *Store) ListGames() []*GameSession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*GameSession, 0, len(s.games))
	for _, g := range s.games {
		list = append(list, g)
	}
	return list
}

// Stats returns the current counters.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	open := len(s.games)
	s.mu.RUnlock()

	return Stats{
		Generated: s.generated.Load(),
		Open:      open,
		Opened:    s.opened.Load(),
		Closed:    s.closed.Load(),
	}
}

func generateID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
