package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bodul/crossgen/internal/crossword"
	"github.com/bodul/crossgen/internal/puzzle"
)

const (
	maxGenerateWords = 60
	maxTitleLength   = 80
)

// rateLimiter is a simple per-IP token bucket rate limiter.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*bucket
	rate     int           // tokens per interval
	interval time.Duration // refill interval
}

type bucket struct {
	tokens   int
	lastSeen time.Time
}

func newRateLimiter(rate int, interval time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*bucket),
		rate:     rate,
		interval: interval,
	}
	// Cleanup stale entries every minute.
	go func() {
		for {
			time.Sleep(time.Minute)
			rl.mu.Lock()
			for ip, b := range rl.visitors {
				if time.Since(b.lastSeen) > 5*time.Minute {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.visitors[ip]
	if !ok {
		rl.visitors[ip] = &bucket{tokens: rl.rate - 1, lastSeen: time.Now()}
		return true
	}

	// Refill tokens based on elapsed time.
	elapsed := time.Since(b.lastSeen)
	refill := int(elapsed / rl.interval)
	if refill > 0 {
		b.tokens += refill * rl.rate
		if b.tokens > rl.rate {
			b.tokens = rl.rate
		}
		b.lastSeen = time.Now()
	}

	if b.tokens <= 0 {
		return false
	}
	b.tokens--
	return true
}

// Server is the main HTTP server.
type Server struct {
	mux        *http.ServeMux
	repo       *puzzle.Repository
	store      *Store
	clues      clueWriter
	sse        *Broadcaster
	msgs       *messages
	logger     *slog.Logger
	generateRL *rateLimiter
	eventRL    *rateLimiter
}

// NewServer creates a configured HTTP server. clues may be nil, in which case
// generated puzzles must come with their own clues.
func NewServer(repo *puzzle.Repository, store *Store, clues clueWriter, logger *slog.Logger) *Server {
	s := &Server{
		mux:        http.NewServeMux(),
		repo:       repo,
		store:      store,
		clues:      clues,
		sse:        NewBroadcaster(),
		msgs:       newMessages(),
		logger:     logger,
		generateRL: newRateLimiter(5, time.Minute), // 5 generations/min per IP
		eventRL:    newRateLimiter(60, time.Second), // 60 key presses/sec per IP
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Puzzle API
	s.mux.HandleFunc("GET /api/puzzles", s.handleListPuzzles)
	s.mux.HandleFunc("GET /api/puzzles/{id}", s.handleGetPuzzle)
	s.mux.HandleFunc("POST /api/puzzles", s.handleCreatePuzzle)

	// Session API
	s.mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.handleGetSession)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.handleDeleteSession)
	s.mux.HandleFunc("POST /api/sessions/{id}/events", s.handleEvent)
	s.mux.HandleFunc("GET /api/sessions/{id}/check", s.handleCheck)
	s.mux.HandleFunc("GET /api/sessions/{id}/stream", s.handleStream)

	s.mux.HandleFunc("GET /api/stats", s.handleStats)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
	s.mux.ServeHTTP(w, r)
}

// --- Puzzle handlers ---

type puzzleSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Words     int    `json:"words"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Generated bool   `json:"generated"`
}

// puzzleView is everything the display layer needs to draw a puzzle.
type puzzleView struct {
	ID      string            `json:"id"`
	Title   string            `json:"title"`
	Grid    *crossword.Grid   `json:"grid"`
	Entries []crossword.Entry `json:"entries"`
}

func summarize(p *puzzle.Puzzle, generated bool) puzzleSummary {
	return puzzleSummary{
		ID:        p.ID,
		Title:     p.Title,
		Words:     p.Crossword.Len(),
		Width:     p.Grid.Width,
		Height:    p.Grid.Height,
		Generated: generated,
	}
}

func viewOf(p *puzzle.Puzzle) puzzleView {
	return puzzleView{ID: p.ID, Title: p.Title, Grid: p.Grid, Entries: p.Entries}
}

// lookupPuzzle looks id up in the repository, then among generated puzzles.
func (s *Server) lookupPuzzle(id string) *puzzle.Puzzle {
	if p := s.repo.Get(id); p != nil {
		return p
	}
	return s.store.GetPuzzle(id)
}

// GET /api/puzzles — list loaded and generated puzzles.
func (s *Server) handleListPuzzles(w http.ResponseWriter, _ *http.Request) {
	list := make([]puzzleSummary, 0, s.repo.Len())
	for _, p := range s.repo.List() {
		list = append(list, summarize(p, false))
	}
	for _, p := range s.store.ListPuzzles() {
		list = append(list, summarize(p, true))
	}
	writeJSON(w, http.StatusOK, list)
}

// GET /api/puzzles/{id} — grid and clue list.
func (s *Server) handleGetPuzzle(w http.ResponseWriter, r *http.Request) {
	p := s.lookupPuzzle(r.PathValue("id"))
	if p == nil {
		s.fail(w, r, "PuzzleNotFound", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(p))
}

// POST /api/puzzles — build a puzzle from a word list, writing missing clues.
func (s *Server) handleCreatePuzzle(w http.ResponseWriter, r *http.Request) {
	if !s.generateRL.allow(r.RemoteAddr) {
		s.fail(w, r, "TooManyRequests", http.StatusTooManyRequests, nil)
		return
	}

	var req struct {
		Title string           `json:"title"`
		Words []crossword.Clue `json:"words"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Words) == 0 {
		s.fail(w, r, "WordsRequired", http.StatusBadRequest, nil)
		return
	}
	if len(req.Words) > maxGenerateWords {
		s.fail(w, r, "TooManyWords", http.StatusBadRequest, map[string]any{"Max": maxGenerateWords})
		return
	}

	clues := make([]crossword.Clue, len(req.Words))
	var missing []string
	for i, c := range req.Words {
		clues[i] = crossword.Clue{
			Answer: strings.ToUpper(strings.TrimSpace(c.Answer)),
			Text:   strings.TrimSpace(c.Text),
		}
		if clues[i].Text == "" {
			missing = append(missing, clues[i].Answer)
		}
	}

	if len(missing) > 0 {
		if s.clues == nil {
			s.fail(w, r, "CluesRequired", http.StatusBadRequest, nil)
			return
		}
		written, err := s.clues.SuggestClues(r.Context(), missing)
		if err != nil {
			s.logger.Error("suggest clues", "answers", len(missing), "err", err)
			s.fail(w, r, "ClueWriterFailed", http.StatusBadGateway, nil)
			return
		}
		for i := range clues {
			if clues[i].Text == "" {
				clues[i].Text = written[clues[i].Answer]
			}
			if clues[i].Text == "" {
				s.logger.Warn("clue writer skipped an answer", "answer", clues[i].Answer)
				s.fail(w, r, "ClueWriterFailed", http.StatusBadGateway, nil)
				return
			}
		}
	}

	p, err := s.store.SavePuzzle(sanitizeTitle(req.Title), clues)
	if errors.Is(err, crossword.ErrInvalidAnswer) {
		s.fail(w, r, "InvalidAnswer", http.StatusBadRequest, nil)
		return
	}
	if err != nil {
		s.logger.Error("build puzzle", "err", err)
		s.fail(w, r, "InvalidRequest", http.StatusBadRequest, nil)
		return
	}

	s.logger.Info("puzzle generated", "puzzle", p.ID, "words", p.Crossword.Len(), "dropped", len(p.Crossword.Dropped()))
	writeJSON(w, http.StatusCreated, viewOf(p))
}

// --- Session handlers ---

// POST /api/sessions — open a solving session on a puzzle.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PuzzleID string `json:"puzzle_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PuzzleID == "" {
		s.fail(w, r, "PuzzleIDRequired", http.StatusBadRequest, nil)
		return
	}

	p := s.lookupPuzzle(req.PuzzleID)
	if p == nil {
		s.fail(w, r, "PuzzleNotFound", http.StatusNotFound, nil)
		return
	}

	game := s.store.CreateGame(p, func(id string) crossword.Observer {
		return &gameObserver{gameID: id, sse: s.sse, logger: s.logger}
	})
	s.logger.Debug("session opened", "game", game.ID, "puzzle", p.ID)
	writeJSON(w, http.StatusCreated, game.Snapshot())
}

// GET /api/sessions/{id} — current session state.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		s.fail(w, r, "SessionNotFound", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, game.Snapshot())
}

// DELETE /api/sessions/{id} — close the view and drop its state.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.store.DeleteGame(id) {
		s.fail(w, r, "SessionNotFound", http.StatusNotFound, nil)
		return
	}
	s.sse.CloseGame(id)
	w.WriteHeader(http.StatusNoContent)
}

type eventRequest struct {
	Type   string                `json:"type"`
	Cell   int                   `json:"cell"`
	Move   crossword.Move        `json:"move"`
	Key    string                `json:"key"`
	Source crossword.InputSource `json:"source"`
}

func (req eventRequest) event() (crossword.Event, string) {
	ev := crossword.Event{Source: req.Source}
	switch req.Type {
	case "select":
		ev.Kind, ev.Cell = crossword.EventSelect, req.Cell
	case "move":
		if req.Move == 0 {
			return ev, "InvalidEvent"
		}
		ev.Kind, ev.Move = crossword.EventMove, req.Move
	case "key":
		if utf8.RuneCountInString(req.Key) != 1 {
			return ev, "InvalidKey"
		}
		ev.Kind = crossword.EventKey
		ev.Key, _ = utf8.DecodeRuneInString(req.Key)
	case "backspace":
		ev.Kind = crossword.EventBackspace
	case "escape":
		ev.Kind = crossword.EventEscape
	default:
		return ev, "InvalidEvent"
	}
	return ev, ""
}

// POST /api/sessions/{id}/events — apply one input event.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if !s.eventRL.allow(r.RemoteAddr) {
		s.fail(w, r, "TooManyRequests", http.StatusTooManyRequests, nil)
		return
	}

	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		s.fail(w, r, "SessionNotFound", http.StatusNotFound, nil)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, r, "InvalidRequest", http.StatusBadRequest, nil)
		return
	}
	ev, problem := req.event()
	if problem != "" {
		s.fail(w, r, problem, http.StatusBadRequest, nil)
		return
	}

	writeJSON(w, http.StatusOK, game.Apply(ev))
}

// GET /api/sessions/{id}/check — the Check action.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		s.fail(w, r, "SessionNotFound", http.StatusNotFound, nil)
		return
	}
	writeJSON(w, http.StatusOK, game.Check())
}

// GET /api/sessions/{id}/stream — SSE stream of solution and selection changes.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	game := s.store.GetGame(r.PathValue("id"))
	if game == nil {
		s.fail(w, r, "SessionNotFound", http.StatusNotFound, nil)
		return
	}

	s.sse.ServeSSE(w, r, game.ID, func(c *client) {
		// Send current state on connect.
		snap := game.Snapshot()
		evt, _ := json.Marshal(streamEvent{Type: "state", State: &snap})
		c.ch <- string(evt)
	})
}

// GET /api/stats — counters.
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Puzzles int `json:"puzzles"`
		Clients int `json:"clients"`
		Stats
	}{
		Puzzles: s.repo.Len(),
		Clients: s.sse.Len(),
		Stats:   s.store.Stats(),
	})
}

// --- Helpers ---

func (s *Server) fail(w http.ResponseWriter, r *http.Request, msgID string, code int, data map[string]any) {
	jsonError(w, s.msgs.localize(r, msgID, data), code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func sanitizeTitle(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > maxTitleLength {
		s = string([]rune(s)[:maxTitleLength])
	}
	return s
}
