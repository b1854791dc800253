package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bodul/crossgen/internal/crossword"
	"github.com/bodul/crossgen/internal/puzzle"
)

type fakeClueWriter struct {
	clues map[string]string
	err   error
	asked []string
}

func (f *fakeClueWriter) SuggestClues(_ context.Context, answers []string) (map[string]string, error) {
	f.asked = append(f.asked, answers...)
	return f.clues, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, clues clueWriter) *Server {
	t.Helper()
	fsys := fstest.MapFS{
		"puzzles/hello.txt": {Data: []byte("title: Hello\nHELLO Greeting\n")},
		"puzzles/zoo.txt":   {Data: []byte("CAT Feline\nCAR Vehicle\n")},
	}
	repo, err := puzzle.Load(fsys, "puzzles", testLogger())
	if err != nil {
		t.Fatalf("load puzzles: %v", err)
	}
	return NewServer(repo, NewStore(), clues, testLogger())
}

func do(srv *Server, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func openSession(t *testing.T, srv *Server, puzzleID string) Snapshot {
	t.Helper()
	w := do(srv, "POST", "/api/sessions", `{"puzzle_id":"`+puzzleID+`"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var snap Snapshot
	json.NewDecoder(w.Body).Decode(&snap)
	if snap.ID == "" {
		t.Fatal("session ID is empty")
	}
	return snap
}

func sendEvent(t *testing.T, srv *Server, id, body string) Snapshot {
	t.Helper()
	w := do(srv, "POST", "/api/sessions/"+id+"/events", body)
	if w.Code != http.StatusOK {
		t.Fatalf("event %s: expected 200, got %d: %s", body, w.Code, w.Body.String())
	}
	var snap Snapshot
	json.NewDecoder(w.Body).Decode(&snap)
	return snap
}

func TestListPuzzles(t *testing.T) {
	srv := newTestServer(t, nil)
	w := do(srv, "GET", "/api/puzzles", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var list []puzzleSummary
	json.NewDecoder(w.Body).Decode(&list)
	if len(list) != 2 {
		t.Fatalf("expected 2 puzzles, got %d", len(list))
	}
	want := puzzleSummary{ID: "hello", Title: "Hello", Words: 1, Width: 5, Height: 1}
	if diff := cmp.Diff(want, list[0]); diff != "" {
		t.Fatalf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestGetPuzzle(t *testing.T) {
	srv := newTestServer(t, nil)
	w := do(srv, "GET", "/api/puzzles/hello", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var view puzzleView
	json.NewDecoder(w.Body).Decode(&view)
	if view.Grid == nil || view.Grid.Width != 5 || len(view.Grid.Cells) != 5 {
		t.Fatalf("unexpected grid %+v", view.Grid)
	}
	if view.Grid.Cells[0].Ordinal != 1 || view.Grid.Cells[4].Letter != "O" {
		t.Fatalf("unexpected cells %+v", view.Grid.Cells)
	}
	if len(view.Entries) != 1 || view.Entries[0].Clue != "Greeting" {
		t.Fatalf("unexpected entries %+v", view.Entries)
	}
}

func TestGetPuzzleNotFoundLocalized(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(srv, "GET", "/api/puzzles/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if body["error"] != "Grille introuvable" {
		t.Fatalf("expected French message by default, got %q", body["error"])
	}

	req := httptest.NewRequest("GET", "/api/puzzles/nope", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	json.NewDecoder(w.Body).Decode(&body)
	if body["error"] != "Puzzle not found" {
		t.Fatalf("expected English message, got %q", body["error"])
	}
}

func TestFullSessionFlow(t *testing.T) {
	srv := newTestServer(t, nil)
	snap := openSession(t, srv, "hello")
	if snap.Selection != crossword.NoSelection {
		t.Fatalf("expected no selection, got %d", snap.Selection)
	}
	if len(snap.Solution) != 5 {
		t.Fatalf("expected 5 open cells, got %d", len(snap.Solution))
	}

	snap = sendEvent(t, srv, snap.ID, `{"type":"select","cell":0,"source":"pointer"}`)
	if snap.Selection != 0 || snap.Highlight == nil || snap.Highlight.Clue != "Greeting" {
		t.Fatalf("unexpected selection state %+v", snap)
	}

	for _, k := range "hello" {
		snap = sendEvent(t, srv, snap.ID, `{"type":"key","key":"`+string(k)+`"}`)
	}
	if snap.Selection != 4 {
		t.Fatalf("expected selection to stop on the last cell, got %d", snap.Selection)
	}
	want := crossword.Solution{0: "H", 1: "E", 2: "L", 3: "L", 4: "O"}
	if diff := cmp.Diff(want, snap.Solution); diff != "" {
		t.Fatalf("solution mismatch (-want +got):\n%s", diff)
	}

	w := do(srv, "GET", "/api/sessions/"+snap.ID+"/check", "")
	var check crossword.CheckResult
	json.NewDecoder(w.Body).Decode(&check)
	if !check.Enabled || !check.Correct {
		t.Fatalf("expected a correct check, got %+v", check)
	}

	snap = sendEvent(t, srv, snap.ID, `{"type":"backspace"}`)
	if snap.Selection != 3 || snap.Solution[4] != "" {
		t.Fatalf("backspace should clear and step back, got %+v", snap)
	}
	if snap.Check.Enabled || snap.Check.Correct {
		t.Fatalf("incomplete grid must not check, got %+v", snap.Check)
	}

	snap = sendEvent(t, srv, snap.ID, `{"type":"move","move":"right"}`)
	if snap.Selection != 4 {
		t.Fatalf("expected move right to 4, got %d", snap.Selection)
	}
	snap = sendEvent(t, srv, snap.ID, `{"type":"move","move":"right"}`)
	if snap.Selection != 4 {
		t.Fatalf("move past the edge should be ignored, got %d", snap.Selection)
	}

	snap = sendEvent(t, srv, snap.ID, `{"type":"escape"}`)
	if snap.Selection != crossword.NoSelection || snap.Highlight != nil {
		t.Fatalf("escape should deselect, got %+v", snap)
	}

	w = do(srv, "GET", "/api/sessions/"+snap.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get session: expected 200, got %d", w.Code)
	}
}

func TestEventValidation(t *testing.T) {
	srv := newTestServer(t, nil)
	snap := openSession(t, srv, "hello")

	bad := []string{
		`{"type":"jump"}`,
		`{"type":"key","key":"ab"}`,
		`{"type":"key","key":""}`,
		`{"type":"move","move":"sideways"}`,
		`{"type":"move"}`,
		`{"type":"select","cell":0,"source":"telepathy"}`,
		`not json`,
	}
	for _, body := range bad {
		w := do(srv, "POST", "/api/sessions/"+snap.ID+"/events", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", body, w.Code)
		}
	}

	w := do(srv, "POST", "/api/sessions/unknown/events", `{"type":"escape"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown session, got %d", w.Code)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	if w := do(srv, "POST", "/api/sessions", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without puzzle_id, got %d", w.Code)
	}
	if w := do(srv, "POST", "/api/sessions", `{"puzzle_id":"nonexistent"}`); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown puzzle, got %d", w.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t, nil)
	snap := openSession(t, srv, "zoo")

	if w := do(srv, "DELETE", "/api/sessions/"+snap.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w := do(srv, "GET", "/api/sessions/"+snap.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
	if w := do(srv, "DELETE", "/api/sessions/"+snap.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", w.Code)
	}
}

func TestSessionEventsReachStream(t *testing.T) {
	srv := newTestServer(t, nil)
	snap := openSession(t, srv, "hello")
	c := srv.sse.Register(snap.ID)
	defer srv.sse.Unregister(c)

	sendEvent(t, srv, snap.ID, `{"type":"select","cell":2,"source":"pointer"}`)
	sendEvent(t, srv, snap.ID, `{"type":"key","key":"l"}`)

	var types []string
	for range 3 {
		select {
		case msg := <-c.ch:
			var evt streamEvent
			if err := json.Unmarshal([]byte(msg), &evt); err != nil {
				t.Fatalf("bad event %q: %v", msg, err)
			}
			types = append(types, evt.Type)
		case <-time.After(100 * time.Millisecond):
			t.Fatalf("missing events, got %v", types)
		}
	}
	// select, then the write, then the step to the next cell.
	if diff := cmp.Diff([]string{"selection", "solution", "selection"}, types); diff != "" {
		t.Fatalf("event order mismatch (-want +got):\n%s", diff)
	}
}

func TestCreatePuzzle(t *testing.T) {
	writer := &fakeClueWriter{clues: map[string]string{"CAT": "Feline"}}
	srv := newTestServer(t, writer)

	body := `{"title":"Pets","words":[{"answer":"cat"},{"answer":"car","clue":"Vehicle"}]}`
	w := do(srv, "POST", "/api/puzzles", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if diff := cmp.Diff([]string{"CAT"}, writer.asked); diff != "" {
		t.Fatalf("only missing clues should be requested (-want +got):\n%s", diff)
	}

	var view puzzleView
	json.NewDecoder(w.Body).Decode(&view)
	if view.Title != "Pets" || len(view.Entries) != 2 {
		t.Fatalf("unexpected puzzle %+v", view)
	}

	// The generated puzzle is listed and playable.
	if w := do(srv, "GET", "/api/puzzles/"+view.ID, ""); w.Code != http.StatusOK {
		t.Fatalf("expected generated puzzle to be served, got %d", w.Code)
	}
	openSession(t, srv, view.ID)

	var list []puzzleSummary
	json.NewDecoder(do(srv, "GET", "/api/puzzles", "").Body).Decode(&list)
	if len(list) != 3 || !list[2].Generated {
		t.Fatalf("expected the generated puzzle at the end of the list, got %+v", list)
	}
}

func TestCreatePuzzleErrors(t *testing.T) {
	tests := []struct {
		name   string
		writer clueWriter
		body   string
		code   int
	}{
		{"no words", nil, `{"words":[]}`, http.StatusBadRequest},
		{"missing clue without writer", nil, `{"words":[{"answer":"cat"}]}`, http.StatusBadRequest},
		{"invalid answer", nil, `{"words":[{"answer":"R2D2","clue":"Droid"}]}`, http.StatusBadRequest},
		{"writer fails", &fakeClueWriter{err: errors.New("boom")}, `{"words":[{"answer":"cat"}]}`, http.StatusBadGateway},
		{"writer skips", &fakeClueWriter{clues: map[string]string{}}, `{"words":[{"answer":"cat"}]}`, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.writer)
			if w := do(srv, "POST", "/api/puzzles", tt.body); w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestStats(t *testing.T) {
	srv := newTestServer(t, nil)
	openSession(t, srv, "hello")
	snap := openSession(t, srv, "zoo")
	do(srv, "DELETE", "/api/sessions/"+snap.ID, "")

	var stats struct {
		Puzzles int `json:"puzzles"`
		Stats
	}
	json.NewDecoder(do(srv, "GET", "/api/stats", "").Body).Decode(&stats)
	if stats.Puzzles != 2 || stats.Open != 1 || stats.Opened != 2 || stats.Closed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, nil)

	w := do(srv, "GET", "/api/puzzles", "")

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}

	for key, expected := range headers {
		if got := w.Header().Get(key); got != expected {
			t.Errorf("header %s: expected %q, got %q", key, expected, got)
		}
	}

	csp := w.Header().Get("Content-Security-Policy")
	if csp == "" {
		t.Error("Content-Security-Policy header missing")
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, time.Second)

	// First 3 should pass.
	for i := range 3 {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	// 4th should be blocked.
	if rl.allow("1.2.3.4") {
		t.Fatal("4th request should be rate limited")
	}

	// Different IP should still be allowed.
	if !rl.allow("5.6.7.8") {
		t.Fatal("different IP should be allowed")
	}
}
