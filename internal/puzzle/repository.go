package puzzle

import (
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"github.com/bodul/crossgen/internal/crossword"
)

// Puzzle is a built crossword ready to be solved.
type Puzzle struct {
	ID        string
	Title     string
	Clues     []crossword.Clue
	Crossword *crossword.Crossword
	Grid      *crossword.Grid
	Entries   []crossword.Entry
}

// New builds and projects a puzzle from its clues.
func New(id, title string, clues []crossword.Clue) (*Puzzle, error) {
	cw, err := crossword.Build(clues)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", id, err)
	}
	grid := crossword.Project(cw)
	return &Puzzle{
		ID:        id,
		Title:     title,
		Clues:     clues,
		Crossword: cw,
		Grid:      grid,
		Entries:   grid.Entries(cw),
	}, nil
}

// Repository holds every puzzle loaded at startup. It is never modified after
// Load returns and may be shared freely.
type Repository struct {
	puzzles []*Puzzle
	byID    map[string]*Puzzle
}

// Load parses and builds every *.txt file in dir. Any malformed file fails the
// whole load.
func Load(fsys fs.FS, dir string, logger *slog.Logger) (*Repository, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("list puzzles: %w", err)
	}

	repo := &Repository{byID: make(map[string]*Puzzle, len(files))}
	for _, name := range files {
		p, err := loadFile(fsys, name)
		if err != nil {
			return nil, err
		}
		if _, dup := repo.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate puzzle id %q", p.ID)
		}
		if dropped := p.Crossword.Dropped(); len(dropped) > 0 {
			logger.Debug("words left out of puzzle", "puzzle", p.ID, "dropped", len(dropped))
		}
		repo.puzzles = append(repo.puzzles, p)
		repo.byID[p.ID] = p
	}

	logger.Info("puzzles loaded", "count", len(repo.puzzles), "dir", dir)
	return repo, nil
}

func loadFile(fsys fs.FS, name string) (*Puzzle, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	id := strings.TrimSuffix(path.Base(name), path.Ext(name))
	src, err := Parse(id, f)
	if err != nil {
		return nil, err
	}
	return New(src.ID, src.Title, src.Clues)
}

// Get returns a puzzle by ID, or nil if not found.
func (r *Repository) Get(id string) *Puzzle {
	return r.byID[id]
}

// List returns all puzzles ordered by ID.
func (r *Repository) List() []*Puzzle {
	out := make([]*Puzzle, len(r.puzzles))
	copy(out, r.puzzles)
	return out
}

// Len returns the number of puzzles.
func (r *Repository) Len() int {
	return len(r.puzzles)
}
