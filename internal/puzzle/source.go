// Package puzzle loads puzzle source files and keeps the built crosswords in a
// read-only repository.
package puzzle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/bodul/crossgen/internal/crossword"
)

// ErrMalformedSource marks source text that cannot be split into fields.
var ErrMalformedSource = errors.New("malformed puzzle source")

// SourceError locates a parse failure.
type SourceError struct {
	File string
	Line int
	Err  error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// Source is a parsed puzzle file.
type Source struct {
	ID    string
	Title string
	Clues []crossword.Clue
}

// Parse reads a puzzle source. Blank lines and lines starting with '#' are
// skipped. An optional "title:" line names the puzzle; every other line is
//
//	ANSWER clue text
//
// or the positioned form
//
//	ANSWER @x,y A|D clue text
//
// whose position and direction are checked but not used, since every puzzle
// is laid out by the builder.
func Parse(id string, r io.Reader) (*Source, error) {
	src := &Source{ID: id, Title: id}
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if title, ok := cutPrefixFold(line, "title:"); ok {
			src.Title = norm.NFC.String(strings.TrimSpace(title))
			continue
		}
		c, err := parseLine(line)
		if err != nil {
			return nil, &SourceError{File: id, Line: n, Err: err}
		}
		src.Clues = append(src.Clues, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	if len(src.Clues) == 0 {
		return nil, &SourceError{File: id, Line: n, Err: fmt.Errorf("%w: no words", ErrMalformedSource)}
	}
	return src, nil
}

func parseLine(line string) (crossword.Clue, error) {
	answer, rest, ok := cutField(line)
	if !ok {
		return crossword.Clue{}, fmt.Errorf("%w: missing clue for %q", ErrMalformedSource, answer)
	}
	for _, r := range answer {
		if !unicode.IsLetter(r) {
			return crossword.Clue{}, fmt.Errorf("%w: answer %q must be letters only", ErrMalformedSource, answer)
		}
	}

	if strings.HasPrefix(rest, "@") {
		pos, after, _ := cutField(rest)
		if err := checkPosition(pos[1:]); err != nil {
			return crossword.Clue{}, err
		}
		dir, text, ok := cutField(after)
		if !ok {
			return crossword.Clue{}, fmt.Errorf("%w: missing clue for %q", ErrMalformedSource, answer)
		}
		if d, err := crossword.ParseDirection(dir); err != nil || d == crossword.DirectionNone {
			return crossword.Clue{}, fmt.Errorf("%w: bad direction %q", ErrMalformedSource, dir)
		}
		rest = text
	}

	return crossword.Clue{Answer: answer, Text: norm.NFC.String(rest)}, nil
}

func checkPosition(s string) error {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return fmt.Errorf("%w: bad position %q", ErrMalformedSource, s)
	}
	if _, err := strconv.Atoi(xs); err != nil {
		return fmt.Errorf("%w: bad position %q", ErrMalformedSource, s)
	}
	if _, err := strconv.Atoi(ys); err != nil {
		return fmt.Errorf("%w: bad position %q", ErrMalformedSource, s)
	}
	return nil
}

// cutField splits s at its first run of whitespace. ok is false when nothing
// follows the first field.
func cutField(s string) (field, rest string, ok bool) {
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, "", false
	}
	rest = strings.TrimSpace(s[i:])
	return s[:i], rest, rest != ""
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return "", false
	}
	return s[len(prefix):], true
}
