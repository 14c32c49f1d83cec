package input

import (
	"bufio"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/grokline/internal/errs"
	"github.com/atikulmunna/grokline/internal/model"
)

// MaxLineBytes is the longest line a Source accepts. Longer lines are an input error.
const MaxLineBytes = 4 * 1024 * 1024

// Source reads lines from a list of inputs in order, one input at a time.
// Each input is opened only when the previous one is exhausted.
type Source struct {
	paths   []string
	stdin   io.Reader
	next    int
	current string
	file    *os.File
	scanner *bufio.Scanner
	line    model.RawLine
	err     error
}

// Open resolves args and returns a Source over the result, reading "-" from os.Stdin.
func Open(args []string) (*Source, error) {
	paths, err := Resolve(args)
	if err != nil {
		return nil, err
	}
	return NewSource(paths, os.Stdin), nil
}

// NewSource returns a Source over already-resolved paths.
func NewSource(paths []string, stdin io.Reader) *Source {
	return &Source{paths: paths, stdin: stdin}
}

// Paths returns the inputs in read order.
func (s *Source) Paths() []string {
	return s.paths
}

// Scan advances to the next line. It returns false at the end of the last
// input or on the first error; check Err afterwards.
func (s *Source) Scan() bool {
	for s.err == nil {
		if s.scanner == nil {
			if s.next >= len(s.paths) {
				return false
			}
			if err := s.openNext(); err != nil {
				s.err = err
				return false
			}
		}

		if s.scanner.Scan() {
			s.line = model.RawLine{Text: s.scanner.Text(), Source: s.current}
			return true
		}
		if err := s.scanner.Err(); err != nil {
			s.err = errs.Input("read "+s.current, err)
		}
		s.closeCurrent()
	}
	return false
}

// Line returns the line read by the last successful Scan.
func (s *Source) Line() model.RawLine {
	return s.line
}

// Err returns the first error encountered, if any.
func (s *Source) Err() error {
	return s.err
}

// Close releases the input currently open. Standard input is never closed.
func (s *Source) Close() error {
	s.next = len(s.paths)
	return s.closeCurrent()
}

func (s *Source) openNext() error {
	path := s.paths[s.next]
	s.next++

	var r io.Reader
	if path == Stdin {
		if f, ok := s.stdin.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
			logrus.Warn("Reading from standard input; end input with Ctrl-D")
		}
		r = s.stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return errs.Input("open", err)
		}
		s.file = f
		r = f
	}

	logrus.WithField("input", path).Debug("Reading input")
	s.current = path
	s.scanner = bufio.NewScanner(r)
	s.scanner.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return nil
}

func (s *Source) closeCurrent() error {
	s.scanner = nil
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
