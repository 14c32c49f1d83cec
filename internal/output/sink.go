package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/grokline/internal/errs"
)

// Sink is the destination for encoded output. Every unit written through
// WriteUnit is flushed before it returns, so output streams as lines are parsed.
type Sink struct {
	name   string
	w      *bufio.Writer
	closer io.Closer
	closed bool
}

// NewSink wraps w. Closing the sink flushes w but does not close it.
func NewSink(w io.Writer, name string) *Sink {
	return &Sink{name: name, w: bufio.NewWriter(w)}
}

// OpenSink opens the output destination. An empty path means standard output.
// An existing file is refused unless overwrite is set.
func OpenSink(path string, overwrite bool) (*Sink, error) {
	if path == "" {
		return NewSink(os.Stdout, "stdout"), nil
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, errs.Sink("open", fmt.Errorf("could not write to %s, file already exists", path))
		}
		return nil, errs.Sink("open", err)
	}

	logrus.WithField("path", path).Debug("Opened output file")
	return &Sink{name: path, w: bufio.NewWriter(f), closer: f}, nil
}

// Name returns the path of the sink, or "stdout".
func (s *Sink) Name() string { return s.name }

// WriteUnit writes p as one output unit and flushes it.
func (s *Sink) WriteUnit(p []byte) error {
	if s.closed {
		return ErrClosed
	}
	if _, err := s.w.Write(p); err != nil {
		return errs.Sink("write "+s.name, err)
	}
	if err := s.w.Flush(); err != nil {
		return errs.Sink("write "+s.name, err)
	}
	return nil
}

// Close flushes pending output and releases the destination. It is safe to call more than once.
func (s *Sink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	flushErr := s.w.Flush()
	var closeErr error
	if s.closer != nil {
		closeErr = s.closer.Close()
	}
	if flushErr != nil {
		return errs.Sink("flush "+s.name, flushErr)
	}
	if closeErr != nil {
		return errs.Sink("close "+s.name, closeErr)
	}
	return nil
}
