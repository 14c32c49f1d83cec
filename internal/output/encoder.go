package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/atikulmunna/grokline/internal/aggregator"
	"github.com/atikulmunna/grokline/internal/errs"
	"github.com/atikulmunna/grokline/internal/model"
)

// ErrClosed is returned when emitting through an encoder or sink that has been closed.
var ErrClosed = errors.New("output already closed")

// errNotStarted is returned by an encoder that was not created with New.
var errNotStarted = errors.New("output encoder not started")

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatJSON, FormatCSV}

// ParseFormat parses a case-insensitive format name. An empty name means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(FormatJSON):
		return FormatJSON, nil
	case string(FormatCSV):
		return FormatCSV, nil
	default:
		return "", errs.Config("output format", fmt.Errorf("unknown output format %q (want json or csv)", s))
	}
}

// Encoder writes match outcomes to a sink in one output format.
type Encoder interface {
	// Matched writes one record.
	Matched(rec model.Record) error
	// NoMatch writes a diagnostic for a line that did not match.
	NoMatch(line string) error
	// Stats writes the end-of-run counters.
	Stats(s aggregator.Stats) error
	// Close flushes and releases the sink. Further emission fails with ErrClosed.
	Close() error
}

// New starts an encoder for format writing to sink.
func New(format Format, sink *Sink) (Encoder, error) {
	switch format {
	case FormatJSON:
		return newJSONEncoder(sink), nil
	case FormatCSV:
		return newCSVEncoder(sink), nil
	default:
		return nil, errs.Config("output format", fmt.Errorf("unknown output format %q", format))
	}
}

type state int

const (
	stateUninitialized state = iota
	stateHeaderPending
	stateStreaming
	stateClosed
)

// noMatchLine renders the format-independent diagnostic for an unmatched line.
func noMatchLine(line string) []byte {
	return []byte("No matches against data: \"" + line + "\"\n")
}

// ---------------------------------------------------------------------------
// JSON Encoder (one object per line)
// ---------------------------------------------------------------------------

// JSONEncoder writes each record as a single JSON object per line.
type JSONEncoder struct {
	sink  *Sink
	state state
	buf   bytes.Buffer
	enc   *json.Encoder
}

func newJSONEncoder(sink *Sink) *JSONEncoder {
	e := &JSONEncoder{sink: sink, state: stateStreaming}
	e.enc = json.NewEncoder(&e.buf)
	e.enc.SetEscapeHTML(false)
	return e
}

func (e *JSONEncoder) Matched(rec model.Record) error {
	return e.encode(rec)
}

func (e *JSONEncoder) NoMatch(line string) error {
	if err := e.check(); err != nil {
		return err
	}
	return e.sink.WriteUnit(noMatchLine(line))
}

func (e *JSONEncoder) Stats(s aggregator.Stats) error {
	return e.encode(s)
}

func (e *JSONEncoder) Close() error {
	prev := e.state
	e.state = stateClosed
	if prev == stateClosed || prev == stateUninitialized {
		return nil
	}
	return e.sink.Close()
}

func (e *JSONEncoder) check() error {
	switch e.state {
	case stateUninitialized:
		return errNotStarted
	case stateClosed:
		return ErrClosed
	}
	return nil
}

func (e *JSONEncoder) encode(v any) error {
	if err := e.check(); err != nil {
		return err
	}
	e.buf.Reset()
	if err := e.enc.Encode(v); err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	return e.sink.WriteUnit(e.buf.Bytes())
}

// ---------------------------------------------------------------------------
// CSV Encoder (header on first record)
// ---------------------------------------------------------------------------

// CSVEncoder writes records as quoted comma-separated rows. The first record
// fixes the header; later records are written in the header's column order,
// with missing fields left empty and extra fields dropped.
type CSVEncoder struct {
	sink   *Sink
	state  state
	header []string
}

func newCSVEncoder(sink *Sink) *CSVEncoder {
	return &CSVEncoder{sink: sink, state: stateHeaderPending}
}

func (e *CSVEncoder) Matched(rec model.Record) error {
	switch e.state {
	case stateUninitialized:
		return errNotStarted
	case stateClosed:
		return ErrClosed
	case stateHeaderPending:
		e.header = rec.Names()
		if err := e.sink.WriteUnit(csvRow(e.header)); err != nil {
			return err
		}
		e.state = stateStreaming
	}

	cells := make([]string, len(e.header))
	for i, name := range e.header {
		cells[i], _ = rec.Get(name)
	}
	return e.sink.WriteUnit(csvRow(cells))
}

func (e *CSVEncoder) NoMatch(line string) error {
	if err := e.check(); err != nil {
		return err
	}
	return e.sink.WriteUnit(noMatchLine(line))
}

func (e *CSVEncoder) Stats(s aggregator.Stats) error {
	if err := e.check(); err != nil {
		return err
	}
	if err := e.sink.WriteUnit(csvRow([]string{"parsed", "failed"})); err != nil {
		return err
	}
	return e.sink.WriteUnit(csvRow([]string{
		fmt.Sprint(s.Parsed),
		fmt.Sprint(s.Failed),
	}))
}

func (e *CSVEncoder) Close() error {
	prev := e.state
	e.state = stateClosed
	if prev == stateClosed || prev == stateUninitialized {
		return nil
	}
	return e.sink.Close()
}

func (e *CSVEncoder) check() error {
	switch e.state {
	case stateUninitialized:
		return errNotStarted
	case stateClosed:
		return ErrClosed
	}
	return nil
}

// csvRow quotes every cell, doubling embedded quotes, and joins them with ", ".
func csvRow(cells []string) []byte {
	var b strings.Builder
	for i, c := range cells {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(c, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
