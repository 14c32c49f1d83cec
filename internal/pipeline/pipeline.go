// Package pipeline drives a run: every line is matched, written and counted
// before the next one is read.
package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/atikulmunna/grokline/internal/aggregator"
	"github.com/atikulmunna/grokline/internal/model"
	"github.com/atikulmunna/grokline/internal/output"
	"github.com/atikulmunna/grokline/internal/parser"
)

// LineSource yields raw lines in order. *input.Source satisfies it.
type LineSource interface {
	Scan() bool
	Line() model.RawLine
	Err() error
}

// Runner owns the matcher and the encoder for the duration of a run.
type Runner struct {
	matcher parser.Matcher
	enc     output.Encoder
	log     *logrus.Entry
}

// New creates a Runner. A nil logger uses the standard logrus logger.
func New(m parser.Matcher, enc output.Encoder, log *logrus.Entry) *Runner {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Runner{matcher: m, enc: enc, log: log}
}

// Run streams src through the matcher into the encoder. Lines that do not
// match are reported and counted but never stop the run. When emitStats is
// set the counters are written after the last line. The encoder is closed on
// every return path.
func (r *Runner) Run(ctx context.Context, src LineSource, emitStats bool) (stats aggregator.Stats, err error) {
	defer func() {
		if cerr := r.enc.Close(); err == nil {
			err = cerr
		}
	}()

	for src.Scan() {
		if err := ctx.Err(); err != nil {
			r.log.WithField("lines", stats.Total()).Warn("Run interrupted")
			return stats, err
		}

		raw := src.Line()
		outcome := r.matcher.Match(raw.Text)
		if outcome.IsMatched() {
			err = r.enc.Matched(outcome.Record())
		} else {
			r.log.WithFields(logrus.Fields{
				"line":  raw.Text,
				"input": raw.Source,
			}).Debug("No match for line")
			err = r.enc.NoMatch(raw.Text)
		}
		if err != nil {
			return stats, err
		}
		stats.Observe(outcome)
	}
	if err := ctx.Err(); err != nil {
		r.log.WithField("lines", stats.Total()).Warn("Run interrupted")
		return stats, err
	}
	if err := src.Err(); err != nil {
		return stats, err
	}

	if emitStats {
		if err := r.enc.Stats(stats); err != nil {
			return stats, err
		}
	}

	r.log.WithFields(logrus.Fields{
		"parsed": stats.Parsed,
		"failed": stats.Failed,
	}).Info("Run complete")
	return stats, nil
}
