package parser

import (
	"github.com/sirupsen/logrus"
	"github.com/vjeantet/grok"

	"github.com/atikulmunna/grokline/internal/model"
)

// Matcher turns a raw line into a match outcome.
type Matcher interface {
	Match(line string) model.Outcome
}

// GrokMatcher is a compiled grok pattern. It is safe to reuse for every line.
type GrokMatcher struct {
	g       *grok.Grok
	pattern string
	order   []string
}

// Pattern returns the expression the matcher was compiled from.
func (m *GrokMatcher) Pattern() string { return m.pattern }

// Fields returns the capture names that can be seen in the pattern text, in order.
func (m *GrokMatcher) Fields() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Match applies the pattern to line. A line that does not satisfy the
// pattern yields a NoMatch outcome, never an error.
func (m *GrokMatcher) Match(line string) model.Outcome {
	ok, err := m.g.Match(m.pattern, line)
	if err != nil || !ok {
		if err != nil {
			logrus.WithError(err).Debug("Match failed on a compiled pattern")
		}
		return model.NoMatch(line)
	}

	values, err := m.g.Parse(m.pattern, line)
	if err != nil {
		logrus.WithError(err).Debug("Parse failed on a matching line")
		return model.NoMatch(line)
	}

	names := orderedNames(m.order, values)
	rec := model.NewRecord(len(names))
	for _, name := range names {
		rec.Set(name, values[name])
	}
	return model.Matched(rec)
}
