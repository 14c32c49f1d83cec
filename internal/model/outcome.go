package model

// Outcome is the result of matching one line: either a Record or a NoMatch
// carrying the original line text.
type Outcome struct {
	matched bool
	record  Record
	line    string
}

// Matched wraps a record produced by a successful match.
func Matched(rec Record) Outcome {
	return Outcome{matched: true, record: rec}
}

// NoMatch wraps a line that did not satisfy the pattern.
func NoMatch(line string) Outcome {
	return Outcome{line: line}
}

// IsMatched reports whether the line matched.
func (o Outcome) IsMatched() bool { return o.matched }

// Record returns the captured fields. It is empty for a NoMatch.
func (o Outcome) Record() Record { return o.record }

// Line returns the original text of an unmatched line.
func (o Outcome) Line() string { return o.line }
