package pipeline

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/grokline/internal/aggregator"
	"github.com/atikulmunna/grokline/internal/errs"
	"github.com/atikulmunna/grokline/internal/input"
	"github.com/atikulmunna/grokline/internal/model"
	"github.com/atikulmunna/grokline/internal/output"
	"github.com/atikulmunna/grokline/internal/parser"
)

var scenarioLines = []string{"0.0.0.0 GET", "0.0.0.1 GET", "0.0.q1.0 POST", "0.1.0.0 GET", "1.0.0.0 DELETE"}

func compileScenario(t *testing.T) *parser.GrokMatcher {
	t.Helper()
	m, err := parser.Compile(`%{IP:ip} %{TEST:req}`, parser.CompileOptions{
		Rules: parser.Definitions{"TEST": "[A-Z]+"},
	})
	require.NoError(t, err)
	return m
}

func stdinSource(lines ...string) *input.Source {
	return input.NewSource([]string{input.Stdin}, strings.NewReader(strings.Join(lines, "\n")+"\n"))
}

func run(t *testing.T, format output.Format, src LineSource, emitStats bool) (string, aggregator.Stats, error) {
	t.Helper()
	var buf bytes.Buffer
	enc, err := output.New(format, output.NewSink(&buf, "test"))
	require.NoError(t, err)

	stats, err := New(compileScenario(t), enc, nil).Run(context.Background(), src, emitStats)
	return buf.String(), stats, err
}

func TestRunCSVScenario(t *testing.T) {
	out, stats, err := run(t, output.FormatCSV, stdinSource(scenarioLines...), false)
	require.NoError(t, err)

	want := strings.Join([]string{
		`"ip", "req"`,
		`"0.0.0.0", "GET"`,
		`"0.0.0.1", "GET"`,
		`No matches against data: "0.0.q1.0 POST"`,
		`"0.1.0.0", "GET"`,
		`"1.0.0.0", "DELETE"`,
	}, "\n") + "\n"
	assert.Equal(t, want, out)
	assert.Equal(t, aggregator.Stats{Parsed: 4, Failed: 1}, stats)
}

func TestRunJSONScenarioWithStats(t *testing.T) {
	out, stats, err := run(t, output.FormatJSON, stdinSource(scenarioLines...), true)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, `{"ip":"0.0.0.0","req":"GET"}`, lines[0])
	assert.Equal(t, `No matches against data: "0.0.q1.0 POST"`, lines[2])
	assert.Equal(t, `{"ip":"1.0.0.0","req":"DELETE"}`, lines[4])
	assert.Equal(t, `{"parsed":4,"failed":1}`, lines[5])
	assert.Equal(t, uint64(len(scenarioLines)), stats.Total())
}

func TestStatsAreNotEmittedWhenDisabled(t *testing.T) {
	out, stats, err := run(t, output.FormatJSON, stdinSource("nope", "still nope"), false)
	require.NoError(t, err)

	assert.NotContains(t, out, "parsed")
	assert.Equal(t, aggregator.Stats{Parsed: 0, Failed: 2}, stats)
}

func TestRunAcrossFilesInArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	b := filepath.Join(dir, "b.log")
	require.NoError(t, os.WriteFile(a, []byte("1.1.1.1 A\nbad\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("2.2.2.2 B\n"), 0o644))

	out, stats, err := run(t, output.FormatJSON, input.NewSource([]string{b, a}, nil), false)
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		`{"ip":"2.2.2.2","req":"B"}`,
		`{"ip":"1.1.1.1","req":"A"}`,
		`No matches against data: "bad"`,
	}, "\n")+"\n", out)
	assert.Equal(t, uint64(3), stats.Total())
}

func TestInputErrorKeepsEarlierOutput(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.log")
	require.NoError(t, os.WriteFile(a, []byte("1.1.1.1 A\n"), 0o644))

	out, stats, err := run(t, output.FormatJSON, input.NewSource([]string{a, filepath.Join(dir, "gone.log")}, nil), true)
	require.Error(t, err)
	assert.Equal(t, errs.KindInput, errs.KindOf(err))
	assert.Equal(t, `{"ip":"1.1.1.1","req":"A"}`+"\n", out)
	assert.Equal(t, uint64(1), stats.Parsed)
}

// closeTracker records whether Close was called and can fail on demand.
type closeTracker struct {
	output.Encoder
	closed  bool
	failOn  string
	written []string
}

func (c *closeTracker) Matched(rec model.Record) error {
	if c.failOn == "matched" {
		return errs.Sink("write", errors.New("broken pipe"))
	}
	c.written = append(c.written, strings.Join(rec.Names(), ","))
	return nil
}

func (c *closeTracker) NoMatch(line string) error {
	c.written = append(c.written, "nomatch:"+line)
	return nil
}

func (c *closeTracker) Stats(s aggregator.Stats) error {
	c.written = append(c.written, "stats")
	return nil
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}

func TestSinkErrorAbortsAndCloses(t *testing.T) {
	enc := &closeTracker{failOn: "matched"}
	_, err := New(compileScenario(t), enc, nil).Run(context.Background(), stdinSource(scenarioLines...), true)

	require.Error(t, err)
	assert.Equal(t, errs.KindSink, errs.KindOf(err))
	assert.True(t, enc.closed)
	assert.NotContains(t, enc.written, "stats")
}

func TestCancelledContextStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	enc := &closeTracker{}
	stats, err := New(compileScenario(t), enc, nil).Run(ctx, stdinSource(scenarioLines...), true)

	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, enc.closed)
	assert.Empty(t, enc.written)
	assert.Equal(t, uint64(0), stats.Total())
}

// cancelAtEOF cancels the run when its input is exhausted, the way an
// interrupt also ends a piped writer.
type cancelAtEOF struct {
	r      *strings.Reader
	cancel context.CancelFunc
}

func (c *cancelAtEOF) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if err != nil {
		c.cancel()
	}
	return n, err
}

func TestCancellationAtEndOfInputFailsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var buf bytes.Buffer
	enc, err := output.New(output.FormatJSON, output.NewSink(&buf, "test"))
	require.NoError(t, err)

	src := input.NewSource([]string{input.Stdin}, &cancelAtEOF{r: strings.NewReader("0.0.0.0 GET\n"), cancel: cancel})
	stats, err := New(compileScenario(t), enc, nil).Run(ctx, src, true)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, `{"ip":"0.0.0.0","req":"GET"}`+"\n", buf.String())
	assert.Equal(t, aggregator.Stats{Parsed: 1}, stats)
}

func TestOutcomesAreEmittedInStreamOrder(t *testing.T) {
	enc := &closeTracker{}
	_, err := New(compileScenario(t), enc, nil).Run(context.Background(), stdinSource("x", "9.9.9.9 Z", "y"), true)
	require.NoError(t, err)

	assert.Equal(t, []string{"nomatch:x", "ip,req", "nomatch:y", "stats"}, enc.written)
}
