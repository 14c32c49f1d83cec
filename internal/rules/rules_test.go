package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atikulmunna/grokline/internal/errs"
	"github.com/atikulmunna/grokline/internal/parser"
)

func writeRules(t *testing.T, name, yml string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	return path
}

func TestLoadRulesFile(t *testing.T) {
	path := writeRules(t, "web.yaml", `
patterns:
  HTTPVERB: GET|POST|PUT|DELETE
rules:
  - name: WEBREQ
    pattern: "%{IP:ip} %{HTTPVERB:req}"
    description: web request line
`)
	f, err := Load(path)
	require.NoError(t, err)
	require.Len(t, f.Rules, 1)
	assert.Equal(t, "web request line", f.Rules[0].Description)

	defs, err := f.Definitions()
	require.NoError(t, err)
	assert.Equal(t, parser.Definitions{
		"HTTPVERB": "GET|POST|PUT|DELETE",
		"WEBREQ":   "%{IP:ip} %{HTTPVERB:req}",
	}, defs)
}

func TestRulesAreUsableFromAPattern(t *testing.T) {
	path := writeRules(t, "web.yaml", `
patterns:
  HTTPVERB: GET|POST|PUT|DELETE
rules:
  - name: WEBREQ
    pattern: "%{IP:ip} %{HTTPVERB:req}"
`)
	defs, err := LoadFiles(path)
	require.NoError(t, err)

	m, err := parser.Compile(`^%{WEBREQ}$`, parser.CompileOptions{Rules: defs})
	require.NoError(t, err)

	o := m.Match("10.1.2.3 DELETE")
	require.True(t, o.IsMatched())
	assert.Equal(t, []string{"ip", "req"}, o.Record().Names())
	assert.False(t, m.Match("10.1.2.3 PATCH").IsMatched())
}

func TestEnvSubstitution(t *testing.T) {
	t.Setenv("SERVICE_NAME", "checkout")
	path := writeRules(t, "env.yaml", `
rules:
  - name: SERVICE
    pattern: "${SERVICE_NAME}-%{NUMBER:pid}"
`)
	defs, err := LoadFiles(path)
	require.NoError(t, err)
	assert.Equal(t, "checkout-%{NUMBER:pid}", defs["SERVICE"])
}

func TestLaterFilesOverrideEarlier(t *testing.T) {
	first := writeRules(t, "a.yaml", "rules:\n  - name: A\n    pattern: one\n  - name: B\n    pattern: two\n")
	second := writeRules(t, "b.yaml", "patterns:\n  A: uno\n")

	defs, err := LoadFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, parser.Definitions{"A": "uno", "B": "two"}, defs)
}

func TestInvalidRulesFiles(t *testing.T) {
	tests := []struct {
		name string
		yml  string
	}{
		{name: "missing pattern", yml: "rules:\n  - name: A\n"},
		{name: "missing name", yml: "rules:\n  - pattern: x\n"},
		{name: "bad name", yml: "rules:\n  - name: \"not ok\"\n    pattern: x\n"},
		{name: "bad pattern key", yml: "patterns:\n  \"a-b\": x\n"},
		{name: "empty pattern value", yml: "patterns:\n  AB: \"\"\n"},
		{name: "unknown key", yml: "rulez:\n  - name: A\n    pattern: x\n"},
		{name: "duplicate name", yml: "patterns:\n  A: x\nrules:\n  - name: A\n    pattern: y\n"},
		{name: "not yaml", yml: "rules: [unterminated\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeRules(t, "bad.yaml", tt.yml)
			_, err := LoadFiles(path)
			require.Error(t, err)
			assert.Equal(t, errs.KindCompile, errs.KindOf(err))
		})
	}
}

func TestMissingRulesFile(t *testing.T) {
	_, err := LoadFiles(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, errs.KindCompile, errs.KindOf(err))
}

func TestNoFiles(t *testing.T) {
	defs, err := LoadFiles()
	require.NoError(t, err)
	assert.Empty(t, defs)
}
