package parser

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/vjeantet/grok"

	"github.com/atikulmunna/grokline/internal/errs"
)

// CompileOptions controls which sub-pattern definitions are available to a pattern.
type CompileOptions struct {
	// PatternsDir is an optional directory of custom pattern files.
	PatternsDir string
	// NoDefaults skips the built-in grok patterns.
	NoDefaults bool
	// Rules holds definitions loaded from rules files. They override PatternsDir.
	Rules Definitions
}

// Compile builds a matcher for pattern. All errors are classified as compile
// errors and are returned before any input is read.
func Compile(pattern string, opts CompileOptions) (*GrokMatcher, error) {
	if pattern == "" {
		return nil, errs.Compile("", errors.New("pattern must not be empty"))
	}

	var dirDefs Definitions
	if opts.PatternsDir != "" {
		var err error
		dirDefs, err = LoadDir(opts.PatternsDir)
		if err != nil {
			return nil, errs.Compile("load patterns", err)
		}
	}
	defs := dirDefs.Merge(opts.Rules)

	g, err := grok.NewWithConfig(&grok.Config{
		NamedCapturesOnly:   true,
		SkipDefaultPatterns: opts.NoDefaults,
	})
	if err != nil {
		return nil, errs.Compile("init grok", err)
	}
	if len(defs) > 0 {
		if err := g.AddPatternsFromMap(defs); err != nil {
			return nil, errs.Compile("add patterns", err)
		}
	}

	// grok compiles lazily and caches; force it now so bad patterns fail fast.
	if _, err := g.Match(pattern, ""); err != nil {
		return nil, errs.Compile("", err)
	}

	logrus.WithFields(logrus.Fields{
		"pattern":     pattern,
		"definitions": len(defs),
		"defaults":    !opts.NoDefaults,
	}).Debug("Compiled pattern")

	return &GrokMatcher{
		g:       g,
		pattern: pattern,
		order:   fieldOrder(pattern, defs),
	}, nil
}
