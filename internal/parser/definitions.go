package parser

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Definitions maps a sub-pattern name to its grok expression.
type Definitions map[string]string

// Merge returns a new set holding d overlaid with each of others in turn.
// Later sets win on name collisions.
func (d Definitions) Merge(others ...Definitions) Definitions {
	out := make(Definitions, len(d))
	for k, v := range d {
		out[k] = v
	}
	for _, o := range others {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}

// LoadDir reads every regular file in dir as a grok pattern file.
// Each non-blank, non-comment line is NAME followed by a space and the definition.
// Files are read in lexical order, so a later file overrides an earlier one.
func LoadDir(dir string) (Definitions, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading patterns directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("patterns directory %s is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading patterns directory: %w", err)
	}

	defs := make(Definitions)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		n, err := loadFile(path, defs)
		if err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"file":        path,
			"definitions": n,
		}).Debug("Loaded pattern file")
	}
	return defs, nil
}

func loadFile(path string, into Definitions) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("reading pattern file: %w", err)
	}
	defer f.Close()

	var n, lineNo int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		name, def, ok := strings.Cut(trimmed, " ")
		if !ok {
			return 0, fmt.Errorf("%s:%d: expected NAME followed by a pattern, got %q", path, lineNo, line)
		}
		into[name] = strings.TrimLeft(def, " \t")
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("reading pattern file %s: %w", path, err)
	}
	return n, nil
}
