package input

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/atikulmunna/grokline/internal/errs"
)

// Stdin is the input name that reads from standard input.
const Stdin = "-"

// Resolve expands input arguments into an ordered list of paths.
// No arguments means standard input. Glob patterns (including ** and {a,b})
// expand to their sorted matches; plain paths are kept as given and opened later.
func Resolve(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{Stdin}, nil
	}

	var paths []string
	for _, arg := range args {
		if arg == Stdin || !hasMeta(arg) {
			paths = append(paths, arg)
			continue
		}
		matches, err := expandGlob(arg)
		if err != nil {
			return nil, errs.Input("expand "+arg, err)
		}
		if len(matches) == 0 {
			return nil, errs.Input("expand "+arg, fmt.Errorf("%s did not match any files", arg))
		}
		sort.Strings(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// expandGlob resolves a glob pattern to matching file paths.
// Supports recursive patterns like /var/log/**/*.log via doublestar.
func expandGlob(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly(), doublestar.WithFailOnIOErrors())
}
