package parser

import (
	"regexp"
	"sort"
)

// refPattern finds grok references (%{SYNTAX}, %{SYNTAX:name}, %{SYNTAX:name:type})
// and raw named groups ((?P<name>, (?<name>) in pattern text.
var refPattern = regexp.MustCompile(`%\{(\w+)(?::([^:}]+))?(?::[^}]*)?\}|\(\?P?<([A-Za-z_][A-Za-z0-9_]*)>`)

// fieldOrder lists the capture names of pattern in the order they appear,
// expanding references to known definitions in place.
func fieldOrder(pattern string, defs Definitions) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	active := make(map[string]bool)
	var walk func(text string)
	walk = func(text string) {
		for _, m := range refPattern.FindAllStringSubmatch(text, -1) {
			if m[3] != "" {
				add(m[3])
				continue
			}
			if m[2] != "" {
				add(m[2])
			}
			def, ok := defs[m[1]]
			if !ok || active[m[1]] {
				continue
			}
			active[m[1]] = true
			walk(def)
			delete(active, m[1])
		}
	}
	walk(pattern)
	return names
}

// orderedNames returns the keys of values, known names first in their given
// order, then the rest sorted.
func orderedNames(known []string, values map[string]string) []string {
	out := make([]string, 0, len(values))
	used := make(map[string]bool, len(values))
	for _, name := range known {
		if _, ok := values[name]; ok && !used[name] {
			used[name] = true
			out = append(out, name)
		}
	}
	if len(out) == len(values) {
		return out
	}
	var rest []string
	for name := range values {
		if !used[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}
