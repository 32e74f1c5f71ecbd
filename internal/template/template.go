// Package template substitutes {{NAME}} placeholders in fragment text.
//
// Substitution is a single left-to-right pass: values are inserted
// literally and never re-scanned, and placeholders whose name has no value
// are left as they are. There is no escaping, nesting, or expression
// syntax.
package template

import (
	"sort"
	"strings"
	"time"
)

// Names of the automatic variables.
const (
	VarDate      = "DATE"
	VarBuildDate = "BUILD_DATE"
	VarTimestamp = "TIMESTAMP"
)

const (
	longDateLayout  = "January 2006"
	buildDateLayout = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Variables maps placeholder names, without braces, to their values.
type Variables map[string]string

// Placeholder returns the literal token for name.
func Placeholder(name string) string {
	return "{{" + name + "}}"
}

// AutoVariables derives the automatic variables from now. DATE uses now's
// location; BUILD_DATE and TIMESTAMP are rendered in UTC.
func AutoVariables(now time.Time) Variables {
	utc := now.UTC()

	return Variables{
		VarDate:      now.Format(longDateLayout),
		VarBuildDate: utc.Format(buildDateLayout),
		VarTimestamp: utc.Format(timestampLayout),
	}
}

// Merge returns a new mapping holding auto overlaid with declared.
func Merge(auto, declared Variables) Variables {
	merged := make(Variables, len(auto)+len(declared))
	for name, value := range auto {
		merged[name] = value
	}
	for name, value := range declared {
		merged[name] = value
	}

	return merged
}

// Render replaces every {{NAME}} in tmpl whose NAME is a key of vars.
func Render(tmpl string, vars Variables) string {
	if len(vars) == 0 || !strings.Contains(tmpl, "{{") {
		return tmpl
	}

	return newReplacer(vars).Replace(tmpl)
}

// RenderSection renders one manifest section: the automatic variables for
// now, overridden by the section's declared variables.
func RenderSection(tmpl string, declared Variables, now time.Time) string {
	return Render(tmpl, Merge(AutoVariables(now), declared))
}

// newReplacer builds a single-pass replacer. Longer tokens come first so that
// when two tokens match at the same offset the longer one wins regardless of
// map iteration order.
func newReplacer(vars Variables) *strings.Replacer {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})

	pairs := make([]string, 0, 2*len(names))
	for _, name := range names {
		pairs = append(pairs, Placeholder(name), vars[name])
	}

	return strings.NewReplacer(pairs...)
}
