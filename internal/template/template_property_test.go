//go:build property

package template

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRenderProperties validates the substitution laws of Render
func TestRenderProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("render without placeholders is identity", prop.ForAll(
		func(text string, name string, value string) bool {
			if strings.Contains(text, "{{") {
				return true
			}
			return Render(text, Variables{name: value}) == text
		},
		gen.AnyString(),
		gen.Identifier(),
		gen.AnyString(),
	))

	properties.Property("unknown placeholders pass through", prop.ForAll(
		func(name string) bool {
			token := Placeholder(name)
			return Render(token, Variables{}) == token &&
				Render(token, Variables{name + "_other": "x"}) == token
		},
		gen.Identifier(),
	))

	properties.Property("every occurrence receives the same value", prop.ForAll(
		func(name string, value string, count int) bool {
			tmpl := strings.Repeat(Placeholder(name)+" ", count)
			return Render(tmpl, Variables{name: value}) == strings.Repeat(value+" ", count)
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.IntRange(0, 20),
	))

	properties.Property("declared values win over automatic ones", prop.ForAll(
		func(value string) bool {
			merged := Merge(AutoVariables(fixedNow), Variables{VarDate: value})
			return Render(Placeholder(VarDate), merged) == value
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
