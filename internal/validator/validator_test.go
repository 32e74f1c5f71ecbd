package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/manifest"
	"github.com/conneroisu/stitch/internal/partstore"
	"github.com/conneroisu/stitch/internal/testutils"
)

func newStore(t *testing.T, files ...string) *partstore.FSStore {
	t.Helper()
	contents := make(map[string]string, len(files))
	for _, f := range files {
		contents[f] = f
	}
	return partstore.New(testutils.MemFs(t, contents))
}

func TestValidate(t *testing.T) {
	store := newStore(t, "a.md", "b.md")

	tests := []struct {
		name    string
		parts   []manifest.Part
		missing string
	}{
		{"all present", []manifest.Part{{File: "a.md"}, {File: "b.md"}}, ""},
		{"duplicates are legal", []manifest.Part{{File: "a.md"}, {File: "a.md"}}, ""},
		{"empty parts", []manifest.Part{}, ""},
		{"first missing reported", []manifest.Part{{File: "a.md"}, {File: "x.md"}, {File: "y.md"}}, "x.md"},
		{"missing first", []manifest.Part{{File: "z.md"}, {File: "a.md"}}, "z.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(&manifest.Manifest{Parts: tt.parts}, store)
			if tt.missing == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, &errors.StitchError{Kind: errors.KindFragmentNotFound, File: tt.missing})
		})
	}
}

func TestValidateIgnoresHeaderAndFooter(t *testing.T) {
	store := newStore(t, "a.md")
	m := &manifest.Manifest{
		Header: &manifest.Section{File: "missing-header.md"},
		Footer: &manifest.Section{File: "missing-footer.md"},
		Parts:  []manifest.Part{{File: "a.md"}},
	}

	assert.NoError(t, Validate(m, store))
}

func TestValidateInvalidConfig(t *testing.T) {
	store := newStore(t)

	assert.True(t, errors.IsKind(Validate(nil, store), errors.KindConfigInvalid))
	assert.True(t, errors.IsKind(Validate(&manifest.Manifest{}, store), errors.KindConfigInvalid))
}

func TestMissing(t *testing.T) {
	store := newStore(t, "a.md")
	m := &manifest.Manifest{Parts: []manifest.Part{
		{File: "x.md"}, {File: "a.md"}, {File: "y.md"}, {File: "x.md"},
	}}

	assert.Equal(t, []string{"x.md", "y.md"}, Missing(m, store))
	assert.Nil(t, Missing(nil, store))
}
