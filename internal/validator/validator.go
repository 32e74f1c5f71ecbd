// Package validator checks that a manifest's parts resolve before anything
// is composed.
package validator

import (
	"github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/manifest"
	"github.com/conneroisu/stitch/internal/partstore"
)

// Validate returns FragmentNotFound for the first part whose file is absent
// from store. Only parts are checked here; the header and footer are read
// lazily by the composer.
func Validate(m *manifest.Manifest, store partstore.Store) error {
	if m == nil {
		return errors.NewConfigInvalidError("no config")
	}
	if m.Parts == nil {
		return errors.NewConfigInvalidError("config must contain a parts sequence")
	}

	for _, part := range m.Parts {
		if !store.Exists(part.File) {
			return errors.NewFragmentNotFoundError(part.File, nil)
		}
	}

	return nil
}

// Missing lists every part file absent from store, in manifest order and
// without duplicates. It is used for reporting; builds stop at the first.
func Missing(m *manifest.Manifest, store partstore.Store) []string {
	if m == nil {
		return nil
	}

	seen := make(map[string]bool)
	var missing []string
	for _, part := range m.Parts {
		if seen[part.File] {
			continue
		}
		seen[part.File] = true
		if !store.Exists(part.File) {
			missing = append(missing, part.File)
		}
	}

	return missing
}
