package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"

	"github.com/conneroisu/stitch/internal/testutils"
)

// TestManifestTraversal_Security ensures a relative manifest cannot point
// outside the parts directory.
func TestManifestTraversal_Security(t *testing.T) {
	for _, vector := range testutils.PathTraversal {
		t.Run(vector, func(t *testing.T) {
			v := viper.New()
			v.Set(KeyManifest, vector)

			cfg, err := LoadFrom(v)
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestManifestInsidePartsDir_Security(t *testing.T) {
	tests := []string{
		"config.json",
		"nested/config.yaml",
		"nested/../config.json",
		"./config.json",
	}

	for _, manifest := range tests {
		t.Run(manifest, func(t *testing.T) {
			v := viper.New()
			v.Set(KeyManifest, manifest)

			cfg, err := LoadFrom(v)
			assert.NoError(t, err)
			assert.NotNil(t, cfg)
		})
	}
}
