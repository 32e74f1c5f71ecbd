package cmd

import (
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/stitch/internal/build"
	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/logging"
	"github.com/conneroisu/stitch/internal/output"
	"github.com/conneroisu/stitch/internal/partstore"
)

// settingKey maps a flag name to its settings key, e.g. log-level to
// log_level.
func settingKey(flagName string) string {
	return strings.ReplaceAll(flagName, "-", "_")
}

// bindFlags binds every flag in fs to v under its settings key, except the
// names in skip.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet, skip ...string) {
	fs.VisitAll(func(f *pflag.Flag) {
		for _, name := range skip {
			if f.Name == name {
				return
			}
		}
		_ = v.BindPFlag(settingKey(f.Name), f)
	})
}

// newPipeline wires a build pipeline against the host filesystem.
func newPipeline(cfg *config.Config, logger logging.Logger) *build.Pipeline {
	osFs := afero.NewOsFs()

	return build.NewPipeline(build.Options{
		ManifestFs:   osFs,
		ManifestPath: cfg.ManifestPath(),
		Store:        partstore.NewOS(cfg.PartsDir),
		Sink:         output.NewSink(osFs, cfg.Output),
		Logger:       logger,
		Dev:          cfg.Dev,
	})
}
