package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/logging"
)

var cfgFile string

// rootCmd builds the prompt file when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "stitch",
	Short: "Compose a prompt file from Markdown fragments",
	Long: `Stitch assembles a single document from ordered Markdown fragments
described by a manifest (src/parts/config.json by default), substituting
{{PLACEHOLDER}} variables and writing the result to dist/prompt.md.

Examples:
  stitch                  Build once
  stitch --dev            Build once, logging each part's description
  stitch --watch          Build, then rebuild whenever a fragment changes
  stitch validate         Check the manifest and fragments without writing`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command. Build failures have already been logged
// by the time they return here; anything else is printed.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		if _, reported := errors.KindOf(err); !reported {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default is .stitch.yml, can also use STITCH_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	rootCmd.Flags().Bool("dev", false, "log each part's description while building")
	rootCmd.Flags().BoolP("watch", "w", false, "rebuild whenever a fragment or the manifest changes")

	bindFlags(viper.GetViper(), rootCmd.PersistentFlags(), "config")
	bindFlags(viper.GetViper(), rootCmd.Flags())
}

// initConfig selects the settings file and enables STITCH_ environment
// overrides.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("STITCH_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stitch")
	}

	viper.SetEnvPrefix("STITCH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	// A missing settings file is fine; defaults apply.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	if cfg.Watch {
		return runWatch(cmd.Context(), cfg, logger)
	}

	return runOnce(cmd.Context(), cfg, logger, cmd.OutOrStdout())
}

func loadSettings(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, newLogger(cfg, cmd.ErrOrStderr()), nil
}

func newLogger(cfg *config.Config, w io.Writer) logging.Logger {
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  cfg.Level(),
		Format: cfg.LogFormat,
		Output: w,
	})
}

// runOnce performs a single build and prints a summary to out.
func runOnce(ctx context.Context, cfg *config.Config, logger logging.Logger, out io.Writer) error {
	result, err := newPipeline(cfg, logger).Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderSummary(result))
	return nil
}
