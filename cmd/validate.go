package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/conneroisu/stitch/internal/config"
	"github.com/conneroisu/stitch/internal/errors"
	"github.com/conneroisu/stitch/internal/logging"
	"github.com/conneroisu/stitch/internal/output"
)

var validateFormat string

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the manifest and fragments without writing output",
	Long: `Load the manifest, resolve every part, and compose the document in
memory. Nothing is written. All missing fragments are listed, not just the
first one.

Examples:
  stitch validate                  # Human-readable report
  stitch validate --format json    # Machine-readable report`,
	Args: cobra.NoArgs,
	RunE: runValidateCommand,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().
		StringVarP(&validateFormat, "format", "f", "text", "Output format (text, json)")
}

// ValidationSummary is the validate command's report.
type ValidationSummary struct {
	Manifest string        `json:"manifest"`
	Valid    bool          `json:"valid"`
	Parts    int           `json:"parts"`
	Missing  []string      `json:"missing,omitempty"`
	Error    string        `json:"error,omitempty"`
	Stats    *output.Stats `json:"stats,omitempty"`
}

func runValidateCommand(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	summary, err := validateProject(cmd, cfg, logger)

	switch validateFormat {
	case "json":
		if outErr := outputValidationJSON(cmd.OutOrStdout(), summary); outErr != nil {
			return outErr
		}
	case "text":
		outputValidationText(cmd.OutOrStdout(), summary)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json)", validateFormat)
	}

	return err
}

func validateProject(cmd *cobra.Command, cfg *config.Config, logger logging.Logger) (ValidationSummary, error) {
	summary := ValidationSummary{Manifest: cfg.ManifestPath()}

	report, err := newPipeline(cfg, logger).Check(cmd.Context())
	if report != nil {
		summary.Parts = report.Parts
		summary.Missing = report.Missing
	}
	if err != nil {
		summary.Error = err.Error()
		errors.Report(cmd.Context(), logger, err, "Validation failed")
		return summary, err
	}

	summary.Valid = true
	summary.Stats = &report.Stats

	return summary, nil
}

func outputValidationJSON(w io.Writer, summary ValidationSummary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(summary)
}

func outputValidationText(w io.Writer, summary ValidationSummary) {
	if summary.Valid {
		fmt.Fprintln(w, successStyle.Render("✓ "+summary.Manifest+" is valid"))
		fmt.Fprint(w, row("parts", fmt.Sprint(summary.Parts)))
		fmt.Fprint(w, renderStats(*summary.Stats))
		return
	}

	fmt.Fprintln(w, failureStyle.Render("✗ "+summary.Manifest+" is invalid"))
	if summary.Error != "" {
		fmt.Fprintln(w, "  "+summary.Error)
	}
	for _, file := range summary.Missing {
		fmt.Fprintln(w, "  missing: "+file)
	}
}
