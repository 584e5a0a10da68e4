package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/settings"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration without compiling",
	Long: `Reads the configuration and reports every structural error and warning.
Errors: missing name, no sources, unknown transformations, sources without a
location or with an unknown type. Warnings: regex patterns that do not compile
and pattern files that do not exist.
Exit 0 if valid; exit non-zero on errors, or on warnings with --fail-on-warnings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidate(st)
	},
}

func init() {
	validateCmd.Flags().BoolVar(&flagJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(s settings.Settings) error {
	cfg, err := readConfig(s)
	if err != nil {
		return err
	}

	v := config.Validator{CheckLocalSources: s.CheckSources}
	vr := v.Validate(cfg)

	if flagJSON {
		if err := printJSON(vr); err != nil {
			return err
		}
	} else {
		printValidation(&vr)
	}

	if err := vr.Err(s.FailOnWarnings); err != nil {
		return fmt.Errorf("%s: validation failed with %d error(s), %d warning(s)", cfg.SourcePath, len(vr.Errors), len(vr.Warnings))
	}

	info("%s: valid (%d source(s), %d warning(s))", cfg.SourcePath, len(cfg.Sources), len(vr.Warnings))
	return nil
}
