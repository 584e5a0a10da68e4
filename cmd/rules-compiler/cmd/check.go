package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaypatrick/ad-blocking-sub007/internal/lock"
	"github.com/jaypatrick/ad-blocking-sub007/internal/pipeline"
	"github.com/jaypatrick/ad-blocking-sub007/internal/settings"
)

var checkCmd = &cobra.Command{
	Use:   "check [record]",
	Short: "Verify that a compiled list matches its compile record",
	Long: `Hashes the compiled list named by a compile record and counts its rules,
then compares both against the record. The record defaults to --lock-file,
or <output>.lock.yaml when --output is set.
Exit 0 if the list matches; exit non-zero on drift. Suitable for CI pipelines.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := recordPath(args)
		if err != nil {
			return err
		}

		result, err := pipeline.Check(path)
		if err != nil {
			return err
		}

		if flagJSON {
			if err := printJSON(result); err != nil {
				return err
			}
		}

		if result.Missing {
			info("  missing   %s", result.Record.Output.Path)
			return fmt.Errorf("check failed: %s does not exist", result.Record.Output.Path)
		}
		if result.Clean {
			info("%s matches %s.", result.Record.Output.Path, path)
			return nil
		}

		for _, d := range result.Drifted {
			info("  drifted   %s", d.Field)
			detail("expected: %s", d.Expected)
			detail("actual:   %s", d.Actual)
		}
		return fmt.Errorf("check failed: %s drifted in %d field(s)", result.Record.Output.Path, len(result.Drifted))
	},
}

// recordPath picks the compile record to check: the argument, then the
// lock-file setting, then the record next to the output file.
func recordPath(args []string) (string, error) {
	switch {
	case len(args) == 1:
		return args[0], nil
	case st.LockPath != "":
		return st.LockPath, nil
	case st.OutputPath != "":
		return lock.DefaultPath(st.OutputPath), nil
	}
	return "", fmt.Errorf("no compile record given — pass a path, --%s or --%s", settings.FlagLockFile, settings.FlagOutput)
}

func init() {
	checkCmd.Flags().StringVar(&flagLockFile, settings.FlagLockFile, "", "compile record to check")
	checkCmd.Flags().StringVarP(&flagOutput, settings.FlagOutput, "o", "", "compiled list whose default record is checked")
	checkCmd.Flags().BoolVar(&flagJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(checkCmd)
}
