package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jaypatrick/ad-blocking-sub007/internal/compiler"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information for rules-compiler and its engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, engineErr := compiler.DiscoverEngine(st.Engine, logger)
		vi := compiler.ProbeVersion(cmd.Context(), engine, engineErr)

		if flagJSON {
			return printJSON(struct {
				Version string `json:"version"`
				Commit  string `json:"commit"`
				Date    string `json:"date"`
				compiler.VersionInfo
			}{version, commit, date, vi})
		}

		fmt.Printf("rules-compiler %s (commit %s, built %s)\n", version, commit, date)
		fmt.Printf("  go:      %s %s/%s\n", vi.GoVersion, vi.OS, vi.Arch)
		if vi.EngineError != "" {
			fmt.Printf("  engine:  (%s)\n", vi.EngineError)
		} else {
			fmt.Printf("  engine:  %s %s\n", vi.EngineCommand, vi.EngineVersion)
		}
		if vi.NodeVersion != "" {
			fmt.Printf("  node:    %s\n", vi.NodeVersion)
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&flagJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(versionCmd)
}
