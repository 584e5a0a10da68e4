package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaypatrick/ad-blocking-sub007/internal/archive"
	"github.com/jaypatrick/ad-blocking-sub007/internal/compiler"
	"github.com/jaypatrick/ad-blocking-sub007/internal/pipeline"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show information about rules-compiler settings and tools",
	Long: `Displays the rules-compiler version, the settings files that were consulted,
the configuration that would be compiled, the engine command, the archive
directory and size, and the known transformations and presets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := pipeline.ResolveConfigPath(st.ConfigPath, "")
		engine, engineErr := compiler.DiscoverEngine(st.Engine, logger)

		var a *archive.Archive
		dir := st.ArchiveDir
		if dir == "" {
			dir = archive.DefaultDir()
		}
		if _, err := os.Stat(dir); err == nil {
			a, _ = archive.New(dir)
		}

		result := pipeline.Info(version, layers, configPath, configErr, engine, engineErr, a)
		if flagJSON {
			return printJSON(result)
		}

		fmt.Printf("rules-compiler %s\n", result.Version)

		if len(result.Settings) > 0 {
			fmt.Println("  settings:")
			for _, l := range result.Settings {
				status := "not found"
				switch {
				case l.Err != "":
					status = l.Err
				case l.Loaded:
					status = "loaded"
				}
				fmt.Printf("    %-10s %s (%s)\n", l.Level+":", l.Path, status)
			}
		}

		if result.ConfigErr != "" {
			fmt.Printf("  config:        (%s)\n", result.ConfigErr)
		} else {
			fmt.Printf("  config:        %s\n", result.ConfigPath)
		}
		if result.EngineErr != "" {
			fmt.Printf("  engine:        (%s)\n", result.EngineErr)
		} else {
			fmt.Printf("  engine:        %s\n", result.Engine)
		}
		if result.ArchiveDir != "" {
			fmt.Printf("  archive dir:   %s\n", result.ArchiveDir)
			fmt.Printf("  archive size:  %s\n", humanSize(result.ArchiveSize))
		}

		fmt.Println("\nTransformations (application order):")
		for _, t := range result.Transformations {
			fmt.Printf("  %s\n", t)
		}
		if len(result.Presets) > 0 {
			fmt.Println("\nPresets:")
			for _, p := range result.Presets {
				fmt.Printf("  %s\n", p)
			}
		}
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&flagJSON, "json", false, "print the result as JSON")
	rootCmd.AddCommand(infoCmd)
}
