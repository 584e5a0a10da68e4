package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/reference"
	"github.com/jaypatrick/ad-blocking-sub007/internal/transformation"
)

var (
	showExpand bool
	showAs     string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a summary of the configuration",
	Long: `Prints the configuration's name, version and license, its sources with
local and remote counts, and its transformations in the order the engine
applies them. With --json the normalized configuration is printed instead;
--as json|yaml|toml prints it in any of the readable formats, which also
converts a configuration from one format to another.
With --expand the number of patterns in each local pattern file is shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := readConfig(st)
		if err != nil {
			return err
		}

		if showAs != "" {
			return exportConfig(os.Stdout, cfg, showAs)
		}
		if flagJSON {
			return printJSON(cfg.Normalized())
		}

		info("%s", cfg.Name)
		if cfg.Version != "" {
			info("  version:     %s", cfg.Version)
		}
		if cfg.License != "" {
			info("  license:     %s", cfg.License)
		}
		if cfg.Homepage != "" {
			info("  homepage:    %s", cfg.Homepage)
		}
		if cfg.Description != "" {
			info("  description: %s", cfg.Description)
		}
		info("  file:        %s (%s)", cfg.SourcePath, cfg.SourceFormat)
		info("  sources:     %d (%d local, %d remote)", len(cfg.Sources), cfg.LocalSourcesCount(), cfg.RemoteSourcesCount())

		for _, src := range cfg.Sources {
			name := src.Name
			if name == "" {
				name = "-"
			}
			info("    %-8s %-20s %s", src.EffectiveType(), name, src.Source)
			if len(src.Transformations) > 0 {
				detail("    transformations: %s", joinNames(transformation.Canonicalize(src.Transformations)))
			}
		}

		if len(cfg.Transformations) > 0 {
			info("  transformations: %s", joinNames(transformation.Canonicalize(cfg.Transformations)))
			if bad := transformation.InvalidSubset(cfg.Transformations); len(bad) > 0 {
				warnf("unknown transformations: %s", strings.Join(bad, ", "))
			}
		}

		info("  inclusions:  %d", len(cfg.Inclusions))
		info("  exclusions:  %d", len(cfg.Exclusions))

		if showExpand {
			showReferences(cfg, "inclusions_sources", cfg.InclusionsSources)
			showReferences(cfg, "exclusions_sources", cfg.ExclusionsSources)
		}
		return nil
	},
}

// exportConfig writes the normalized configuration in the named format.
func exportConfig(w io.Writer, cfg *config.Configuration, as string) error {
	format, err := config.ParseFormat(as)
	if err != nil {
		return fmt.Errorf("--as: %w", err)
	}
	data, err := config.Encode(cfg.Normalized(), format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func showReferences(cfg *config.Configuration, field string, refs []string) {
	if len(refs) == 0 {
		return
	}
	info("  %s:", field)
	for _, ref := range refs {
		if reference.Classify(ref) == reference.KindURL {
			info("    %s (remote)", ref)
			continue
		}
		patterns, err := reference.ReadPatterns(reference.OSFS{}, cfg.Dir(), ref)
		if err != nil {
			info("    %s (%v)", ref, err)
			continue
		}
		info("    %s (%d patterns)", ref, len(patterns))
	}
}

func joinNames(names []transformation.Name) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = string(n)
	}
	return strings.Join(out, ", ")
}

func init() {
	configShowCmd.Flags().BoolVar(&flagJSON, "json", false, "print the normalized configuration as JSON")
	configShowCmd.Flags().StringVar(&showAs, "as", "", "print the normalized configuration as json, yaml or toml")
	configShowCmd.Flags().BoolVar(&showExpand, "expand", false, "count the patterns in local pattern files")
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
