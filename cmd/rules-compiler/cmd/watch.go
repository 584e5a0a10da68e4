package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaypatrick/ad-blocking-sub007/internal/config"
	"github.com/jaypatrick/ad-blocking-sub007/internal/reference"
	"github.com/jaypatrick/ad-blocking-sub007/internal/watch"
)

var flagDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Recompile whenever the configuration or its local inputs change",
	Long: `Compiles once, then watches the configuration file, its local sources and
its local inclusion/exclusion pattern files, and recompiles after every change.
Failed runs are reported and watching continues. Stop with Ctrl-C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg, err := readConfig(st)
		if err != nil {
			return err
		}

		job := func(ctx context.Context) error {
			result, err := compileOnce(ctx, st)
			if err != nil {
				return err
			}
			printResult(result)
			if !result.Success {
				return fmt.Errorf("compilation failed: %s", result.ErrorMessage)
			}
			return nil
		}

		w := &watch.Watcher{
			Paths:    watchPaths(cfg),
			Debounce: flagDebounce,
			Logger:   logger,
			OnResult: func(err error) {
				if err != nil {
					errorf("%v", err)
				}
			},
		}

		if err := job(ctx); err != nil {
			errorf("%v", err)
		}
		info("Watching %d file(s) for changes.", len(w.Paths))
		return w.Run(ctx, job)
	},
}

// watchPaths lists the configuration file and every local file it refers
// to, once each. Remote sources and files in missing directories are skipped.
func watchPaths(cfg *config.Configuration) []string {
	paths := []string{cfg.SourcePath}
	seen := map[string]bool{cfg.SourcePath: true}
	base := cfg.Dir()
	add := func(ref string) {
		if reference.Classify(ref) != reference.KindLocal {
			return
		}
		p := reference.Resolve(base, ref)
		if seen[p] {
			return
		}
		seen[p] = true
		if _, err := os.Stat(filepath.Dir(p)); err != nil {
			logger.Debug().Str("path", p).Msg("not watching, directory missing")
			return
		}
		paths = append(paths, p)
	}
	for _, src := range cfg.Sources {
		add(src.Source)
		for _, ref := range src.InclusionsSources {
			add(ref)
		}
		for _, ref := range src.ExclusionsSources {
			add(ref)
		}
	}
	for _, ref := range cfg.InclusionsSources {
		add(ref)
	}
	for _, ref := range cfg.ExclusionsSources {
		add(ref)
	}
	return paths
}

func init() {
	addCompileFlags(watchCmd)
	watchCmd.Flags().DurationVar(&flagDebounce, "debounce", watch.DefaultDebounce, "quiet period after a change before recompiling")
	rootCmd.AddCommand(watchCmd)
}
