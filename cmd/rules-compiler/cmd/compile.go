package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jaypatrick/ad-blocking-sub007/internal/compiler"
	"github.com/jaypatrick/ad-blocking-sub007/internal/settings"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Validate, compile and verify a filter list (default command)",
	Long: `Reads the configuration, validates it, runs hostlist-compiler, then counts
the rules in the compiled list and hashes it with SHA-384. With --copy-to-rules
the list is also copied into the rules directory; a failed copy is reported
but does not fail the command.
Exit 0 on success; exit non-zero if any step aborts.`,
	RunE: runCompile,
}

func init() {
	addCompileFlags(compileCmd)
	rootCmd.AddCommand(compileCmd)
}

func runCompile(cmd *cobra.Command, _ []string) error {
	if flagValidateOnly {
		return runValidate(st)
	}
	result, err := compileOnce(cmd.Context(), st)
	if err != nil {
		return err
	}
	if flagJSON {
		if err := printJSON(result); err != nil {
			return err
		}
	} else {
		printResult(result)
	}
	if !result.Success {
		return fmt.Errorf("compilation failed: %s", result.ErrorMessage)
	}
	return nil
}

// compileOnce runs the pipeline and writes the metrics file if configured.
func compileOnce(ctx context.Context, s settings.Settings) (*compiler.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := pipelineOptions(s)
	if err != nil {
		return nil, err
	}
	o, err := newOrchestrator(s)
	if err != nil {
		return nil, err
	}

	result := o.Run(ctx, opts)

	if s.MetricsFile != "" {
		if err := o.Metrics.WriteTextfile(s.MetricsFile); err != nil {
			logger.Warn().Err(err).Msg("writing metrics failed")
		}
	}
	return result, nil
}

// printResult prints a run's outcome. Errors are left to the returned error.
func printResult(r *compiler.Result) {
	if r.Validation != nil {
		for _, w := range r.Validation.Warnings {
			warnf("%s", w)
		}
	}

	if !r.Success {
		if r.CompilerOutput != "" {
			detail("compiler output:\n%s", r.CompilerOutput)
		}
		return
	}

	info("Compiled %s (%s)", r.ConfigName, r.ConfigPath)
	info("  output:  %s", r.OutputPath)
	info("  rules:   %d", r.RuleCount)
	info("  sha384:  %s", r.OutputHash)
	info("  elapsed: %s", (time.Duration(r.ElapsedMs) * time.Millisecond).String())
	if r.ArchivedPath != "" {
		detail("archived: %s", r.ArchivedPath)
	}
	if r.RulesDestination != "" {
		if r.CopiedToRules {
			info("  copied:  %s", r.RulesDestination)
		} else {
			warnf("could not copy output to %s", r.RulesDestination)
		}
	}
	if r.CompilerOutput != "" {
		detail("compiler output:\n%s", r.CompilerOutput)
	}
}
