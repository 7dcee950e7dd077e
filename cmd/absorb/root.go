package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"absorb/internal/absorb"
	"absorb/internal/alog"
	"absorb/internal/config"
	"absorb/internal/gitstore"
)

// newRootCmd builds the absorb command tree. There is only one real
// subcommand today (the implicit root action), a single-purpose
// invocation style rather than a deep command tree.
func newRootCmd() *cobra.Command {
	var (
		dryRun    bool
		force     bool
		base      string
		logLevel  string
		configOpt string
	)

	cmd := &cobra.Command{
		Use:   "absorb",
		Short: "Assign staged hunks to the commits that introduced the lines they touch",
		Long: `absorb walks the commits above a base revision and, for each hunk
staged in the index, finds the most recent commit whose patch the hunk
cannot be commuted past. It emits a fixup! commit targeting that commit
for each hunk, ready to be squashed in with a later interactive rebase.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAbsorb(cmd, dryRun, force, base, logLevel, configOpt)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&dryRun, "dry-run", false, "report what would be absorbed without creating commits")
	flags.BoolVar(&force, "force", false, "keep walking the stack past the author-mismatch stop")
	flags.StringVar(&base, "base", "", "revision to stop stack discovery at (exclusive); defaults to heuristic discovery from HEAD")
	flags.StringVar(&logLevel, "log-level", "", "trace, debug, info, warn, or error")
	flags.StringVar(&configOpt, "config", "", "path to a config file, overriding the default .absorb.yml search")

	return cmd
}

func runAbsorb(cmd *cobra.Command, dryRun, force bool, base, logLevel, configOpt string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	cfg, err := config.Load(wd, configOpt)
	if err != nil {
		return err
	}

	changed := map[string]bool{}
	cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
	config.ApplyFlags(cfg, dryRun, force, base, logLevel, changed)

	level, err := alog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level %q: %w", cfg.LogLevel, err)
	}
	log := alog.NewLogrus(level)

	store, err := gitstore.OpenFromEnvironment(wd)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}
	log.Debug("repository found", "dir", wd)

	result, err := absorb.Run(store, cfg, log)
	if err != nil {
		return err
	}

	printResult(cmd, result)
	return nil
}

func printResult(cmd *cobra.Command, result *absorb.Result) {
	out := cmd.OutOrStdout()
	for _, f := range result.Fixups {
		fmt.Fprintf(out, "%s -> fixup! %s %s\n", f.Path, f.DestID, f.DestSummary)
	}
	fmt.Fprintf(out, "%d fixup(s), %d hunk(s) with no destination, %d hunk(s) skipped\n",
		len(result.Fixups), result.NoDestinations, result.SkippedHunks)
}
