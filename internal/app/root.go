package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/crashkeep/internal/output"
)

var (
	cacheDir    string
	archivePath string
	configPath  string
	verbose     bool

	// RootCmd is the root command for crashkeep
	RootCmd = &cobra.Command{
		Use:   "crashkeep",
		Short: "Inspect and archive crash reports left by crashed processes",
		Long: `crashkeep inspects the crash reports that instrumented programs write
when they die from a fatal signal or an unrecovered panic.

Reports live under <cache-root>/CrashManager/{Signal,Exception} until the
next run of the program harvests them. crashkeep can list, print and delete
them, harvest them into a local archive, and follow new ones as they appear.

Examples:
  # Show pending reports
  crashkeep list

  # Print one report
  crashkeep show signal 261016-093000.txt

  # Move every pending report into the archive
  crashkeep harvest

  # Browse the archive
  crashkeep history
  crashkeep history --show 0b8f2c1e

  # Follow reports as other processes crash
  crashkeep watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			entries := pendingEntries(openCrashStore(cfg))
			fmt.Fprintln(out, "crashkeep: crash report capture and archive")
			fmt.Fprintln(out)
			fmt.Fprint(out, output.RenderReportSummary(entries))

			if n, err := archivedCount(cfg); err == nil {
				fmt.Fprintf(out, "Archived: %d\n", n)
			}

			fmt.Fprintln(out)
			if len(entries) > 0 {
				fmt.Fprintln(out, "Tip: Run 'crashkeep list' to see pending reports.")
				fmt.Fprintln(out, "     Run 'crashkeep harvest' to archive them.")
			} else {
				fmt.Fprintln(out, "Run 'crashkeep --help' for the full reference.")
			}
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "cache root holding CrashManager/ (default: OS cache directory)")
	RootCmd.PersistentFlags().StringVar(&archivePath, "archive", "", "archive database path (default: ~/.local/share/crashkeep/archive.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/crashkeep/config.toml)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log storage diagnostics to stderr")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(showCmd)
	RootCmd.AddCommand(rmCmd)
	RootCmd.AddCommand(purgeCmd)
	RootCmd.AddCommand(harvestCmd)
	RootCmd.AddCommand(historyCmd)
	RootCmd.AddCommand(watchCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}
