package app

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var (
	purgeFlagYes bool

	purgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Delete every pending crash report",
		Long: `Delete every pending crash report of every type without archiving it.
Use 'crashkeep harvest' to keep a copy first.`,
		Example: `  crashkeep purge
  crashkeep purge --yes`,
		Args: cobra.NoArgs,
		RunE: runPurge,
	}
)

func init() {
	purgeCmd.Flags().BoolVar(&purgeFlagYes, "yes", false, "Skip confirmation prompt")
}

func runPurge(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	m := newManager(cfg)
	defer m.Close()

	entries := pendingEntries(openCrashStore(cfg))
	if len(entries) == 0 {
		fmt.Fprintln(out, "No pending crash reports.")
		return nil
	}

	if !purgeFlagYes && !confirmPurge(cmd.InOrStdin(), out, len(entries)) {
		fmt.Fprintln(out, "Purge cancelled.")
		return nil
	}

	m.DeleteAllCrashReports()
	fmt.Fprintf(out, "✓ Deleted %d crash reports\n", len(entries))
	return nil
}

// confirmPurge prompts the user to confirm deletion.
func confirmPurge(in io.Reader, out io.Writer, count int) bool {
	fmt.Fprintf(out, "Delete %d crash reports? [y/N]: ", count)

	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
