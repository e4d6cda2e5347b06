package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/crashkeep/internal/crashstore"
	"github.com/blackwell-systems/crashkeep/internal/output"
)

var (
	listFlagType string

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List crash reports waiting to be harvested",
		Long: `List the crash reports written by earlier runs that no program has
harvested yet, newest first.`,
		Example: `  crashkeep list
  crashkeep list --type signal`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().StringVar(&listFlagType, "type", "", "only list one crash type (signal or exception)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store := openCrashStore(cfg)

	var entries []crashstore.Entry
	if listFlagType != "" {
		ct, err := parseCrashType(listFlagType)
		if err != nil {
			return err
		}
		entries = store.Entries(ct)
	} else {
		entries = pendingEntries(store)
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderEntryTable(entries))
	if len(entries) > 0 {
		fmt.Fprintln(out)
		fmt.Fprint(out, output.RenderReportSummary(entries))
	}
	return nil
}
