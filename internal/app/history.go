package app

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/crashkeep/internal/archive"
	"github.com/blackwell-systems/crashkeep/internal/output"
)

var (
	historyFlagLimit  int
	historyFlagShow   string
	historyFlagDelete string

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Browse harvested crash reports",
		Long: `List the crash reports stored by 'crashkeep harvest', newest first.

Reports are addressed by ID; any unambiguous prefix of an ID works.`,
		Example: `  crashkeep history
  crashkeep history --limit 5
  crashkeep history --show 0b8f2c1e
  crashkeep history --delete 0b8f2c1e`,
		Args: cobra.NoArgs,
		RunE: runHistory,
	}
)

func init() {
	historyCmd.Flags().IntVar(&historyFlagLimit, "limit", 20, "maximum reports to list (0 for all)")
	historyCmd.Flags().StringVar(&historyFlagShow, "show", "", "print the report with this ID")
	historyCmd.Flags().StringVar(&historyFlagDelete, "delete", "", "delete the report with this ID")
	historyCmd.MarkFlagsMutuallyExclusive("show", "delete")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()

	switch {
	case historyFlagShow != "":
		r, err := st.Get(historyFlagShow)
		if err != nil {
			return historyLookupError(historyFlagShow, err)
		}
		fmt.Fprintf(out, "ID:        %s\n", r.ID)
		fmt.Fprintf(out, "Type:      %s\n", r.Type)
		fmt.Fprintf(out, "Harvested: %s\n", r.HarvestedAt.Local().Format("2006-01-02 15:04:05"))
		fmt.Fprintln(out)
		fmt.Fprintln(out, r.Body)
		return nil

	case historyFlagDelete != "":
		r, err := st.Get(historyFlagDelete)
		if err != nil {
			return historyLookupError(historyFlagDelete, err)
		}
		if err := st.Delete(r.ID); err != nil {
			return fmt.Errorf("failed to delete report: %w", err)
		}
		fmt.Fprintf(out, "✓ Deleted archived report %s\n", r.ID)
		return nil
	}

	reports, err := st.List(historyFlagLimit)
	if err != nil {
		return fmt.Errorf("failed to list archive: %w", err)
	}
	fmt.Fprint(out, output.RenderHistoryTable(reports))

	if total, err := st.Count(); err == nil && total > len(reports) {
		fmt.Fprintf(out, "\nShowing %d of %d. Use --limit 0 to list all.\n", len(reports), total)
	}
	return nil
}

func historyLookupError(id string, err error) error {
	switch {
	case errors.Is(err, archive.ErrNotFound):
		return fmt.Errorf("no archived report matches %q\n\nRun 'crashkeep history' to see archived reports", id)
	case errors.Is(err, archive.ErrAmbiguousID):
		return fmt.Errorf("%q matches more than one report; use a longer prefix", id)
	default:
		return fmt.Errorf("failed to read archive: %w", err)
	}
}
