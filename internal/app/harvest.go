package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/crashkeep/internal/crashstore"
	"github.com/blackwell-systems/crashkeep/internal/output"
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Move pending crash reports into the archive",
	Long: `Store every pending crash report in the archive database, then delete
the stored records from the crash directories. Records are only deleted once
the archive has committed them; a failed insert leaves everything in place.

The archive keeps harvested reports searchable with 'crashkeep history'.`,
	Example: `  crashkeep harvest
  crashkeep harvest --archive /tmp/crashes.db`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	// No Install: an inspection tool must not claim the fatal signals.
	m := newManager(cfg)
	defer m.Close()

	// Read by name so that records written after this point are neither
	// archived nor deleted.
	var (
		harvested []crashstore.Entry
		bodies    []string
	)
	for _, e := range pendingEntries(openCrashStore(cfg)) {
		body, ok := m.ReadCrashReport(e.Name, e.Type)
		if !ok {
			continue
		}
		harvested = append(harvested, e)
		bodies = append(bodies, body)
	}

	out := cmd.OutOrStdout()
	if len(bodies) == 0 {
		fmt.Fprintln(out, "No pending crash reports.")
		return nil
	}

	archived, err := st.InsertAll(bodies, time.Now())
	if err != nil {
		return fmt.Errorf("failed to archive reports (pending reports kept): %w", err)
	}
	for _, e := range harvested {
		m.DeleteCrashReport(e.Name, e.Type)
	}

	fmt.Fprint(out, output.RenderHistoryTable(archived))
	fmt.Fprintf(out, "\n✓ Archived %d crash reports\n", len(archived))
	return nil
}
