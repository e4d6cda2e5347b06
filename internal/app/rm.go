package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:     "rm <type> <file>",
	Short:   "Delete one pending crash report",
	Example: `  crashkeep rm signal 261016-093000.txt`,
	Args:    cobra.ExactArgs(2),
	RunE:    runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	ct, err := parseCrashType(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	m := newManager(cfg)
	defer m.Close()

	if _, ok := m.ReadCrashReport(args[1], ct); !ok {
		return fmt.Errorf("no %s report named %s", ct, args[1])
	}
	m.DeleteCrashReport(args[1], ct)
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s report %s\n", ct, args[1])
	return nil
}
