package app

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <type> <file>",
	Short: "Print one pending crash report",
	Example: `  crashkeep show signal 261016-093000.txt
  crashkeep show exception 261016-093012.txt`,
	Args: cobra.ExactArgs(2),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
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

	body, ok := m.ReadCrashReport(args[1], ct)
	if !ok {
		return fmt.Errorf("no %s report named %s\n\nRun 'crashkeep list' to see pending reports", ct, args[1])
	}
	fmt.Fprintln(cmd.OutOrStdout(), body)
	return nil
}
