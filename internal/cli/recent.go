package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var recentDays int

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "Print recent daily memories, newest first",
	RunE:  runRecent,
}

func init() {
	recentCmd.Flags().IntVar(&recentDays, "days", 7, "number of days to include, ending today")
	rootCmd.AddCommand(recentCmd)
}

func runRecent(cmd *cobra.Command, args []string) error {
	if recentDays < 1 {
		return fmt.Errorf("days must be at least 1")
	}

	store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := store.RecentMemories(recentDays)
	if err != nil {
		return err
	}

	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No recent memories.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
