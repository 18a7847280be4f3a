package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var searchCount int

var searchCmd = &cobra.Command{
	Use:   "search <query>...",
	Short: "Search memory semantically",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchCount, "count", 10, "maximum number of fragments to return")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchCount < 1 || searchCount > 20 {
		return fmt.Errorf("count must be between 1 and 20")
	}

	store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := store.SearchMemory(cmd.Context(), strings.Join(args, " "), searchCount)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
