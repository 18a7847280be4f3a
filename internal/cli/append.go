package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var appendCmd = &cobra.Command{
	Use:   "append <text>...",
	Short: "Append a note to today's memory file",
	Long: `Append free-form text to today's memory file, creating it with a date
header on first write. The note is indexed for semantic search when an
index backend is configured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAppend,
}

func init() {
	rootCmd.AddCommand(appendCmd)
}

func runAppend(cmd *cobra.Command, args []string) error {
	store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	if err := store.AppendToday(cmd.Context(), strings.Join(args, " ")); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Appended to %s\n", store.TodayFile())
	return nil
}
