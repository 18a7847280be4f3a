package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var contextQuery string

var contextCmd = &cobra.Command{
	Use:   "context",
	Short: "Print the assembled memory context",
	Long: `Print the memory context an agent would receive: the long-term memory
document, today's notes, and (with --query and a configured index)
relevant fragments from past days.`,
	RunE: runContext,
}

func init() {
	contextCmd.Flags().StringVar(&contextQuery, "query", "", "retrieve past memories relevant to this query")
	rootCmd.AddCommand(contextCmd)
}

func runContext(cmd *cobra.Command, args []string) error {
	store, cleanup, err := openStore()
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := store.MemoryContext(cmd.Context(), contextQuery)
	if err != nil {
		return err
	}

	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No memories recorded yet.")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}
