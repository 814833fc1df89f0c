package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [path]",
	Short: "Report whether the index is stale",
	Long: `Compare the index against the current tree and report whether it has
drifted past the configured threshold or aged out. Exits 0 when the index
is fresh and 1 when it is stale or missing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine(rootArg(args))
		if err != nil {
			return err
		}
		stale, err := eng.CheckStaleness(cmd.Context())
		if err != nil {
			return fmt.Errorf("staleness check failed: %w", err)
		}
		if stale {
			fmt.Println("stale")
			// Exit status carries the answer for scripted callers.
			return errStale
		}
		fmt.Println("fresh")
		return nil
	},
}

var errStale = fmt.Errorf("index is stale")

func init() {
	checkCmd.SilenceErrors = true
	rootCmd.AddCommand(checkCmd)
}
