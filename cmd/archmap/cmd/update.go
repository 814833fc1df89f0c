package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"archmap/internal/engine"
)

var updateRoot string

var updateCmd = &cobra.Command{
	Use:   "update <file>",
	Short: "Patch the index for a single changed file",
	Long: `Re-extract one file and patch its record and call relations into the
existing index. Deleted files are removed along with every relation that
pointed at them. The update is atomic and time-bounded; if it cannot
finish in time the index on disk is left exactly as it was.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine(updateRoot)
		if err != nil {
			return err
		}
		err = eng.Update(cmd.Context(), args[0])
		if errors.Is(err, engine.ErrTimeout) {
			return fmt.Errorf("update timed out, index unchanged")
		}
		if err != nil {
			return fmt.Errorf("update failed: %w", err)
		}
		fmt.Printf("Updated %s\n", args[0])
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateRoot, "root", ".", "project root the index belongs to")
	rootCmd.AddCommand(updateCmd)
}
