package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [path]",
	Short: "Scan the project and write a fresh index",
	Long: `Walk the project tree, extract functions and classes from every
recognized source file, resolve call relations between them, and write
the complete index to disk, replacing any existing one.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine(rootArg(args))
		if err != nil {
			return err
		}
		idx, err := eng.BuildFull(cmd.Context())
		if err != nil {
			return fmt.Errorf("build failed: %w", err)
		}

		fmt.Printf("Indexed %d files across %d directories\n",
			idx.Stats.TotalFiles, idx.Stats.TotalDirs)
		for lang, n := range idx.Stats.FullyParsed {
			fmt.Printf("  %-12s %d parsed\n", lang, n)
		}
		if idx.DroppedListed > 0 {
			fmt.Printf("  %d listed-only entries dropped to fit the size budget\n",
				idx.DroppedListed)
		}
		fmt.Printf("Index written to %s\n", eng.IndexPath())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)
}
