package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"archmap/internal/model"
	"archmap/internal/store"
)

var showTree bool

var showCmd = &cobra.Command{
	Use:   "show [path]",
	Short: "Summarize the persisted index",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, _, err := newEngine(rootArg(args))
		if err != nil {
			return err
		}
		idx, err := eng.Load()
		if errors.Is(err, store.ErrNoIndex) {
			return fmt.Errorf("no index at %s, run 'archmap build' first", eng.IndexPath())
		}
		if err != nil {
			return err
		}

		fmt.Printf("Index of %s, built %s\n", idx.Root,
			idx.BuiltAt.Format("2006-01-02 15:04:05 MST"))
		fmt.Printf("  Files:       %d (%d markdown)\n",
			idx.Stats.TotalFiles, idx.Stats.MarkdownFiles)
		fmt.Printf("  Directories: %d\n", idx.Stats.TotalDirs)

		langs := make([]string, 0, len(idx.Stats.FullyParsed))
		for l := range idx.Stats.FullyParsed {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		for _, l := range langs {
			fmt.Printf("  %-12s %d parsed, %d listed\n",
				l, idx.Stats.FullyParsed[l], idx.Stats.ListedOnly[l])
		}

		funcs, classes, edges := 0, 0, 0
		for _, fr := range idx.Files {
			funcs += len(fr.Functions)
			classes += len(fr.Classes)
		}
		idx.EachSymbol(func(_ string, _ *model.FileRecord, sym *model.Symbol) {
			edges += len(sym.Calls)
		})
		fmt.Printf("  Symbols:     %d functions, %d classes, %d call edges\n",
			funcs, classes, edges)
		if idx.TreeTruncated {
			fmt.Println("  Tree is truncated")
		}
		if idx.DroppedListed > 0 {
			fmt.Printf("  %d listed-only entries dropped for size\n", idx.DroppedListed)
		}

		if showTree {
			fmt.Println()
			fmt.Println(strings.Join(idx.Tree, "\n"))
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showTree, "tree", false, "print the directory tree")
	rootCmd.AddCommand(showCmd)
}
