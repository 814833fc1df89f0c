package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"archmap/internal/ignore"
	"archmap/internal/store"
	"archmap/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Keep the index current as files change",
	Long: `Watch the project tree and patch the index whenever a source file is
created, written, renamed or removed. Events are debounced so rapid saves
of the same file apply once. Runs until interrupted.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root := rootArg(args)
		eng, cfg, err := newEngine(root)
		if err != nil {
			return err
		}
		if _, err := eng.Load(); errors.Is(err, store.ErrNoIndex) {
			fmt.Println("No index yet, building one first")
			if _, err := eng.BuildFull(cmd.Context()); err != nil {
				return fmt.Errorf("initial build failed: %w", err)
			}
		}

		// The index document must never feed back into the watcher.
		patterns := append([]string(nil), cfg.IgnorePatterns...)
		patterns = append(patterns, cfg.IndexFile)
		filter := ignore.New(root, patterns)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		fmt.Printf("Watching %s (Ctrl-C to stop)\n", root)
		err = watch.New(eng, root, filter, cfg.WatchDebounce.Std(), logger).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
