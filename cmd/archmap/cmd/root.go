package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"archmap/internal/config"
	"archmap/internal/engine"
)

var (
	cfgFile string
	verbose bool
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "archmap",
	Short: "archmap - Maintain an architectural index of a source tree",
	Long: `archmap scans a project and maintains PROJECT_INDEX.json, a compact
architectural map of the codebase: the directory tree, per-file functions
and classes, call relations between them, and where the documentation
points.

The index is built once, patched incrementally as files change, and
checked for staleness before being trusted.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is <root>/archmap.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// newEngine loads configuration for the project at root and builds the
// engine commands share.
func newEngine(root string) (*engine.Engine, *config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromDir(root)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	eng, err := engine.New(root, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return eng, cfg, nil
}

func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}
