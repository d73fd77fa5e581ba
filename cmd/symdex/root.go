package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"symdex/internal/config"
	"symdex/internal/slogutil"
	"symdex/internal/syntax"
	"symdex/internal/version"
)

var (
	// configPath is the --config flag value
	configPath string
	verbosity  int
	quiet      bool
)

var rootCmd = &cobra.Command{
	Use:   "symdex",
	Short: "symdex - source symbol indexer",
	Long: `symdex parses Java, Python or Ruby source and reports every type, interface,
callable, field, variable and import it declares or uses, with 0-based
line/column coordinates.

It runs as a TCP service speaking a length-framed protocol (serve), as a
client of that service (parse), or in-process on local files (index).`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(versionReport())
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default: ./symdex.toml, then the user config directory)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all log output")
}

// versionReport is the --version output: build identity plus whether
// source parsing is compiled in.
func versionReport() string {
	parsing := "tree-sitter (" + strings.Join(languageNames(), ", ") + ")"
	if !syntax.IsAvailable() {
		parsing = "unavailable (built without cgo)"
	}
	return version.Full() + "\nparsing: " + parsing + "\n"
}

func languageNames() []string {
	langs := syntax.Languages()
	names := make([]string, len(langs))
	for i, l := range langs {
		names[i] = string(l)
	}
	return names
}

// requireParser fails fast in binaries built without tree-sitter.
func requireParser() error {
	if !syntax.IsAvailable() {
		return fmt.Errorf("%s was built without cgo, rebuild with CGO_ENABLED=1 to parse source: %w", version.Name, syntax.ErrUnavailable)
	}
	return nil
}

// loadConfig loads and validates the configuration selected by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the command logger. -v and -q take precedence over
// logging.level when given.
func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, io.Closer, error) {
	var override *slog.Level
	if quiet || cmd.Flags().Changed("verbose") {
		level := slogutil.LevelFromVerbosity(verbosity, quiet)
		override = &level
	}
	logger, closer, err := slogutil.FromConfig(cfg.Logging, os.Stderr, override)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return logger, closer, nil
}
