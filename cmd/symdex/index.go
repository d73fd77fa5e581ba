package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"symdex/internal/indexer"
	"symdex/internal/syntax"
)

var (
	indexLanguage string
	indexFormat   string
	indexOutput   string
)

var indexCmd = &cobra.Command{
	Use:   "index FILE",
	Short: "Index a local file without a server",
	Long: `Parse FILE in-process and print its symbol table.

The language comes from --language, else from the file extension
(.java, .py, .pyi, .rb), else from parser.language.

Examples:
  symdex index Hello.java
  symdex index --format yaml counter.py
  symdex index inventory.rb
  symdex index --format scip --output index.scip Hello.java`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().StringVar(&indexLanguage, "language", "", "Source language: java, python or ruby")
	indexCmd.Flags().StringVar(&indexFormat, "format", "json", "Output format (json, yaml, scip)")
	indexCmd.Flags().StringVarP(&indexOutput, "output", "o", "", "Write output to a file instead of stdout")
}

// resolveLanguage picks the language for path: flag, then extension, then config.
func resolveLanguage(path, flag, configured string) (syntax.Language, error) {
	if flag != "" {
		return syntax.ParseLanguage(flag)
	}
	def, err := syntax.ParseLanguage(configured)
	if err != nil {
		return "", err
	}
	return indexer.LanguageForFile(path, def), nil
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := args[0]
	if err := requireParser(); err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	lang, err := resolveLanguage(path, indexLanguage, cfg.Parser.Language)
	if err != nil {
		return err
	}
	ix, err := indexer.New(indexer.Options{Language: lang, Encoding: cfg.Parser.Encoding})
	if err != nil {
		return fmt.Errorf("create indexer: %w", err)
	}

	start := time.Now()
	table, err := ix.IndexFile(context.Background(), path)
	if err != nil {
		return describeError(path, err)
	}
	logger.Debug("Indexed", "path", path, "language", string(lang), "duration", time.Since(start))

	var out []byte
	if OutputFormat(indexFormat) == FormatSCIP {
		out, err = FormatSCIPIndex(table, path, string(lang), os.Args[1:])
	} else {
		out, err = FormatTable(table, OutputFormat(indexFormat))
	}
	if err != nil {
		return err
	}

	if indexOutput == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(indexOutput, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", indexOutput, err)
	}
	logger.Info("Wrote index", "path", indexOutput, "format", indexFormat, "bytes", len(out))
	return nil
}
