package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"symdex/internal/client"
)

var (
	parseAddr    string
	parseFormat  string
	parseTimeout time.Duration
)

var parseCmd = &cobra.Command{
	Use:   "parse FILE",
	Short: "Send a file to a running symdex server",
	Long: `Send FILE to a symdex server and print the symbol table it returns.
The server decides the language; see "symdex serve --language".

Examples:
  symdex parse Hello.java
  symdex parse --addr 10.0.0.5:5002 --format yaml Hello.java`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseAddr, "addr", "", "Server address (default: server.host:server.port)")
	parseCmd.Flags().StringVar(&parseFormat, "format", "json", "Output format (json, yaml)")
	parseCmd.Flags().DurationVar(&parseTimeout, "timeout", client.DefaultTimeout, "Timeout for the whole exchange")
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	addr := parseAddr
	if addr == "" {
		addr = cfg.Server.Addr()
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
	defer cancel()

	start := time.Now()
	table, err := client.New(addr, parseTimeout).Index(ctx, source)
	if err != nil {
		return describeError(path, err)
	}
	logger.Debug("Parsed remotely", "addr", addr, "bytes", len(source), "duration", time.Since(start))

	out, err := FormatTable(table, OutputFormat(parseFormat))
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
