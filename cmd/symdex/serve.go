package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"symdex/internal/config"
	"symdex/internal/indexer"
	"symdex/internal/server"
)

var (
	serveHost            string
	servePort            int
	serveLanguage        string
	serveShutdownTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the symbol indexing server",
	Long: `Start the symdex TCP server. Each connection carries one request:
a decimal byte length, a newline, then exactly that many bytes of source.
The server answers with the symbol table as one line of JSON and closes
the connection.

Examples:
  symdex serve                       # 127.0.0.1:5002, Java
  symdex serve --port 6000 --language python
  SYMDEX_SERVER_MAX_CONNECTIONS=64 symdex serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (overrides server.host)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().StringVar(&serveLanguage, "language", "", "Source language: java, python or ruby (overrides parser.language)")
	serveCmd.Flags().DurationVar(&serveShutdownTimeout, "shutdown-timeout", 10*time.Second,
		"How long to wait for in-flight connections on shutdown")
}

// applyServeFlags copies explicitly set flags over the loaded config.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
	}
	if cmd.Flags().Changed("language") {
		cfg.Parser.Language = serveLanguage
	}
	return cfg.Validate()
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := requireParser(); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := applyServeFlags(cmd, cfg); err != nil {
		return err
	}

	logger, closer, err := newLogger(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closer.Close() }()

	ix, err := indexer.FromConfig(cfg.Parser)
	if err != nil {
		return fmt.Errorf("create indexer: %w", err)
	}

	srv := server.New(cfg.Server, ix, logger)

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting symdex server",
			"addr", cfg.Server.Addr(),
			"language", cfg.Parser.Language,
			"encoding", cfg.Parser.Encoding,
		)
		serverErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !stderrors.Is(err, server.ErrServerClosed) {
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), serveShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", "error", err.Error())
			return err
		}
		<-serverErr
		logger.Info("Server stopped gracefully")
	}

	return nil
}
