package folio

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/parchmentlabs/folio/pkg/config"
	"github.com/parchmentlabs/folio/pkg/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the Folio HTTP server",
	Long: `Start the Folio HTTP server to provide REST API access to the pipeline.

The server provides endpoints for:
- Asking questions (synthesized answers)
- Searching for ranked passages
- Indexing and deleting documents
- Health checks

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "debug", "Server mode (debug, release, test)")

	serverCmd.Flags().String("store-backend", "", "Chunk store backend (memory, badger)")
	serverCmd.Flags().String("store-path", "", "Chunk store data directory")

	serverCmd.Flags().String("nlp-model", "", "Language model")
	serverCmd.Flags().String("nlp-api-key", "", "Language model API key")
	serverCmd.Flags().String("nlp-base-url", "", "Language model base URL")

	serverCmd.Flags().String("embedding-provider", "", "Embedding provider (openai, local)")
	serverCmd.Flags().String("embedding-model", "", "Embedding model")

	serverCmd.Flags().String("telemetry-parquet-path", "", "Directory for parquet telemetry output")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	overrideConfigWithFlags(cmd, cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", cfg.Server.Port)
	}

	client, log, err := initializeFolio(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize folio: %w", err)
	}
	defer client.Close(context.Background())

	srv := server.New(cfg, client)
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)
		if err := srv.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	select {
	case err := <-serverErrChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		log.Info("shutting down", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info("server stopped")
		return nil
	}
}

func overrideConfigWithFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		cfg.Server.Mode = serverMode
	}

	if cmd.Flags().Changed("store-backend") {
		cfg.Store.Backend, _ = cmd.Flags().GetString("store-backend")
	}
	if cmd.Flags().Changed("store-path") {
		cfg.Store.Path, _ = cmd.Flags().GetString("store-path")
	}

	if cmd.Flags().Changed("nlp-model") {
		cfg.NLP.Model, _ = cmd.Flags().GetString("nlp-model")
	}
	if cmd.Flags().Changed("nlp-api-key") {
		cfg.NLP.APIKey, _ = cmd.Flags().GetString("nlp-api-key")
	}
	if cmd.Flags().Changed("nlp-base-url") {
		cfg.NLP.BaseURL, _ = cmd.Flags().GetString("nlp-base-url")
	}

	if cmd.Flags().Changed("embedding-provider") {
		cfg.Embedding.Provider, _ = cmd.Flags().GetString("embedding-provider")
	}
	if cmd.Flags().Changed("embedding-model") {
		cfg.Embedding.Model, _ = cmd.Flags().GetString("embedding-model")
	}

	if cmd.Flags().Changed("telemetry-parquet-path") {
		cfg.Telemetry.ParquetPath, _ = cmd.Flags().GetString("telemetry-parquet-path")
		cfg.Telemetry.Enabled = true
	}
}
