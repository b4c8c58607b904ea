package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/briefing/internal/adapters/driving/httpapi"
	"github.com/meridian-labs/briefing/internal/logger"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Starts the HTTP API on the configured address and, when an ingest
directory is configured, the background file watcher alongside it.
The server drains in-flight requests on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	server := httpapi.NewServer(cfg.Server.Addr, a.conversation, a.ingestor, cfg.Server.AllowedOrigins)

	if a.scheduler != nil {
		go func() {
			if err := a.scheduler.Start(ctx); err != nil && ctx.Err() == nil {
				logger.Error("ingestion scheduler stopped: %v", err)
			}
		}()
		defer a.scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
