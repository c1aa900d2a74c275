package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"montage-media/infrastructure/api"
	"montage-media/infrastructure/logging"

	"github.com/spf13/cobra"
)

// Version is reported by the health endpoint; set at build time with -ldflags
var Version = "dev"

const shutdownTimeout = 30 * time.Second

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Start the HTTP API. Analysis requests run synchronously and name files
on the server's filesystem.

Endpoints:
  GET  /health
  POST /v1/scenes       {"path": "..."}
  POST /v1/silences     {"path": "..."}
  POST /v1/highlights   {"path": "...", "keywords": [...], "subtitles_path": "..."}
  POST /v1/reframe      {"input": "...", "output": "...", "aspect": "9:16"}

Example:
  montage-media serve --addr :9000`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddress, "addr", "", "Listen address (default from config, :8080)")
}

// APIServer is a server that runs until shut down
type APIServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := requireConfig()
	if err != nil {
		return err
	}

	services, err := newAppServices(cfg, appLogger)
	if err != nil {
		return err
	}

	defaults, err := cfg.Reframe("", false)
	if err != nil {
		return err
	}

	address := cfg.Server.Address
	if serveAddress != "" {
		address = serveAddress
	}

	server := api.NewServer(api.ServerConfig{
		Address:   address,
		Scenes:    services.scenes,
		Silences:  services.silences,
		Pipeline:  services.pipeline,
		Reframe:   defaults,
		Keywords:  cfg.Keywords,
		Logger:    logging.NewLogger(),
		StartTime: time.Now(),
		Version:   Version,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(DefaultOutput, "Listening on %s\n", address)
	return RunServeWithDependencies(ctx, server, shutdownTimeout)
}

// RunServeWithDependencies runs server until it fails or ctx is cancelled,
// then shuts it down gracefully
func RunServeWithDependencies(ctx context.Context, server APIServer, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}
