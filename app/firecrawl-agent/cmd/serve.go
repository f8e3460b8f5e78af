package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/DevanshMishra-12/AI-Agent/internal/chat"
	"github.com/DevanshMishra-12/AI-Agent/internal/web"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat web UI",
	Long: `Starts the web UI. Each browser gets its own conversation, kept in memory
until it has been idle for longer than SESSION_IDLE_TIMEOUT.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddrFlag, "addr", "", "Address to listen on, overrides LISTEN_ADDR")
	rootCmd.AddCommand(serveCmd)
}

var listenAddrFlag string

func runServe(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	if listenAddrFlag != "" {
		cfg.ListenAddr = listenAddrFlag
	}

	log.Printf("Starting Firecrawl Agent web UI")
	log.Printf("Provider: %s, model: %s", cfg.LLMProvider, cfg.LLMModel)

	provider, err := createTelemetryProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.Printf("failed to shut down telemetry: %v", err)
		}
	}()

	bridge, err := createBridge(cfg, provider)
	if err != nil {
		return err
	}

	sessions := chat.NewManager()
	server, err := web.NewServer(sessions, bridge)
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go sweepSessions(ctx, sessions, cfg.SessionIdleTimeout)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Listening on %s", cfg.ListenAddr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down web server: %w", err)
	}
	log.Printf("Web server stopped")
	return nil
}

// sweepSessions drops idle sessions until ctx is done
func sweepSessions(ctx context.Context, sessions *chat.Manager, maxIdle time.Duration) {
	if maxIdle <= 0 {
		return
	}
	interval := maxIdle / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sessions.Sweep(maxIdle)
		}
	}
}
