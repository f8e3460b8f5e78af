package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/DevanshMishra-12/AI-Agent/internal/chat"
)

var askCmd = &cobra.Command{
	Use:   "ask [prompt]",
	Short: "Ask the agent a single question and print the answer",
	Long: `Runs one exchange with the agent outside the web UI. Useful for checking that
the model and the Firecrawl tool server are reachable.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := setupContext()

	provider, err := createTelemetryProvider(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create telemetry provider: %w", err)
	}
	defer func() {
		if err := provider.Shutdown(context.Background()); err != nil {
			log.Printf("failed to shut down telemetry: %v", err)
		}
	}()

	bridge, err := createBridge(cfg, provider)
	if err != nil {
		return err
	}

	session := chat.NewSession(uuid.NewString())
	answer, err := session.Exchange(ctx, strings.Join(args, " "), bridge)
	if err != nil {
		return fmt.Errorf("failed to ask agent: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
