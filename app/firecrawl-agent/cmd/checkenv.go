package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/DevanshMishra-12/AI-Agent/internal/config"
)

var checkEnvCmd = &cobra.Command{
	Use:   "check-env",
	Short: "Check that the model API key is configured",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !reportEnv(cmd.OutOrStdout(), cfg) {
			return fmt.Errorf("environment is incomplete")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkEnvCmd)
}

// reportEnv prints which credentials are present and reports whether the agent can start
func reportEnv(w io.Writer, c config.Config) bool {
	fmt.Fprintln(w, "✅ Checking environment setup...")

	ok := true
	key := c.CredentialKey()
	if c.Credential() != "" {
		fmt.Fprintf(w, "🔑 %s found ✅\n", key)
	} else {
		fmt.Fprintf(w, "❌ %s not found ❗️Check your .env file\n", key)
		ok = false
	}

	if c.FirecrawlAPIKey != "" {
		fmt.Fprintln(w, "🔑 FIRECRAWL_API_KEY found ✅")
	} else {
		fmt.Fprintln(w, "⚠️ FIRECRAWL_API_KEY not set, the tool server must find it elsewhere")
	}

	if err := c.Validate(); err != nil && ok {
		fmt.Fprintf(w, "❌ %v\n", err)
		ok = false
	}
	return ok
}
