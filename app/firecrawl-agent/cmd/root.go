package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/DevanshMishra-12/AI-Agent/internal/config"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "firecrawl-agent",
	Short: "Web chat agent that scrapes and crawls websites with Firecrawl",
	Long: `Firecrawl Agent is a chat assistant that answers questions about web pages.
It drives a language model in a ReAct loop and gives it the Firecrawl tools,
served by an MCP server, to scrape, crawl and extract data from websites.`,
	PersistentPreRunE: loadRootConfig,
	SilenceUsage:      true,
}

func Execute() error {
	return rootCmd.Execute()
}

func loadRootConfig(_ *cobra.Command, _ []string) error {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err = config.Load()
	return err
}
