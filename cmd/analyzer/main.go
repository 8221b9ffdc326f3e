// Package main implements the analyzer CLI for website marketing analysis.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "analyzer",
	Short: "Website Analyzer",
	Long:  "Website Analyzer fetches a website, extracts its visible content, and generates marketing artifacts (SEO reports, content ideas, lead data, audits and more) with Gemini.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
