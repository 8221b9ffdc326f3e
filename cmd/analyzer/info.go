package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/website-analyzer/internal/observability"
	"github.com/jonathan/website-analyzer/internal/snapshot"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Fetch a website and print its extracted content summary",
	Long:  "Fetches a website without running any analysis and prints the extracted title, meta description, text size and top links.",
	RunE:  runInfo,
}

var (
	infoURL        string
	infoUseBrowser bool
)

func init() {
	infoCmd.Flags().StringVarP(&infoURL, "url", "u", "", "Website URL to fetch (required)")
	infoCmd.Flags().BoolVar(&infoUseBrowser, "use-browser", false, "Re-fetch JavaScript-heavy sites with a headless browser")

	if err := infoCmd.MarkFlagRequired("url"); err != nil {
		panic(fmt.Sprintf("failed to mark url flag as required: %v", err))
	}

	rootCmd.AddCommand(infoCmd)
}

func runInfo(_ *cobra.Command, _ []string) error {
	site := snapshot.Capture(context.Background(), infoURL, &snapshot.Options{UseBrowser: infoUseBrowser})

	observability.NewPrinter(os.Stdout).PrintSnapshot(site)

	if site.FetchError != "" {
		return fmt.Errorf("failed to fetch website info: %s", site.FetchError)
	}
	if !site.IsValid() {
		return fmt.Errorf("page at %s has too little readable text to analyze", site.URL)
	}
	return nil
}
