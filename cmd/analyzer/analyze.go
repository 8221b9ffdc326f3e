package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/website-analyzer/internal/analysis"
	"github.com/jonathan/website-analyzer/internal/llm"
	"github.com/jonathan/website-analyzer/internal/observability"
	"github.com/jonathan/website-analyzer/internal/snapshot"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run one or all analyses against a website",
	Long: `Fetch a website and generate marketing artifacts from its content.
With --type all (the default) every analysis kind runs in sequence; a single
kind runs alone and supports kind-specific flags such as --content-type,
--platforms, --campaign-type and --humorous.`,
	RunE: runAnalyze,
}

var (
	analyzeURL          string
	analyzeType         string
	analyzeContentType  string
	analyzePlatforms    []string
	analyzeCampaignType string
	analyzeCompanyName  string
	analyzeHumorous     bool
	analyzeCompetitors  []string
	analyzeAPIKey       string
	analyzeConfigPath   string
	analyzeUseBrowser   bool
	analyzeVerbose      bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeURL, "url", "u", "", "Website URL to analyze (required)")
	analyzeCmd.Flags().StringVarP(&analyzeType, "type", "t", "all", "Analysis type: all, "+strings.Join(analysis.Kinds, ", ")+", competitors, links")
	analyzeCmd.Flags().StringVar(&analyzeContentType, "content-type", analysis.DefaultContentType, "Content format for content ideas")
	analyzeCmd.Flags().StringSliceVar(&analyzePlatforms, "platforms", analysis.DefaultPlatforms, "Target platforms for the social strategy")
	analyzeCmd.Flags().StringVar(&analyzeCampaignType, "campaign-type", analysis.DefaultCampaignType, "Campaign type for the email sequence")
	analyzeCmd.Flags().StringVar(&analyzeCompanyName, "company-name", "", "Company name for the brochure (default: derived from the site)")
	analyzeCmd.Flags().BoolVar(&analyzeHumorous, "humorous", false, "Generate the brochure in a humorous tone")
	analyzeCmd.Flags().StringSliceVar(&analyzeCompetitors, "competitors", nil, "Competitor URLs for the competitors analysis")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Gemini API key (overrides GEMINI_API_KEY env var)")
	analyzeCmd.Flags().StringVarP(&analyzeConfigPath, "config", "c", "", "Path to JSON config file")
	analyzeCmd.Flags().BoolVar(&analyzeUseBrowser, "use-browser", false, "Re-fetch JavaScript-heavy sites with a headless browser")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print the captured site snapshot before analyzing")

	if err := analyzeCmd.MarkFlagRequired("url"); err != nil {
		panic(fmt.Sprintf("failed to mark url flag as required: %v", err))
	}

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	cfg, err := loadSettings(analyzeConfigPath)
	if err != nil {
		return err
	}
	if analyzeAPIKey != "" {
		cfg.APIKey = analyzeAPIKey
	}
	if analyzeUseBrowser {
		cfg.UseBrowser = true
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key required: set --api-key flag or GEMINI_API_KEY environment variable")
	}

	kind := strings.ToLower(analyzeType)
	if kind == "contact" {
		kind = "leads"
	}
	if kind != "all" && kind != "competitors" && kind != "links" && !analysis.KnownKind(kind) {
		return fmt.Errorf("invalid analysis type %q, choose all, %s, competitors or links", analyzeType, strings.Join(analysis.Kinds, ", "))
	}

	ctx := context.Background()
	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	gw := analysis.NewGateway(client, analysis.NewPacer(cfg.PacerBurst, cfg.PacerRate))
	svc := analysis.NewService(gw, &snapshot.Options{UseBrowser: cfg.UseBrowser})
	printer := observability.NewPrinter(os.Stdout)

	if analyzeVerbose {
		printer.PrintSnapshot(svc.Capture(ctx, analyzeURL))
	}

	if kind == "all" {
		results := make(map[string]any, len(analysis.Kinds))
		for _, k := range analysis.Kinds {
			art := svc.Run(ctx, k, analyzeURL)
			results[k] = art.Value()
			printer.PrintArtifact(k, art.Value())
		}
		printer.PrintRunSummary(results, analysis.Kinds)
		return nil
	}

	art := runSingle(ctx, svc, kind)
	printer.PrintArtifact(kind, art.Value())
	if art.Failed {
		return fmt.Errorf("%s analysis failed: %s", kind, art.ErrorDetail)
	}
	return nil
}

// runSingle dispatches one analysis kind with the kind-specific flags applied.
func runSingle(ctx context.Context, svc *analysis.Service, kind string) analysis.Artifact {
	switch kind {
	case "content":
		return svc.ContentIdeas(ctx, analyzeURL, analyzeContentType)
	case "social":
		return svc.SocialStrategy(ctx, analyzeURL, analyzePlatforms)
	case "email":
		return svc.EmailCampaign(ctx, analyzeURL, analyzeCampaignType)
	case "brochure":
		return svc.Brochure(ctx, analyzeURL, analyzeCompanyName, analyzeHumorous)
	case "competitors":
		return svc.Competitors(ctx, analyzeURL, analyzeCompetitors)
	case "links":
		return svc.BrochureLinks(ctx, analyzeURL)
	default:
		return svc.Run(ctx, kind, analyzeURL)
	}
}
