// Package analysis turns captured website snapshots into marketing artifacts
// by composing prompts and calling the model through a never-failing gateway.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/website-analyzer/internal/llm"
	"github.com/jonathan/website-analyzer/internal/prompts"
	"github.com/jonathan/website-analyzer/internal/schemas"
	"github.com/jonathan/website-analyzer/internal/snapshot"
)

const promptFile = "analysis.json"

// Default parameters for the parameterized artifact kinds.
const (
	DefaultContentType  = "blog"
	DefaultCampaignType = "welcome_series"
)

// DefaultPlatforms are the social networks targeted when a request does not
// name any.
var DefaultPlatforms = []string{"LinkedIn", "Twitter", "Instagram"}

// Kinds lists the artifact kinds a complete analysis runs, in execution
// order.
var Kinds = []string{"seo", "audit", "content", "social", "leads", "email", "brochure"}

// KnownKind reports whether kind names a supported artifact.
func KnownKind(kind string) bool {
	for _, k := range Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Service produces marketing artifacts for a website. All methods return an
// Artifact rather than an error so callers can aggregate partial failures.
type Service struct {
	gw      *Gateway
	capture *snapshot.Options
}

// NewService creates an analysis service. capture controls how websites are
// fetched and may be nil for defaults.
func NewService(gw *Gateway, capture *snapshot.Options) *Service {
	return &Service{gw: gw, capture: capture}
}

func (s *Service) snap(ctx context.Context, url string) *snapshot.Website {
	return snapshot.Capture(ctx, url, s.capture)
}

// Run dispatches a single artifact kind with default parameters. Unknown
// kinds yield a failed artifact naming the valid choices.
func (s *Service) Run(ctx context.Context, kind, url string) Artifact {
	switch kind {
	case "seo":
		return s.SEO(ctx, url)
	case "audit":
		return s.Audit(ctx, url)
	case "content":
		return s.ContentIdeas(ctx, url, DefaultContentType)
	case "social":
		return s.SocialStrategy(ctx, url, DefaultPlatforms)
	case "leads":
		return s.Leads(ctx, url)
	case "email":
		return s.EmailCampaign(ctx, url, DefaultCampaignType)
	case "brochure":
		return s.Brochure(ctx, url, "", false)
	default:
		return failure(fmt.Sprintf("Invalid analysis type. Available: %s", strings.Join(Kinds, ", ")))
	}
}

// SEO analyzes on-page SEO. Inaccessible sites get a templated degraded
// report instead of a model call.
func (s *Service) SEO(ctx context.Context, url string) Artifact {
	site := s.snap(ctx, url)
	if !site.IsValid() {
		return Artifact{Markdown: fallbackReport(url, site.Domain) + seoFallbackSuffix}
	}

	userPrompt := fmt.Sprintf(`Analyze this website for SEO:
URL: %s
Title: %s
Meta Description: %s
Keywords: %s
Content Length: %d characters
Number of Images: %d
Number of Links: %d

Page Content:
%s`,
		url, site.Title, site.MetaDescription, site.Keywords,
		len(site.Text), len(site.Images), len(site.Links),
		snapshot.Truncate(site.Text, 3000))

	return s.gw.Text(ctx, prompts.MustGet(promptFile, "seo"), userPrompt, llm.TierStandard)
}

// Audit produces a comprehensive site audit with section ratings.
func (s *Service) Audit(ctx context.Context, url string) Artifact {
	site := s.snap(ctx, url)
	if !site.IsValid() {
		return Artifact{Markdown: fallbackReport(url, site.Domain) + auditFallbackSuffix}
	}

	internal, external := 0, 0
	for _, l := range site.Links {
		if strings.Contains(l.URL, site.Domain) {
			internal++
		} else {
			external++
		}
	}

	userPrompt := fmt.Sprintf(`Audit this website comprehensively:
URL: %s
Title: %s
Meta Description: %s
Content Length: %d characters
Number of Pages Linked: %d
External Links: %d

Content:
%s

Navigation/Links:
%s`,
		url, site.Title, site.MetaDescription, len(site.Text), internal, external,
		snapshot.Truncate(site.Text, 4000),
		strings.Join(linkTexts(site.Links, 15), ", "))

	return s.gw.Text(ctx, prompts.MustGet(promptFile, "audit"), userPrompt, llm.TierAdvanced)
}

// ContentIdeas generates content marketing ideas of the requested type.
func (s *Service) ContentIdeas(ctx context.Context, url, contentType string) Artifact {
	if contentType == "" {
		contentType = DefaultContentType
	}
	site := s.snap(ctx, url)

	systemPrompt := prompts.Format(prompts.MustGet(promptFile, "content"),
		map[string]string{"ContentType": contentType})

	userPrompt := fmt.Sprintf(`Generate %s content ideas for this company:
Company: %s
URL: %s
Description: %s
Domain: %s

Available Business Context:
%s`,
		contentType, site.Title, url, site.MetaDescription, site.Domain,
		businessContext(site, 2000))

	return s.gw.Text(ctx, systemPrompt, userPrompt, llm.TierStandard)
}

// SocialStrategy generates a per-platform social media strategy.
func (s *Service) SocialStrategy(ctx context.Context, url string, platforms []string) Artifact {
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}
	site := s.snap(ctx, url)

	joined := strings.Join(platforms, ", ")
	systemPrompt := prompts.Format(prompts.MustGet(promptFile, "social"),
		map[string]string{"Platforms": joined})

	userPrompt := fmt.Sprintf(`Create social media strategy for:
Company: %s
URL: %s
Domain: %s
Business Description: %s

Target Platforms: %s

Available Business Context:
%s`,
		site.Title, url, site.Domain, site.MetaDescription, joined,
		businessContext(site, 2000))

	return s.gw.Text(ctx, systemPrompt, userPrompt, llm.TierStandard)
}

// EmailCampaign generates an email sequence of the requested campaign type.
func (s *Service) EmailCampaign(ctx context.Context, url, campaignType string) Artifact {
	if campaignType == "" {
		campaignType = DefaultCampaignType
	}
	site := s.snap(ctx, url)

	systemPrompt := prompts.Format(prompts.MustGet(promptFile, "email"),
		map[string]string{"CampaignType": campaignType})

	userPrompt := fmt.Sprintf(`Create %s email campaign for:
Company: %s
URL: %s
Domain: %s
Business: %s

Available Company Information:
%s`,
		campaignType, site.Title, url, site.Domain, site.MetaDescription,
		businessContext(site, 2000))

	return s.gw.Text(ctx, systemPrompt, userPrompt, llm.TierStandard)
}

// Leads extracts contact details and lead magnets as a structured payload.
// The payload is checked against the leads schema; a malformed payload is
// reported with the raw response preserved.
func (s *Service) Leads(ctx context.Context, url string) Artifact {
	site := s.snap(ctx, url)

	content := "Limited access"
	if site.IsValid() {
		content = snapshot.Truncate(site.Text, 2000)
	}

	linkLines := make([]string, 0, 20)
	for _, l := range site.Links {
		if len(linkLines) == 20 {
			break
		}
		linkLines = append(linkLines, l.Text+" -> "+l.URL)
	}

	userPrompt := fmt.Sprintf(`Extract contact information and lead magnets from:
URL: %s
Title: %s
Domain: %s
Accessible: %t
Content: %s

Links found: %s`,
		url, site.Title, site.Domain, site.IsValid(), content,
		strings.Join(linkLines, "; "))

	art := s.gw.Structured(ctx, prompts.MustGet(promptFile, "leads"), userPrompt, llm.TierStandard)
	if art.Failed {
		return art
	}

	if err := schemas.ValidateLeads(art.Structured); err != nil {
		log.Printf("[analysis] leads payload rejected: %v", err)
		raw, _ := json.Marshal(art.Structured)
		return Artifact{
			Failed:      true,
			ErrorDetail: "Leads payload failed schema validation",
			RawResponse: string(raw),
		}
	}
	return art
}

// Brochure writes a company brochure from the site content. An empty
// companyName is derived from the domain.
func (s *Service) Brochure(ctx context.Context, url, companyName string, humorous bool) Artifact {
	site := s.snap(ctx, url)
	if companyName == "" {
		companyName = site.CompanyName()
	}

	key := "brochure"
	if humorous {
		key = "brochure_humorous"
	}

	content := fmt.Sprintf("Limited access to %s - please create a professional brochure template based on the company name and domain", site.Domain)
	if site.IsValid() {
		content = snapshot.Truncate(site.Text, 3000)
	}

	userPrompt := fmt.Sprintf(`Company: %s
URL: %s
Domain: %s
Title: %s
Accessible: %t
Content: %s`,
		companyName, url, site.Domain, site.Title, site.IsValid(), content)

	return s.gw.Text(ctx, prompts.MustGet(promptFile, key), userPrompt, llm.TierStandard)
}

// BrochureLinks asks the model to triage which of the site's links belong in
// a company brochure.
func (s *Service) BrochureLinks(ctx context.Context, url string) Artifact {
	site := s.snap(ctx, url)
	if !site.IsValid() {
		return Artifact{Structured: map[string]any{
			"error": fmt.Sprintf("Could not access website: %s", site.FetchError),
		}}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Here is the list of links on the website of %s - ", site.URL)
	sb.WriteString("please decide which of these are relevant web links for a brochure about the company. ")
	sb.WriteString("Links:\n")
	for _, l := range site.Links {
		sb.WriteString(l.URL)
		sb.WriteString("\n")
	}

	return s.gw.Structured(ctx, prompts.MustGet(promptFile, "brochure_links"), sb.String(), llm.TierLite)
}

// Competitors compares the main site against competitor sites. Snapshots are
// captured concurrently; inaccessible competitors are noted rather than
// dropped.
func (s *Service) Competitors(ctx context.Context, mainURL string, competitorURLs []string) Artifact {
	var mainSite *snapshot.Website
	sites := make([]*snapshot.Website, len(competitorURLs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	g.Go(func() error {
		mainSite = s.snap(gctx, mainURL)
		return nil
	})
	for i, u := range competitorURLs {
		g.Go(func() error {
			sites[i] = s.snap(gctx, u)
			return nil
		})
	}
	// Capture never fails, Wait only orders the goroutines.
	_ = g.Wait()

	var sb strings.Builder
	fmt.Fprintf(&sb, `Main Company Website:
Title: %s
URL: %s
Accessible: %t
Content: %s

Competitor Websites:
`,
		mainSite.Title, mainURL, mainSite.IsValid(), accessibleContent(mainSite, 2000))

	for i, comp := range sites {
		fmt.Fprintf(&sb, "\n\nCompetitor: %s (%s)\n", comp.Title, competitorURLs[i])
		fmt.Fprintf(&sb, "Accessible: %t\n", comp.IsValid())
		fmt.Fprintf(&sb, "Content: %s", accessibleContent(comp, 2000))
	}

	return s.gw.Text(ctx, prompts.MustGet(promptFile, "competitors"), sb.String(), llm.TierAdvanced)
}

// Capture exposes snapshot capture with the service's fetch options, for
// endpoints that return site metadata without a model call.
func (s *Service) Capture(ctx context.Context, url string) *snapshot.Website {
	return s.snap(ctx, url)
}

func businessContext(site *snapshot.Website, limit int) string {
	if site.IsValid() {
		return snapshot.Truncate(site.Text, limit)
	}
	return fmt.Sprintf("Limited access to %s - please infer business type from domain name", site.Domain)
}

func accessibleContent(site *snapshot.Website, limit int) string {
	if site.IsValid() {
		return snapshot.Truncate(site.Text, limit)
	}
	return "Content not accessible"
}

func linkTexts(links []snapshot.Link, limit int) []string {
	texts := make([]string, 0, limit)
	for _, l := range links {
		if len(texts) == limit {
			break
		}
		texts = append(texts, l.Text)
	}
	return texts
}
