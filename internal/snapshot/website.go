// Package snapshot builds a point-in-time structural snapshot of a web page.
// A Website aggregates the fetched page's title, meta tags, visible text,
// links and images. Snapshots are constructed on demand, never mutated after
// construction and never persisted.
package snapshot

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonathan/website-analyzer/internal/fetch"
)

// ValidTextFloor is the minimum body text length for a snapshot to count as
// successfully scraped.
const ValidTextFloor = 100

// ContentPreviewLimit bounds the text embedded in Contents().
const ContentPreviewLimit = 3000

// Link is an outbound link found on the page. URL is always absolute.
type Link struct {
	URL   string `json:"url"`
	Text  string `json:"text"`
	Title string `json:"title"`
}

// Image is an image found on the page. URL is always absolute.
type Image struct {
	URL   string `json:"url"`
	Alt   string `json:"alt"`
	Title string `json:"title"`
}

// Website is the immutable-after-construction snapshot of a fetched page.
// If FetchError is set the snapshot is degraded: Text, Links and Images are
// empty and Title holds a domain-derived placeholder.
type Website struct {
	URL             string  `json:"url"`
	Domain          string  `json:"domain"`
	Title           string  `json:"title"`
	MetaDescription string  `json:"meta_description"`
	Keywords        string  `json:"keywords"`
	Text            string  `json:"text"`
	Links           []Link  `json:"links"`
	Images          []Image `json:"images"`
	StatusCode      int     `json:"status_code,omitempty"`
	FetchError      string  `json:"fetch_error,omitempty"`
}

// Options configures snapshot capture.
type Options struct {
	Fetch *fetch.Options
	// UseBrowser enables a headless-browser re-fetch when the plain HTTP
	// response yields too little text (JavaScript-rendered pages).
	UseBrowser bool
}

// Capture fetches a URL and extracts its snapshot. It never returns an error:
// transport failures produce a degraded snapshot with FetchError set.
func Capture(ctx context.Context, urlStr string, opts *Options) *Website {
	if opts == nil {
		opts = &Options{}
	}

	w := &Website{
		URL:    urlStr,
		Domain: domainOf(urlStr),
	}

	log.Printf("[snapshot] scraping %s", urlStr)

	result, err := fetch.URL(ctx, urlStr, opts.Fetch)
	if err != nil {
		if result != nil {
			w.StatusCode = result.StatusCode
		}
		w.FetchError = fmt.Sprintf("error scraping %s: %v", urlStr, err)
		w.Title = fmt.Sprintf("Error accessing %s", w.Domain)
		log.Printf("[snapshot] %s", w.FetchError)
		return w
	}

	w.StatusCode = result.StatusCode
	html := result.HTML

	if err := w.extract(html); err != nil {
		w.FetchError = fmt.Sprintf("unexpected error scraping %s: %v", urlStr, err)
		w.Title = fmt.Sprintf("Error processing %s", w.Domain)
		w.Text = ""
		w.Links = nil
		w.Images = nil
		return w
	}

	if opts.UseBrowser && fetch.ShouldUseBrowser(w.Text) {
		rendered, err := fetch.WithBrowser(ctx, urlStr, fetch.DefaultTimeout)
		if err == nil {
			// Best effort: keep the plain-HTTP snapshot if re-extraction fails.
			_ = w.extract(rendered)
		}
	}

	log.Printf("[snapshot] scraped %s (%d chars, %d links, %d images)",
		urlStr, len(w.Text), len(w.Links), len(w.Images))
	return w
}

// IsValid reports whether the page was successfully scraped with enough text
// to be useful for analysis.
func (w *Website) IsValid() bool {
	return w.FetchError == "" && len(w.Text) > ValidTextFloor
}

// Contents returns a formatted summary of the snapshot for prompting.
// Degraded snapshots substitute a domain-based note for page content.
func (w *Website) Contents() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Webpage Title: %s\n\n", w.Title)

	if w.MetaDescription != "" {
		fmt.Fprintf(&sb, "Meta Description: %s\n\n", w.MetaDescription)
	}

	if w.FetchError != "" {
		fmt.Fprintf(&sb, "Error: %s\n\n", w.FetchError)
		sb.WriteString("Note: Limited information available due to scraping restrictions.\n")
		fmt.Fprintf(&sb, "Company appears to be: %s\n\n", w.Domain)
	} else {
		fmt.Fprintf(&sb, "Webpage Contents:\n%s...\n\n", Truncate(w.Text, ContentPreviewLimit))
	}

	return sb.String()
}

// Truncate returns s cut to at most n bytes. Prompt budgets are byte-based;
// a mid-rune cut is acceptable for LLM input.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// extract parses HTML and fills the snapshot fields. Links and images are
// collected from the full document before noise elements are stripped for
// text extraction.
func (w *Website) extract(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	w.Title = extractTitle(doc, w.Domain)
	w.MetaDescription = extractMetaDescription(doc)
	w.Keywords = extractMetaKeywords(doc)
	w.Links = extractLinks(doc, w.URL)
	w.Images = extractImages(doc, w.URL)
	w.Text = extractBodyText(doc)

	return nil
}

// domainOf returns the host component of a URL, empty if unparseable.
func domainOf(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// CompanyName derives a display company name from the domain, e.g.
// "www.example.com" -> "Example".
func (w *Website) CompanyName() string {
	name := strings.TrimPrefix(w.Domain, "www.")
	if idx := strings.Index(name, "."); idx >= 0 {
		name = name[:idx]
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
