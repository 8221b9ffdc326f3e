package snapshot

import (
	"log"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelector matches elements stripped before body text extraction.
const noiseSelector = "script, style, img, input, nav, footer, header"

// extractTitle resolves the page title: <title> text, then the first <h1>,
// then a domain-derived placeholder.
func extractTitle(doc *goquery.Document, domain string) string {
	if title := doc.Find("title"); title.Length() > 0 {
		if text := strings.TrimSpace(title.First().Text()); text != "" {
			return text
		}
		return "No title found"
	}

	if h1 := doc.Find("h1"); h1.Length() > 0 {
		if text := strings.TrimSpace(h1.First().Text()); text != "" {
			return text
		}
	}

	return "Website: " + domain
}

// extractMetaDescription prefers name="description" over og:description.
func extractMetaDescription(doc *goquery.Document) string {
	if meta := doc.Find(`meta[name="description"]`); meta.Length() > 0 {
		return meta.First().AttrOr("content", "")
	}
	if meta := doc.Find(`meta[property="og:description"]`); meta.Length() > 0 {
		return meta.First().AttrOr("content", "")
	}
	return ""
}

func extractMetaKeywords(doc *goquery.Document) string {
	if meta := doc.Find(`meta[name="keywords"]`); meta.Length() > 0 {
		return meta.First().AttrOr("content", "")
	}
	return ""
}

// extractLinks collects all anchors with an href, resolved to absolute URLs.
// Anchor-only hrefs ("#...") are dropped; malformed hrefs are skipped with a
// warning rather than aborting extraction.
func extractLinks(doc *goquery.Document, baseURL string) []Link {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	links := make([]Link, 0)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		linkURL, err := url.Parse(href)
		if err != nil {
			log.Printf("[snapshot] skipping malformed link %q: %v", href, err)
			return
		}

		links = append(links, Link{
			URL:   base.ResolveReference(linkURL).String(),
			Text:  strings.TrimSpace(s.Text()),
			Title: s.AttrOr("title", ""),
		})
	})
	return links
}

// extractImages collects all images with a src, resolved to absolute URLs.
func extractImages(doc *goquery.Document, baseURL string) []Image {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}

	images := make([]Image, 0)
	doc.Find("img[src]").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		if src == "" {
			return
		}

		srcURL, err := url.Parse(src)
		if err != nil {
			log.Printf("[snapshot] skipping malformed image %q: %v", src, err)
			return
		}

		images = append(images, Image{
			URL:   base.ResolveReference(srcURL).String(),
			Alt:   s.AttrOr("alt", ""),
			Title: s.AttrOr("title", ""),
		})
	})
	return images
}

// extractBodyText strips noise elements and flattens the body to
// newline-joined visible text, falling back to the whole document when no
// body element exists. Must run after link/image extraction since it mutates
// the parsed tree.
func extractBodyText(doc *goquery.Document) string {
	body := doc.Find("body")
	if body.Length() > 0 {
		body.Find(noiseSelector).Remove()
		return flattenText(body.First())
	}

	doc.Find(noiseSelector).Remove()
	return flattenText(doc.Selection)
}

// flattenText joins the selection's visible text lines, trimming each line
// and dropping empties.
func flattenText(sel *goquery.Selection) string {
	lines := strings.Split(sel.Text(), "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
