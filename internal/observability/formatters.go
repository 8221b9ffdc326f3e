// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/website-analyzer/internal/snapshot"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSnapshot outputs a human-readable summary of a captured website.
func (p *Printer) PrintSnapshot(site *snapshot.Website) {
	if site == nil {
		return
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("URL:      %s\n", site.URL))
	sb.WriteString(fmt.Sprintf("Domain:   %s\n", site.Domain))
	sb.WriteString(fmt.Sprintf("Title:    %s\n", site.Title))
	if site.MetaDescription != "" {
		sb.WriteString(fmt.Sprintf("Meta:     %s\n", site.MetaDescription))
	}
	if site.FetchError != "" {
		sb.WriteString(fmt.Sprintf("Error:    %s\n", site.FetchError))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Status:   %d\n", site.StatusCode))
	sb.WriteString(fmt.Sprintf("Text:     %d characters\n", len(site.Text)))
	sb.WriteString(fmt.Sprintf("Links:    %d\n", len(site.Links)))
	sb.WriteString(fmt.Sprintf("Images:   %d\n", len(site.Images)))

	if len(site.Links) > 0 {
		sb.WriteString("\nTop Links:\n")
		count := min(len(site.Links), maxItemsToShow)
		for i := 0; i < count; i++ {
			link := site.Links[i]
			text := link.Text
			if text == "" {
				text = link.URL
			}
			if len(text) > 45 {
				text = text[:42] + "..."
			}
			sb.WriteString(fmt.Sprintf("  • %s\n", text))
		}
		if len(site.Links) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(site.Links)-maxItemsToShow))
		}
	}

	p.printBox("SITE SNAPSHOT", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintArtifact outputs one analysis result. Structured payloads are printed
// as indented JSON, prose as-is.
func (p *Printer) PrintArtifact(kind string, value any) {
	var content string
	switch v := value.(type) {
	case string:
		content = v
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			content = fmt.Sprintf("%v", v)
		} else {
			content = string(data)
		}
	}

	p.printBox(strings.ToUpper(kind)+" ANALYSIS", strings.TrimSuffix(content, "\n"))
}

// PrintRunSummary outputs a completion line per analysis kind.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintRunSummary(results map[string]any, order []string) {
	if len(results) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Completed %d analyses:\n\n", len(results)))
	for _, kind := range order {
		if _, ok := results[kind]; !ok {
			continue
		}
		marker := "✓"
		if isErrorResult(results[kind]) {
			marker = "⚠"
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", marker, kind))
	}

	p.printBox("RUN SUMMARY", strings.TrimSuffix(sb.String(), "\n"))
}

// isErrorResult reports whether a stored result is an error value rather
// than a produced artifact.
func isErrorResult(value any) bool {
	switch v := value.(type) {
	case string:
		return strings.HasPrefix(v, "Error")
	case map[string]any:
		_, hasErr := v["error"]
		return hasErr
	default:
		return false
	}
}
