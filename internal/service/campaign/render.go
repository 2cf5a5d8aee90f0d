package campaign

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/voicehouse/outreach/internal/domain"
)

// textPolicy strips every HTML tag from user-authored text. Campaign
// content is plain text at the block level; anything that looks like
// markup came from the user and must not reach the rendered email.
var textPolicy = bluemonday.StrictPolicy()

// blockTags maps allowed block types to their HTML element. Block
// types outside this map are skipped, not errors, so one malformed
// block cannot take down a whole campaign.
var blockTags = map[string]string{
	"paragraph": "p",
	"h1":        "h1",
	"h2":        "h2",
	"h3":        "h3",
	"h4":        "h4",
	"h5":        "h5",
	"h6":        "h6",
}

// RenderHTML turns campaign content into a provider-ready HTML email.
// The subject doubles as the document title and lead heading.
func RenderHTML(c *domain.Campaign) string {
	var body strings.Builder
	switch c.Content.Type {
	case domain.ContentBlocks:
		renderBlocks(&body, c.Content.Blocks)
	case domain.ContentMarkdown:
		renderMarkdown(&body, c.Content.Markdown)
	case domain.ContentReact:
		// React templates are rendered by the studio front end; the
		// API falls back to a plain notice rather than failing the send.
		fmt.Fprintf(&body, "<p>%s</p>\n", sanitize(c.Subject))
	}

	var doc strings.Builder
	doc.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	fmt.Fprintf(&doc, "<title>%s</title>\n", sanitize(c.Subject))
	doc.WriteString("<meta charset=\"utf-8\">\n</head>\n<body>\n")
	fmt.Fprintf(&doc, "<h1>%s</h1>\n", sanitize(c.Subject))
	doc.WriteString(body.String())
	doc.WriteString("</body>\n</html>\n")
	return doc.String()
}

func renderBlocks(w *strings.Builder, blocks []domain.ContentBlock) {
	for _, b := range blocks {
		switch {
		case b.Type == "list":
			w.WriteString("<ul>\n")
			for _, item := range b.Items {
				fmt.Fprintf(w, "<li>%s</li>\n", sanitize(item))
			}
			w.WriteString("</ul>\n")
		case b.Type == "quote":
			fmt.Fprintf(w, "<blockquote>%s</blockquote>\n", sanitize(b.Text))
		default:
			tag, ok := blockTags[b.Type]
			if !ok {
				continue
			}
			fmt.Fprintf(w, "<%s>%s</%s>\n", tag, sanitize(b.Text), tag)
		}
	}
}

// renderMarkdown does a minimal paragraph split. Full markdown is
// authored and previewed in the studio; the API only needs a readable
// fallback for campaigns stored as raw markdown.
func renderMarkdown(w *strings.Builder, md string) {
	for _, para := range strings.Split(md, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		fmt.Fprintf(w, "<p>%s</p>\n", sanitize(para))
	}
}

func sanitize(s string) string {
	return textPolicy.Sanitize(s)
}
