package campaign

import (
	"strings"
	"testing"

	"github.com/voicehouse/outreach/internal/domain"
)

func renderBlocksCampaign(blocks ...domain.ContentBlock) *domain.Campaign {
	return &domain.Campaign{
		Subject: "Casting call",
		Content: domain.CampaignContent{Type: domain.ContentBlocks, Blocks: blocks},
	}
}

func TestRenderHTMLBlocks(t *testing.T) {
	html := RenderHTML(renderBlocksCampaign(
		domain.ContentBlock{Type: "h2", Text: "This week"},
		domain.ContentBlock{Type: "paragraph", Text: "Three new commercial reads."},
		domain.ContentBlock{Type: "list", Items: []string{"Radio spot", "Audiobook"}},
		domain.ContentBlock{Type: "quote", Text: "Best session all year."},
	))

	for _, want := range []string{
		"<title>Casting call</title>",
		"<h1>Casting call</h1>",
		"<h2>This week</h2>",
		"<p>Three new commercial reads.</p>",
		"<li>Radio spot</li>",
		"<li>Audiobook</li>",
		"<blockquote>Best session all year.</blockquote>",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("rendered HTML missing %q:\n%s", want, html)
		}
	}
}

func TestRenderHTMLSkipsUnknownBlocks(t *testing.T) {
	html := RenderHTML(renderBlocksCampaign(
		domain.ContentBlock{Type: "script", Text: "alert(1)"},
		domain.ContentBlock{Type: "h9", Text: "not a heading"},
		domain.ContentBlock{Type: "paragraph", Text: "kept"},
	))

	if strings.Contains(html, "alert(1)") || strings.Contains(html, "not a heading") {
		t.Fatalf("unknown block content leaked into output:\n%s", html)
	}
	if !strings.Contains(html, "<p>kept</p>") {
		t.Fatalf("allowed block dropped:\n%s", html)
	}
}

func TestRenderHTMLSanitizesText(t *testing.T) {
	html := RenderHTML(renderBlocksCampaign(
		domain.ContentBlock{Type: "paragraph", Text: `<img src=x onerror=alert(1)>Hello`},
		domain.ContentBlock{Type: "list", Items: []string{`<script>steal()</script>item`}},
	))

	for _, forbidden := range []string{"<img", "onerror", "<script"} {
		if strings.Contains(html, forbidden) {
			t.Fatalf("sanitizer let %q through:\n%s", forbidden, html)
		}
	}
	if !strings.Contains(html, "Hello") || !strings.Contains(html, "item") {
		t.Fatalf("sanitizer stripped legitimate text:\n%s", html)
	}
}

func TestRenderHTMLSanitizesSubject(t *testing.T) {
	c := renderBlocksCampaign()
	c.Subject = `<b onmouseover=x>Hi</b>`
	html := RenderHTML(c)
	if strings.Contains(html, "onmouseover") || strings.Contains(html, "<b ") {
		t.Fatalf("subject markup leaked:\n%s", html)
	}
	if !strings.Contains(html, "Hi") {
		t.Fatalf("subject text lost:\n%s", html)
	}
}

func TestRenderHTMLMarkdown(t *testing.T) {
	c := &domain.Campaign{
		Subject: "Notes",
		Content: domain.CampaignContent{
			Type:     domain.ContentMarkdown,
			Markdown: "First paragraph.\n\nSecond paragraph.\n\n",
		},
	}
	html := RenderHTML(c)
	if !strings.Contains(html, "<p>First paragraph.</p>") || !strings.Contains(html, "<p>Second paragraph.</p>") {
		t.Fatalf("markdown paragraphs missing:\n%s", html)
	}
}
