// Package render turns newsletter markdown into displayable HTML.
package render

import (
	stdhtml "html"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Func converts markdown to sanitized HTML. Presenters take one as a
// dependency so tests can swap it.
type Func func(md string) string

const extensions = parser.CommonExtensions | parser.AutoHeadingIDs | parser.NoEmptyLineBeforeBlock

const htmlFlags = html.CommonFlags |
	html.SkipHTML |
	html.Safelink |
	html.NofollowLinks |
	html.NoreferrerLinks |
	html.NoopenerLinks |
	html.HrefTargetBlank

// Markdown is the default Func. Raw HTML in the source is dropped and only
// safe link schemes are rendered as anchors.
func Markdown(md string) string {
	p := parser.NewWithExtensions(extensions)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: htmlFlags})
	return string(markdown.Render(doc, renderer))
}

// Document wraps rendered content in a minimal standalone HTML page.
func Document(title, body string) string {
	return "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>" +
		stdhtml.EscapeString(title) +
		"</title>\n</head>\n<body>\n" + body + "</body>\n</html>\n"
}
