package converter

import (
	"bytes"
	"errors"
	"fmt"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ErrRender indicates the Markdown engine could not produce HTML.
var ErrRender = errors.New("markdown render failed")

// Renderer converts Markdown into an HTML fragment with the fixed engine
// configuration the WeChat editor expects.
type Renderer struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewRenderer builds the goldmark engine. codeTheme selects a chroma style for
// fenced code (empty disables highlighting); sanitize runs the output through
// a bluemonday UGC policy.
func NewRenderer(codeTheme string, sanitize bool) *Renderer {
	extensions := []goldmark.Extender{
		extension.GFM, // tables, strikethrough, linkify, task lists
	}
	if codeTheme != "" {
		extensions = append(extensions, highlighting.NewHighlighting(
			highlighting.WithStyle(codeTheme),
			highlighting.WithFormatOptions(
				chromahtml.WithClasses(false), // the editor drops class attributes
			),
		))
	}

	// No parser.WithAutoHeadingID: headings stay id-free.
	md := goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithUnsafe(),
		),
	)

	r := &Renderer{md: md}
	if sanitize {
		r.sanitizer = newSanitizer()
	}
	return r
}

// Render converts markdown to an HTML fragment.
func (r *Renderer) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRender, err)
	}
	if r.sanitizer == nil {
		return buf.String(), nil
	}
	return string(r.sanitizer.SanitizeBytes(buf.Bytes())), nil
}

func newSanitizer() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(false)
	p.AllowDataURIImages()
	p.AllowAttrs("type", "checked", "disabled").OnElements("input")
	// chroma emits inline styles when classes are off
	p.AllowAttrs("style").OnElements("pre", "span")
	p.AllowAttrs("tabindex").OnElements("pre")
	return p
}
