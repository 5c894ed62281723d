// Package converter turns Markdown into HTML the WeChat Official Account
// editor accepts: lists flattened, external links footnoted, every element
// carrying its own inline style.
package converter

// Options configures a Converter. The zero value renders without code
// highlighting or sanitizing, with the default platform host and heading.
type Options struct {
	CodeTheme       string
	Sanitize        bool
	PlatformHost    string
	FootnoteHeading string
}

// Converter runs the Markdown -> styled HTML stages.
type Converter struct {
	renderer  *Renderer
	footnoter Footnoter
}

// New builds a Converter.
func New(opts Options) *Converter {
	return &Converter{
		renderer: NewRenderer(opts.CodeTheme, opts.Sanitize),
		footnoter: Footnoter{
			PlatformHost: opts.PlatformHost,
			Heading:      opts.FootnoteHeading,
		},
	}
}

// ToHTML renders markdown, cleans up list markup and footnotes external
// links. The fragment is parsed once for both tree passes.
func (c *Converter) ToHTML(markdown string) (string, []Footnote, error) {
	raw, err := c.renderer.Render(markdown)
	if err != nil {
		return "", nil, err
	}
	root, err := ParseFragment(raw)
	if err != nil {
		return "", nil, err
	}
	normalizeLists(root)
	notes := c.footnoter.footnote(root)
	out, err := RenderFragment(root)
	if err != nil {
		return "", nil, err
	}
	return out, notes, nil
}

// Style inlines the editor styles into an HTML fragment.
func (c *Converter) Style(fragment string) (string, error) {
	return InlineStyles(fragment)
}

// Convert runs every stage and returns the styled fragment.
func (c *Converter) Convert(markdown string) (string, error) {
	out, _, err := c.ToHTML(markdown)
	if err != nil {
		return "", err
	}
	return c.Style(out)
}
