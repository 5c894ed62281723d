package converter

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	// PlatformHost is the WeChat domain whose links render natively.
	PlatformHost = "mp.weixin.qq.com"
	// DefaultFootnoteHeading titles the trailing reference section.
	DefaultFootnoteHeading = "参考链接："

	footnoteRefStyle     = "color: #0366d6; font-size: 0.8em;"
	footnoteSectionStyle = "font-size: 14px; color: #666; line-height: 1.8;"
)

// Footnote is one external link collected from the article.
type Footnote struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// Footnoter rewrites external links into numbered references, since the
// WeChat editor strips <a> tags pointing off-platform.
type Footnoter struct {
	PlatformHost string
	Heading      string
}

// FootnoteLinks applies a Footnoter with the default settings.
func FootnoteLinks(fragment string) (string, []Footnote, error) {
	return Footnoter{}.Apply(fragment)
}

// Apply rewrites fragment and returns the collected footnotes in index order.
// When no link qualifies the fragment is returned as given.
func (f Footnoter) Apply(fragment string) (string, []Footnote, error) {
	root, err := ParseFragment(fragment)
	if err != nil {
		return "", nil, err
	}
	notes := f.footnote(root)
	if len(notes) == 0 {
		return fragment, nil, nil
	}
	out, err := RenderFragment(root)
	if err != nil {
		return "", nil, err
	}
	return out, notes, nil
}

func (f Footnoter) footnote(root *html.Node) []Footnote {
	host := f.PlatformHost
	if host == "" {
		host = PlatformHost
	}

	var notes []Footnote
	index := map[string]int{}
	for _, a := range collect(root, atom.A) {
		href, ok := Attr(a, "href")
		if !ok || href == "" {
			continue
		}
		if strings.HasPrefix(href, "#") || strings.Contains(href, host) {
			continue
		}

		n, seen := index[href]
		if !seen {
			notes = append(notes, Footnote{URL: href, Label: textContent(a)})
			n = len(notes)
			index[href] = n
		}

		ref := newElement(atom.Sup, footnoteRefStyle)
		ref.AppendChild(newText("[" + strconv.Itoa(n) + "]"))
		a.Parent.InsertBefore(ref, a.NextSibling)
		unwrap(a)
	}

	if len(notes) > 0 {
		f.appendSection(root, notes)
	}
	return notes
}

func (f Footnoter) appendSection(root *html.Node, notes []Footnote) {
	heading := f.Heading
	if heading == "" {
		heading = DefaultFootnoteHeading
	}

	root.AppendChild(newText("\n"))
	root.AppendChild(newElement(atom.Hr, ""))
	root.AppendChild(newText("\n"))

	section := newElement(atom.Section, footnoteSectionStyle)
	title := newElement(atom.P, "")
	strong := newElement(atom.Strong, "")
	strong.AppendChild(newText(heading))
	title.AppendChild(strong)
	section.AppendChild(title)

	for i, note := range notes {
		p := newElement(atom.P, "")
		sup := newElement(atom.Sup, "")
		sup.AppendChild(newText("[" + strconv.Itoa(i+1) + "]"))
		p.AppendChild(sup)
		p.AppendChild(newText(" " + note.Label + ": " + note.URL))
		section.AppendChild(newText("\n"))
		section.AppendChild(p)
	}
	section.AppendChild(newText("\n"))
	root.AppendChild(section)
}
