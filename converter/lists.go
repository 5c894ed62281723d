package converter

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var newlineRun = regexp.MustCompile(`[ \t]*\n\s*`)

// NormalizeLists removes the paragraph wrappers and stray line breaks the
// renderer leaves inside list items, which the WeChat editor turns into
// extra spacing. Applying it twice gives the same output as applying it once.
func NormalizeLists(fragment string) (string, error) {
	return transformString(fragment, normalizeLists)
}

func normalizeLists(root *html.Node) {
	for _, li := range collect(root, atom.Li) {
		unwrapSoleParagraph(li)
		if onlyLineBreaks(li) {
			li.Parent.RemoveChild(li)
			continue
		}
		trimLineBreaks(li)
		collapseNewlines(li)
	}
}

// unwrapSoleParagraph turns <li><p>X</p></li> into <li>X</li>.
func unwrapSoleParagraph(li *html.Node) {
	var para *html.Node
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		switch {
		case isBlank(c):
		case isElement(c, atom.P) && para == nil:
			para = c
		default:
			return
		}
	}
	if para != nil {
		unwrap(para)
	}
}

func onlyLineBreaks(li *html.Node) bool {
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if !isBlank(c) && !isElement(c, atom.Br) {
			return false
		}
	}
	return true
}

func trimLineBreaks(li *html.Node) {
	for c := li.FirstChild; c != nil && (isBlank(c) || isElement(c, atom.Br)); c = li.FirstChild {
		li.RemoveChild(c)
	}
	for c := li.LastChild; c != nil && (isBlank(c) || isElement(c, atom.Br)); c = li.LastChild {
		li.RemoveChild(c)
	}
}

func collapseNewlines(li *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			switch {
			case c.Type == html.TextNode:
				c.Data = newlineRun.ReplaceAllString(c.Data, " ")
			case isElement(c, atom.Pre):
				// preformatted text keeps its line structure
			default:
				walk(c)
			}
		}
	}
	walk(li)

	if first := li.FirstChild; first != nil && first.Type == html.TextNode {
		first.Data = strings.TrimLeft(first.Data, " \t\r\n")
	}
	if last := li.LastChild; last != nil && last.Type == html.TextNode {
		last.Data = strings.TrimRight(last.Data, " \t\r\n")
	}
}
