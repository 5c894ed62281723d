package converter

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	wrapperStyle       = `margin-left: 6px; margin-right: 6px; line-height: 1.75em; font-size: 16px; color: #3f3f3f; font-family: -apple-system-font, BlinkMacSystemFont, "Helvetica Neue", "PingFang SC", "Hiragino Sans GB", "Microsoft YaHei UI", "Microsoft YaHei", Arial, sans-serif;`
	listStyle          = "margin: 10px 0; padding-left: 0;"
	nestedListStyle    = "margin: 5px 0; padding-left: 1.5em;"
	listItemStyle      = "margin: 5px 0; line-height: 1.75; color: #3f3f3f; padding-left: 1.5em; text-indent: -1.5em;"
	listContinuedStyle = "margin: 5px 0; line-height: 1.75; color: #3f3f3f; padding-left: 1.5em;"
	preCodeStyle       = `font-family: "SFMono-Regular", Consolas, "Liberation Mono", Menlo, Courier, monospace; font-size: 14px; color: #24292e;`
	inlineCodeStyle    = `background: #f6f8fa; padding: 2px 5px; border-radius: 3px; font-family: "SFMono-Regular", Consolas, monospace; color: #e83e8c; font-size: 0.9em;`

	bullet = "• "
)

// tagStyles is the fixed inline style per element. <code> is handled apart
// because its style depends on the parent.
var tagStyles = map[atom.Atom]string{
	atom.H1:         "font-size: 2em; margin: 25px 0 15px; padding: 0; font-weight: bold; color: #2c3e50; line-height: 1.4; text-align: center;",
	atom.H2:         "font-size: 1.6em; margin: 20px 0 12px; padding: 0; font-weight: bold; color: #34495e; line-height: 1.4;",
	atom.H3:         "font-size: 1.3em; margin: 15px 0 10px; padding: 0; font-weight: bold; color: #34495e; line-height: 1.4;",
	atom.H4:         "font-size: 1.15em; margin: 12px 0 8px; padding: 0; font-weight: bold; color: #34495e; line-height: 1.4;",
	atom.H5:         "font-size: 1em; margin: 10px 0 6px; padding: 0; font-weight: bold; color: #34495e; line-height: 1.4;",
	atom.H6:         "font-size: 0.95em; margin: 10px 0 6px; padding: 0; font-weight: bold; color: #6a737d; line-height: 1.4;",
	atom.Hr:         "border: none; border-top: 2px solid #eee; margin: 30px 0; height: 0;",
	atom.P:          "margin: 10px 0; line-height: 1.75; color: #3f3f3f;",
	atom.Pre:        "background: #f6f8fa; padding: 15px; border-radius: 5px; overflow-x: auto; margin: 10px 0; line-height: 1.5;",
	atom.Blockquote: "border-left: 4px solid #dfe2e5; padding-left: 15px; margin: 10px 0; color: #6a737d; font-style: italic;",
	atom.Table:      "border-collapse: collapse; width: 100%; margin: 10px 0;",
	atom.Th:         "border: 1px solid #dfe2e5; padding: 8px 12px; text-align: left; background: #f6f8fa; font-weight: bold;",
	atom.Td:         "border: 1px solid #dfe2e5; padding: 8px 12px; text-align: left;",
	atom.A:          "color: #0366d6; text-decoration: none;",
	atom.Img:        "max-width: 100%; height: auto; display: block; margin: 10px auto;",
	atom.Strong:     "font-weight: bold; color: #2c3e50;",
	atom.Em:         "font-style: italic; color: #555;",
}

// InlineStyles writes the editor's inline styles onto every element, turns
// lists into bullet paragraphs and wraps the result in a single <section>.
func InlineStyles(fragment string) (string, error) {
	return transformString(fragment, inlineStyles)
}

func inlineStyles(root *html.Node) {
	applyTagStyles(root)
	convertLists(root, false)

	wrapper := newElement(atom.Section, wrapperStyle)
	moveChildren(wrapper, root)
	root.AppendChild(wrapper)
}

func applyTagStyles(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		if c.DataAtom == atom.Code {
			// a <code> is styled once, by whichever rule its parent selects
			if isElement(c.Parent, atom.Pre) {
				SetAttr(c, "style", preCodeStyle)
			} else {
				SetAttr(c, "style", inlineCodeStyle)
			}
		} else if style, ok := tagStyles[c.DataAtom]; ok {
			SetAttr(c, "style", style)
		}
		applyTagStyles(c)
	}
}

// convertLists replaces every <ul>/<ol> below n with a <section> of
// paragraphs. Children are converted first so nested lists end up as nested
// sections.
func convertLists(n *html.Node, nested bool) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if isElement(c, atom.Ul) || isElement(c, atom.Ol) {
			for _, li := range childElements(c, atom.Li) {
				convertLists(li, true)
			}
			n.InsertBefore(listSection(c, nested), c)
			n.RemoveChild(c)
		} else {
			convertLists(c, nested)
		}
		c = next
	}
}

func listSection(list *html.Node, nested bool) *html.Node {
	style := listStyle
	if nested {
		style = nestedListStyle
	}
	section := newElement(atom.Section, style)

	ordinal := 1
	if start, ok := Attr(list, "start"); ok {
		if v, err := strconv.Atoi(start); err == nil {
			ordinal = v
		}
	}

	for _, li := range childElements(list, atom.Li) {
		marker := bullet
		if list.DataAtom == atom.Ol {
			marker = strconv.Itoa(ordinal) + ". "
			ordinal++
		}
		if box := taskCheckbox(li); box != nil {
			marker = "☐ "
			if _, checked := Attr(box, "checked"); checked {
				marker = "☑ "
			}
			li.RemoveChild(box)
			if t := li.FirstChild; t != nil && t.Type == html.TextNode {
				t.Data = strings.TrimLeft(t.Data, " ")
			}
		}
		appendItem(section, li, marker)
	}
	return section
}

// appendItem emits li as a marker paragraph. Inline content goes into the
// paragraph; block content (extra paragraphs, nested sections, code) follows
// it so the output never nests blocks inside <p>.
func appendItem(section, li *html.Node, marker string) {
	var current *html.Node
	first := true
	open := func() *html.Node {
		if current == nil {
			if first {
				current = newElement(atom.P, listItemStyle)
				current.AppendChild(newText(marker))
				first = false
			} else {
				current = newElement(atom.P, listContinuedStyle)
			}
			section.AppendChild(current)
		}
		return current
	}

	for c := li.FirstChild; c != nil; c = li.FirstChild {
		li.RemoveChild(c)
		switch {
		case isElement(c, atom.P):
			p := open()
			moveChildren(p, c)
			current = nil
		case isBlock(c):
			if first {
				open()
			}
			current = nil
			section.AppendChild(c)
		case isBlank(c) && current == nil:
			// whitespace between blocks
		default:
			open().AppendChild(c)
		}
	}
	if first {
		open()
	}
}

func taskCheckbox(li *html.Node) *html.Node {
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if isBlank(c) {
			continue
		}
		if isElement(c, atom.Input) {
			if t, _ := Attr(c, "type"); t == "checkbox" {
				return c
			}
		}
		return nil
	}
	return nil
}

func isBlock(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.DataAtom {
	case atom.Section, atom.Div, atom.Pre, atom.Blockquote, atom.Table, atom.Hr,
		atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Ul, atom.Ol:
		return true
	}
	return false
}

func childElements(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, a) {
			out = append(out, c)
		}
	}
	return out
}
