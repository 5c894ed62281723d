package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/adrg/frontmatter"
)

// leadingH1 matches a top-level ATX heading at the very start of the document.
var leadingH1 = regexp.MustCompile(`^\s*#[ \t]+(.+?)[ \t]*(?:\r?\n|$)`)

// Document is a Markdown source split into its article metadata and body.
// An empty Title means the source carried none.
type Document struct {
	Title  string
	Author string
	Digest string
	Body   string
	// MetaErr is set when a leading "---" block could not be read as front
	// matter. The document is then parsed as plain Markdown.
	MetaErr error
}

type frontMatter struct {
	Title  string `yaml:"title" json:"title" toml:"title"`
	Author string `yaml:"author" json:"author" toml:"author"`
	Digest string `yaml:"digest" json:"digest" toml:"digest"`
}

// ExtractTitle pulls a leading "# heading" out of markdown. Only the start of
// the document is inspected; a heading after other content is left alone.
// When no title is found the body is returned unchanged.
func ExtractTitle(markdown string) (title, body string) {
	m := leadingH1.FindStringSubmatch(markdown)
	if m == nil {
		return "", markdown
	}
	title = strings.TrimSpace(m[1])
	if title == "" {
		return "", markdown
	}
	return title, strings.TrimSpace(markdown[len(m[0]):])
}

// ParseDocument strips an optional front matter block and then extracts the
// leading heading. The heading wins over a front matter title. A leading
// "---" block that is not valid front matter (a thematic break, a setext
// heading) leaves the source untouched and is reported in MetaErr.
func ParseDocument(markdown string) Document {
	var meta frontMatter
	rest, err := frontmatter.Parse(strings.NewReader(markdown), &meta)
	if err != nil {
		title, body := ExtractTitle(markdown)
		return Document{Title: title, Body: body, MetaErr: fmt.Errorf("parse front matter: %w", err)}
	}

	title, body := ExtractTitle(string(rest))
	if title == "" {
		title = strings.TrimSpace(meta.Title)
	}
	return Document{
		Title:  title,
		Author: strings.TrimSpace(meta.Author),
		Digest: strings.TrimSpace(meta.Digest),
		Body:   body,
	}
}
