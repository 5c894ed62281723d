package publisher

import "wechat_md_publisher/converter"

// Preview is the styled article as it would be submitted, before images are
// uploaded.
type Preview struct {
	Title     string               `json:"title"`
	HTML      string               `json:"html"`
	Footnotes []converter.Footnote `json:"footnotes,omitempty"`
}

// Preview converts markdown without touching the network.
func (p *Publisher) Preview(markdown string) (Preview, error) {
	doc := converter.ParseDocument(markdown)
	if doc.MetaErr != nil {
		p.logger.Printf("[WARN] front matter ignored: %v", doc.MetaErr)
	}
	body, notes, err := p.conv.ToHTML(doc.Body)
	if err != nil {
		return Preview{}, renderError(err)
	}
	styled, err := p.conv.Style(body)
	if err != nil {
		return Preview{}, renderError(err)
	}
	return Preview{Title: doc.Title, HTML: styled, Footnotes: notes}, nil
}
