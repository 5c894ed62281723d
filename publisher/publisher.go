// Package publisher converts Markdown for the WeChat Official Account editor,
// moves its images to the WeChat CDN and saves the article as a draft through
// the editor's own endpoints.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"wechat_md_publisher/converter"
	"wechat_md_publisher/hostpage"
)

// DefaultTitle is used when neither the Markdown nor the caller name the article.
const DefaultTitle = "未命名"

// Input is one article to publish.
type Input struct {
	Markdown     string
	DefaultTitle string
	Author       string
	Digest       string
	// BaseDir resolves relative local image paths.
	BaseDir string
	// Progress receives a human-readable line at each stage.
	Progress func(string)
}

// Result is the outcome of Publish.
type Result struct {
	Success  bool   `json:"success"`
	DraftURL string `json:"draftUrl,omitempty"`
	Error    string `json:"error,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Status reports whether a token can be read from the host page.
type Status struct {
	HasToken bool   `json:"hasToken"`
	Source   string `json:"source"`
	Error    string `json:"error,omitempty"`
}

// Publisher runs the publish pipeline against one host page.
type Publisher struct {
	cfg     Config
	page    hostpage.Page
	client  *http.Client
	conv    *converter.Converter
	verbose bool
	logger  *log.Logger
	now     func() time.Time
}

// New opens the host page named by cfg.Browser and creates a Publisher.
func New(cfg Config, client *http.Client, verbose bool, logger *log.Logger) (*Publisher, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	page, err := hostpage.Open(cfg.Browser)
	if err != nil {
		return nil, err
	}
	return NewWithPage(cfg, page, client, verbose, logger), nil
}

// NewWithPage creates a Publisher reading credentials from page.
func NewWithPage(cfg Config, page hostpage.Page, client *http.Client, verbose bool, logger *log.Logger) *Publisher {
	cfg.ApplyDefaults()
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout()}
	}
	if logger == nil {
		logger = log.Default()
	}
	conv := converter.New(converter.Options{
		CodeTheme:       cfg.Render.CodeTheme,
		Sanitize:        cfg.Render.SanitizeEnabled(),
		PlatformHost:    cfg.PlatformHost,
		FootnoteHeading: cfg.Render.FootnoteHeading,
	})
	return &Publisher{
		cfg:     cfg,
		page:    page,
		client:  client,
		conv:    conv,
		verbose: verbose,
		logger:  logger,
		now:     time.Now,
	}
}

func (p *Publisher) infof(format string, args ...interface{}) {
	if !p.verbose {
		return
	}
	p.logger.Printf("[INFO] "+format, args...)
}

func (p *Publisher) progress(in Input, msg string) {
	p.infof("%s", msg)
	if in.Progress != nil {
		in.Progress(msg)
	}
}

// Converter exposes the configured Markdown converter for previews.
func (p *Publisher) Converter() *converter.Converter {
	return p.conv
}

// Publish runs the whole pipeline and never returns an error: failures are
// reported in Result.Error.
func (p *Publisher) Publish(ctx context.Context, in Input) Result {
	draftURL, title, err := p.publish(ctx, in)
	if err != nil {
		msg := err.Error()
		var rej *RejectionError
		if errors.As(err, &rej) {
			msg = rej.Message
		}
		p.progress(in, "发布失败: "+msg)
		return Result{Success: false, Error: msg, Title: title}
	}
	return Result{Success: true, DraftURL: draftURL, Title: title}
}

// PublishDraft runs the pipeline and returns the draft editor URL.
func (p *Publisher) PublishDraft(ctx context.Context, in Input) (string, error) {
	draftURL, _, err := p.publish(ctx, in)
	return draftURL, err
}

func (p *Publisher) publish(ctx context.Context, in Input) (string, string, error) {
	doc := converter.ParseDocument(in.Markdown)
	if doc.MetaErr != nil {
		p.logger.Printf("[WARN] front matter ignored: %v", doc.MetaErr)
	}

	title := doc.Title
	if title != "" {
		p.progress(in, fmt.Sprintf("使用标题: %s", title))
	} else if title = in.DefaultTitle; title == "" {
		title = DefaultTitle
	}
	author := in.Author
	if author == "" {
		author = doc.Author
	}
	digest := in.Digest
	if digest == "" {
		digest = doc.Digest
	}

	p.progress(in, "转换 Markdown...")
	body, notes, err := p.conv.ToHTML(doc.Body)
	if err != nil {
		return "", title, renderError(err)
	}
	p.infof("Collected %d footnotes", len(notes))

	p.progress(in, "处理样式...")
	content, err := p.conv.Style(body)
	if err != nil {
		return "", title, renderError(err)
	}

	sess, err := NewSession(p.page, p.client, p.cfg.BaseURL)
	if err != nil {
		return "", title, err
	}
	content, err = p.replaceImages(ctx, sess, content, in)
	if err != nil {
		return "", title, err
	}

	p.progress(in, "正在提交到微信...")
	draftURL, err := p.submit(ctx, sess, article{
		Title:   title,
		Author:  author,
		Digest:  digest,
		Content: content,
	})
	if err != nil {
		return "", title, err
	}
	p.progress(in, "发布成功！")
	p.infof("Draft created: %s", draftURL)
	return draftURL, title, nil
}

// Status checks whether the host page currently yields a token.
func (p *Publisher) Status(ctx context.Context) Status {
	st := Status{Source: p.cfg.Browser.Driver}
	if _, err := hostpage.FindToken(ctx, p.page); err != nil {
		st.Error = err.Error()
		return st
	}
	st.HasToken = true
	return st
}

func isAuthError(err error) bool {
	return errors.Is(err, ErrAuth)
}
