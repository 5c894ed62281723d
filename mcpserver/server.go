// Package mcpserver exposes the publisher as MCP tools so an agent can turn
// the Markdown it wrote into a WeChat draft.
package mcpserver

import (
	"context"
	"errors"
	"log"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"wechat_md_publisher/converter"
	"wechat_md_publisher/history"
	"wechat_md_publisher/publisher"
)

// Server wraps the MCP SDK server and the publisher behind its tools.
type Server struct {
	MCPServer *sdkmcp.Server

	pub     *publisher.Publisher
	history *history.Store
	logger  *log.Logger
}

// NewServer registers the publishing tools. hist may be nil.
func NewServer(pub *publisher.Publisher, hist *history.Store, version string, logger *log.Logger) (*Server, error) {
	if pub == nil {
		return nil, errors.New("publisher required")
	}
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "wechat-md-publisher", Version: version}, nil),
		pub:       pub,
		history:   hist,
		logger:    logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdin/stdout until ctx ends or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "publish_markdown",
		Description: "Convert Markdown to WeChat-styled HTML, upload its images to the WeChat CDN and save it as a draft. Returns the draft editor URL.",
	}, s.handlePublish)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "preview_markdown",
		Description: "Convert Markdown to the styled HTML that would be submitted, without uploading anything.",
	}, s.handlePreview)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "check_status",
		Description: "Report whether a WeChat MP login token is available.",
	}, s.handleStatus)
}

type publishInput struct {
	Markdown string `json:"markdown" jsonschema:"the article in Markdown"`
	Title    string `json:"title,omitempty" jsonschema:"title used when the Markdown has no H1 or front matter title"`
	Author   string `json:"author,omitempty" jsonschema:"author shown on the article"`
	Digest   string `json:"digest,omitempty" jsonschema:"summary shown in the share card"`
	Source   string `json:"source,omitempty" jsonschema:"label stored in the publish history, e.g. a file name"`
}

type publishOutput struct {
	Success  bool     `json:"success"`
	DraftURL string   `json:"draft_url,omitempty"`
	Title    string   `json:"title,omitempty"`
	Error    string   `json:"error,omitempty"`
	Progress []string `json:"progress"`
}

type previewInput struct {
	Markdown string `json:"markdown" jsonschema:"the article in Markdown"`
}

type previewOutput struct {
	Title     string               `json:"title"`
	HTML      string               `json:"html"`
	Footnotes []converter.Footnote `json:"footnotes,omitempty"`
}

type statusInput struct{}

type statusOutput struct {
	HasToken bool   `json:"has_token"`
	Source   string `json:"source"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) handlePublish(ctx context.Context, _ *sdkmcp.CallToolRequest, input publishInput) (*sdkmcp.CallToolResult, publishOutput, error) {
	if input.Markdown == "" {
		return nil, publishOutput{}, errors.New("markdown is required")
	}

	out := publishOutput{Progress: []string{}}
	res := s.pub.Publish(ctx, publisher.Input{
		Markdown:     input.Markdown,
		DefaultTitle: input.Title,
		Author:       input.Author,
		Digest:       input.Digest,
		Progress:     func(msg string) { out.Progress = append(out.Progress, msg) },
	})
	if s.history != nil {
		if _, err := s.history.Record(ctx, history.FromResult(res, input.Source, input.Markdown)); err != nil {
			s.logger.Printf("[WARN] failed to record history: %v", err)
		}
	}

	out.Success = res.Success
	out.DraftURL = res.DraftURL
	out.Title = res.Title
	out.Error = res.Error
	return nil, out, nil
}

func (s *Server) handlePreview(_ context.Context, _ *sdkmcp.CallToolRequest, input previewInput) (*sdkmcp.CallToolResult, previewOutput, error) {
	preview, err := s.pub.Preview(input.Markdown)
	if err != nil {
		return nil, previewOutput{}, err
	}
	return nil, previewOutput{Title: preview.Title, HTML: preview.HTML, Footnotes: preview.Footnotes}, nil
}

func (s *Server) handleStatus(ctx context.Context, _ *sdkmcp.CallToolRequest, _ statusInput) (*sdkmcp.CallToolResult, statusOutput, error) {
	st := s.pub.Status(ctx)
	return nil, statusOutput{HasToken: st.HasToken, Source: st.Source, Error: st.Error}, nil
}
