package mcpserver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"wechat_md_publisher/history"
	"wechat_md_publisher/hostpage"
	"wechat_md_publisher/mcpserver"
	"wechat_md_publisher/publisher"
)

func newTestServer(t *testing.T, cookie string, hist *history.Store) *mcpserver.Server {
	t.Helper()
	platform := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/cgi-bin/operate_appmsg" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"appMsgId":"7","base_resp":{"ret":0}}`)
	}))
	t.Cleanup(platform.Close)

	cfg := publisher.Config{
		BaseURL: platform.URL,
		Browser: hostpage.Options{Driver: hostpage.DriverStatic, Cookie: cookie},
	}
	logger := log.New(io.Discard, "", 0)
	pub, err := publisher.New(cfg, platform.Client(), false, logger)
	if err != nil {
		t.Fatalf("publisher.New: %v", err)
	}
	srv, err := mcpserver.NewServer(pub, hist, "test", logger)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return srv
}

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	if _, err := srv.MCPServer.Connect(ctx, t1, nil); err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if res.IsError {
		t.Fatalf("CallTool(%s) returned error: %s", name, textOf(res))
	}
	result := make(map[string]any)
	if err := json.Unmarshal([]byte(textOf(res)), &result); err != nil {
		t.Fatalf("unmarshal tool result: %v", err)
	}
	return result
}

func textOf(res *sdkmcp.CallToolResult) string {
	for _, c := range res.Content {
		if tc, ok := c.(*sdkmcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestServer_ToolDiscovery(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t, "token=abc", nil))

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	expected := map[string]bool{"publish_markdown": false, "preview_markdown": false, "check_status": false}
	for _, tool := range tools.Tools {
		if _, ok := expected[tool.Name]; ok {
			expected[tool.Name] = true
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("expected tool %q not found", name)
		}
	}
}

func TestServer_PublishMarkdown(t *testing.T) {
	ctx := context.Background()
	hist, err := history.Open(ctx, "file:mcp_publish?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("history.Open: %v", err)
	}
	defer hist.Close()
	session := connectInMemory(t, ctx, newTestServer(t, "token=abc", hist))

	out := callTool(t, ctx, session, "publish_markdown", map[string]any{
		"markdown": "# Agent Post\n\ntext",
		"source":   "agent",
	})
	if out["success"] != true {
		t.Fatalf("publish failed: %v", out)
	}
	if url, _ := out["draft_url"].(string); !strings.Contains(url, "appmsgid=7") || !strings.Contains(url, "token=abc") {
		t.Errorf("draft_url = %v", out["draft_url"])
	}
	if out["title"] != "Agent Post" {
		t.Errorf("title = %v", out["title"])
	}
	progress, _ := out["progress"].([]any)
	if len(progress) == 0 || progress[len(progress)-1] != "发布成功！" {
		t.Errorf("progress = %v", progress)
	}

	last, err := hist.Last(ctx)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if last.Title != "Agent Post" || last.Source != "agent" || !last.Success {
		t.Errorf("history entry = %+v", last)
	}
}

func TestServer_PublishWithoutTokenReportsFailure(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t, "slave_sid=x", nil))

	out := callTool(t, ctx, session, "publish_markdown", map[string]any{"markdown": "body"})
	if out["success"] != false {
		t.Fatalf("expected failure, got %v", out)
	}
	if msg, _ := out["error"].(string); !strings.Contains(msg, "auth token") {
		t.Errorf("error = %v", out["error"])
	}
}

func TestServer_PublishRequiresMarkdown(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t, "token=abc", nil))

	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      "publish_markdown",
		Arguments: map[string]any{"markdown": ""},
	})
	if err == nil && !res.IsError {
		t.Fatal("expected an error for empty markdown")
	}
}

func TestServer_PreviewAndStatus(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, newTestServer(t, "token=abc", nil))

	preview := callTool(t, ctx, session, "preview_markdown", map[string]any{
		"markdown": "# Look\n\n1. one\n2. two",
	})
	if preview["title"] != "Look" {
		t.Errorf("title = %v", preview["title"])
	}
	if html, _ := preview["html"].(string); !strings.Contains(html, "1. one") || !strings.Contains(html, "2. two") {
		t.Errorf("html = %v", preview["html"])
	}

	status := callTool(t, ctx, session, "check_status", map[string]any{})
	if status["has_token"] != true || status["source"] != hostpage.DriverStatic {
		t.Errorf("status = %v", status)
	}
}
