package generator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// scriptedLLM replies in order and records the prompts it received.
type scriptedLLM struct {
	mu      sync.Mutex
	replies []string
	prompts []Prompt
	err     error
}

func (s *scriptedLLM) Complete(_ context.Context, p Prompt) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, p)
	if s.err != nil {
		return "", s.err
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func TestPostProcess(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Draft
	}{
		{
			name: "title and digest",
			raw:  "# 标题\n\n第一段\n摘要。\n\n## 小节\n\n正文",
			want: Draft{Title: "标题", Digest: "第一段 摘要。", Markdown: "# 标题\n\n第一段\n摘要。\n\n## 小节\n\n正文"},
		},
		{
			name: "fenced reply unwrapped",
			raw:  "```markdown\n# T\n\nBody\n```",
			want: Draft{Title: "T", Digest: "Body", Markdown: "# T\n\nBody"},
		},
		{
			name: "no title",
			raw:  "## Sub\n\nText only",
			want: Draft{Digest: "Text only", Markdown: "## Sub\n\nText only"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := PostProcess(tt.raw)
			if err != nil {
				t.Fatalf("PostProcess: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("draft mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPostProcess_DigestTruncatedByRunes(t *testing.T) {
	t.Parallel()

	got, err := PostProcess("# T\n\n" + strings.Repeat("字", 200))
	if err != nil {
		t.Fatalf("PostProcess: %v", err)
	}
	if n := len([]rune(got.Digest)); n != digestLimit {
		t.Errorf("digest runes = %d, want %d", n, digestLimit)
	}
}

func TestPostProcess_Empty(t *testing.T) {
	t.Parallel()

	if _, err := PostProcess("  \n"); err == nil {
		t.Fatal("expected error for empty reply")
	}
}

func TestBuildInitialPrompt(t *testing.T) {
	t.Parallel()

	p := BuildInitialPrompt(Brief{
		Topic:       "Go 并发",
		Outline:     []string{"背景", "实践"},
		Tone:        "轻松",
		Audience:    "后端工程师",
		Words:       1500,
		Constraints: []string{"附带代码示例"},
	})
	for _, s := range []string{"1500", "轻松", "后端工程师", "附带代码示例", "1. 背景", "2. 实践", "一级标题"} {
		if !strings.Contains(p.System, s) {
			t.Errorf("system prompt missing %q:\n%s", s, p.System)
		}
	}
	if !strings.Contains(p.User, "Go 并发") {
		t.Errorf("user prompt missing topic: %s", p.User)
	}
}

func TestBuildRevisionPrompt(t *testing.T) {
	t.Parallel()

	history := []Turn{
		{Summary: "首稿"},
		{Comment: "加一个例子", Summary: "修订"},
	}
	p := BuildRevisionPrompt(Brief{Topic: "Go 并发"}, Draft{Markdown: "# 旧稿"}, "更短", history)
	if !strings.Contains(p.System, "Go 并发") {
		t.Errorf("system prompt missing topic:\n%s", p.System)
	}
	if !strings.Contains(p.User, "# 旧稿") || !strings.Contains(p.User, "更短") {
		t.Errorf("user prompt = %s", p.User)
	}
	if len(p.History) != 1 || p.History[0].Role != "user" || p.History[0].Content != "加一个例子" {
		t.Errorf("history = %+v", p.History)
	}
}

func TestSession_ProposeAndRevise(t *testing.T) {
	t.Parallel()

	llm := &scriptedLLM{replies: []string{
		"# 初稿\n\n摘要一。\n\n正文",
		"# 修订稿\n\n摘要二。\n\n正文",
	}}
	agent, err := NewAgent(llm)
	if err != nil {
		t.Fatal(err)
	}
	sess := NewSession("s1", Brief{Topic: "主题"}, agent)

	first, err := sess.Propose(context.Background())
	if err != nil {
		t.Fatalf("Propose: %v", err)
	}
	if first.Title != "初稿" || first.Digest != "摘要一。" {
		t.Errorf("first = %+v", first)
	}

	second, err := sess.Revise(context.Background(), "更口语化")
	if err != nil {
		t.Fatalf("Revise: %v", err)
	}
	if second.Title != "修订稿" {
		t.Errorf("second = %+v", second)
	}

	if len(llm.prompts) != 2 {
		t.Fatalf("prompts = %d", len(llm.prompts))
	}
	revision := llm.prompts[1]
	if !strings.Contains(revision.User, "# 初稿") || !strings.Contains(revision.User, "更口语化") {
		t.Errorf("revision prompt should carry the previous draft and comment:\n%s", revision.User)
	}

	draft, history := sess.Snapshot()
	if draft.Title != "修订稿" || len(history) != 2 {
		t.Fatalf("snapshot = %+v, %d turns", draft, len(history))
	}
	if history[0].Summary != "首稿" || history[1].Comment != "更口语化" {
		t.Errorf("history = %+v", history)
	}
}

func TestSession_ErrorKeepsDraft(t *testing.T) {
	t.Parallel()

	llm := &scriptedLLM{replies: []string{"# A\n\nbody"}}
	agent, _ := NewAgent(llm)
	sess := NewSession("s2", Brief{Topic: "t"}, agent)
	if _, err := sess.Propose(context.Background()); err != nil {
		t.Fatal(err)
	}

	llm.err = errors.New("rate limited")
	if _, err := sess.Revise(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
	draft, history := sess.Snapshot()
	if draft.Title != "A" || len(history) != 1 {
		t.Errorf("failed revision changed the session: %+v, %d turns", draft, len(history))
	}
}

func TestNewLLM(t *testing.T) {
	t.Parallel()

	if _, err := NewLLM(nil); err == nil {
		t.Error("nil settings should fail")
	}
	if _, err := NewLLM(&LLMSettings{Provider: "deepseek", Model: "m", APIKey: "k"}); err == nil {
		t.Error("deepseek without base_url should fail")
	}
	if _, err := NewLLM(&LLMSettings{Provider: "openai", Model: "m"}); err == nil {
		t.Error("openai without key should fail")
	}
	if _, err := NewLLM(&LLMSettings{Provider: "claude"}); err == nil {
		t.Error("unknown provider should fail")
	}
	llm, err := NewLLM(&LLMSettings{Provider: "openai", Model: "gpt-4o-mini", APIKey: "k"})
	if err != nil {
		t.Fatalf("openai: %v", err)
	}
	if _, ok := llm.(*OpenAILLM); !ok {
		t.Errorf("openai provider built %T", llm)
	}

	mock, err := NewLLM(&LLMSettings{Provider: "mock"})
	if err != nil {
		t.Fatal(err)
	}
	agent, _ := NewAgent(mock)
	draft, err := agent.Generate(context.Background(), Brief{Topic: "测试"}, nil, nil, "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if draft.Title != "自动生成示例标题" || !strings.Contains(draft.Markdown, "测试") {
		t.Errorf("mock draft = %+v", draft)
	}
}
