package generator

import (
	"context"
	"sync"
	"time"
)

// Session 持有一个主题的多轮生成/修订上下文。方法可并发调用，同一时刻只有一个请求在生成。
type Session struct {
	ID    string
	Brief Brief

	mu      sync.Mutex
	draft   Draft
	history []Turn
	agent   *Agent
}

// NewSession 创建 session，尚未生成稿件。
func NewSession(id string, brief Brief, agent *Agent) *Session {
	return &Session{ID: id, Brief: brief, agent: agent}
}

// Propose 生成首稿。
func (s *Session) Propose(ctx context.Context) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	draft, err := s.agent.Generate(ctx, s.Brief, nil, s.history, "")
	if err != nil {
		return Draft{}, err
	}
	s.draft = draft
	s.appendTurn("", draft, "首稿")
	return draft, nil
}

// Revise 基于评论修订当前稿件。
func (s *Session) Revise(ctx context.Context, comment string) (Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.draft
	draft, err := s.agent.Generate(ctx, s.Brief, &prev, s.history, comment)
	if err != nil {
		return Draft{}, err
	}
	s.draft = draft
	s.appendTurn(comment, draft, "修订")
	return draft, nil
}

// Snapshot 返回当前稿件和历史的副本。
func (s *Session) Snapshot() (Draft, []Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft, append([]Turn(nil), s.history...)
}

func (s *Session) appendTurn(comment string, draft Draft, summary string) {
	s.history = append(s.history, Turn{
		Comment:   comment,
		Draft:     draft,
		Summary:   summary,
		CreatedAt: time.Now(),
	})
}
