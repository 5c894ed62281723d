// Package generator drafts WeChat articles in Markdown with an LLM and
// revises them from reviewer comments.
package generator

import (
	"context"
	"errors"
	"fmt"
)

type Agent struct {
	llm LLMClient
}

func NewAgent(llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm}, nil
}

// Generate drafts from brief, or revises prev when it is non-nil.
func (a *Agent) Generate(ctx context.Context, brief Brief, prev *Draft, history []Turn, comment string) (Draft, error) {
	var prompt Prompt
	if prev == nil {
		prompt = BuildInitialPrompt(brief)
	} else {
		prompt = BuildRevisionPrompt(brief, *prev, comment, history)
	}

	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return Draft{}, fmt.Errorf("llm completion failed: %w", err)
	}
	return PostProcess(raw)
}
