package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"wechat_md_publisher/generator"
	"wechat_md_publisher/history"
	"wechat_md_publisher/publisher"
)

var markdownExts = map[string]bool{".md": true, ".markdown": true, ".txt": true}

func loadConfig() (publisher.Config, error) {
	return publisher.LoadConfig(rootFlags.config)
}

func newPublisher(cfg publisher.Config) (*publisher.Publisher, error) {
	return publisher.New(cfg, nil, rootFlags.verbose, log.Default())
}

func openHistory(ctx context.Context, cfg publisher.Config) (*history.Store, error) {
	return history.Open(ctx, cfg.History.Path)
}

// newAgent returns nil when no llm is configured.
func newAgent(cfg publisher.Config) (*generator.Agent, error) {
	if cfg.LLM == nil || cfg.LLM.Provider == "" {
		return nil, nil
	}
	llm, err := generator.NewLLM(&generator.LLMSettings{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	return generator.NewAgent(llm)
}

// readMarkdown loads a Markdown file and returns its content and the title
// derived from its file name.
func readMarkdown(path string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !markdownExts[ext] {
		return "", "", fmt.Errorf("unsupported file type %q: expected .md, .markdown or .txt", ext)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read markdown: %w", err)
	}
	return string(data), titleFromFilename(path), nil
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
