package generator

import (
	"context"
	"strings"
)

// MockLLM 不调用外部模型，把提示词拼成一篇结构完整的 Markdown，供本地调试和测试。
type MockLLM struct{}

func (MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	var sb strings.Builder
	sb.WriteString("# 自动生成示例标题\n\n")
	sb.WriteString("这里是一段自动生成的摘要，概述全文要点。\n\n")
	sb.WriteString("## 正文\n\n")
	for _, line := range strings.Split(strings.TrimSpace(prompt.User), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			sb.WriteString("- " + line + "\n")
		}
	}
	sb.WriteString("\n参考 [微信公众平台](https://mp.weixin.qq.com/)。\n")
	return sb.String(), nil
}
