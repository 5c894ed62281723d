package generator

import (
	"fmt"
	"strings"
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System  string
	User    string
	History []Message
}

type Message struct {
	Role    string
	Content string
}

// 公众号编辑器的限制，发布流程会据此处理稿件。
const platformRules = "- 标题不超过 64 字。\n" +
	"- 外部链接会被转换为文末脚注，请使用 [文字](链接) 形式，不要裸贴网址。\n" +
	"- 图片使用 ![说明](地址)，发布时会自动上传。\n"

// BuildInitialPrompt 生成首稿提示词。
func BuildInitialPrompt(brief Brief) Prompt {
	var sb strings.Builder
	sb.WriteString("你是一名专业中文内容创作者，为微信公众号撰稿，请直接输出 Markdown，不要额外解释。\n")
	sb.WriteString("要求：\n")
	if brief.Words > 0 {
		sb.WriteString(fmt.Sprintf("- 目标字数约 %d 字（允许 ±15%%）。\n", brief.Words))
	}
	if brief.Tone != "" {
		sb.WriteString(fmt.Sprintf("- 语气：%s。\n", brief.Tone))
	}
	if brief.Audience != "" {
		sb.WriteString(fmt.Sprintf("- 受众：%s。\n", brief.Audience))
	}
	for _, c := range brief.Constraints {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}
	sb.WriteString("- 第一行必须是一级标题（# 标题）。\n")
	sb.WriteString("- 标题后给出 80~140 字的摘要段落。\n")
	sb.WriteString(platformRules)
	if len(brief.Outline) > 0 {
		sb.WriteString("- 按以下大纲组织内容：\n")
		for i, item := range brief.Outline {
			sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, item))
		}
	}

	return Prompt{
		System: sb.String(),
		User:   fmt.Sprintf("主题：%s\n请输出符合上述要求的完整 Markdown。", brief.Topic),
	}
}

// BuildRevisionPrompt replays earlier comments as user turns so a revision
// does not undo them.
func BuildRevisionPrompt(brief Brief, prev Draft, comment string, history []Turn) Prompt {
	var sb strings.Builder
	sb.WriteString("你是一名专业编辑，基于用户反馈对稿件做最小必要改动，保持 Markdown 结构。\n")
	sb.WriteString(fmt.Sprintf("- 稿件主题：%s。\n", brief.Topic))
	sb.WriteString("- 维持标题层级和列表格式。\n")
	sb.WriteString("- 保持摘要位置（标题后的第一段）。\n")
	sb.WriteString(platformRules)
	for _, c := range brief.Constraints {
		sb.WriteString(fmt.Sprintf("- %s\n", c))
	}

	var msgs []Message
	for _, t := range history {
		if t.Comment == "" {
			continue
		}
		msgs = append(msgs, Message{Role: "user", Content: t.Comment})
	}

	return Prompt{
		System:  sb.String(),
		User:    fmt.Sprintf("当前稿件：\n%s\n\n用户反馈：%s\n请输出修订后的完整 Markdown。", prev.Markdown, comment),
		History: msgs,
	}
}
