package generator

import (
	"errors"
	"regexp"
	"strings"

	"wechat_md_publisher/converter"
)

const digestLimit = 120

// fenced matches a reply wrapped as a whole in a ```markdown block.
var fenced = regexp.MustCompile("(?s)^```(?:markdown|md)?[ \t]*\r?\n(.*?)\r?\n```$")

// PostProcess 清理模型输出并提取标题与摘要。
func PostProcess(raw string) (Draft, error) {
	md := strings.TrimSpace(raw)
	if m := fenced.FindStringSubmatch(md); m != nil {
		md = strings.TrimSpace(m[1])
	}
	if md == "" {
		return Draft{}, errors.New("model returned empty markdown")
	}

	// 标题规则与发布时一致：只认开头的一级标题。
	title, body := converter.ExtractTitle(md)
	digest := firstParagraph(body)
	if digest == "" {
		digest = body
	}

	return Draft{
		Title:    title,
		Digest:   truncateRunes(strings.Join(strings.Fields(digest), " "), digestLimit),
		Markdown: md,
	}, nil
}

// firstParagraph 取正文第一个非标题段落。
func firstParagraph(md string) string {
	var lines []string
	for _, line := range strings.Split(md, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		if strings.HasPrefix(line, "#") {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

func truncateRunes(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
