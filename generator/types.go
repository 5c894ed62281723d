package generator

import "time"

// Brief 描述待生成文章的要求。
type Brief struct {
	Topic       string   `json:"topic"`
	Outline     []string `json:"outline,omitempty"`
	Tone        string   `json:"tone,omitempty"`
	Audience    string   `json:"audience,omitempty"`
	Words       int      `json:"words,omitempty"`
	Constraints []string `json:"constraints,omitempty"`
}

// Draft 是模型产出的 Markdown 稿件，可直接交给 publisher 发布。
type Draft struct {
	Title    string `json:"title"`
	Digest   string `json:"digest"`
	Markdown string `json:"markdown"`
}

// Turn 记录一次生成或修订。
type Turn struct {
	Comment   string    `json:"comment"`
	Draft     Draft     `json:"draft"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
