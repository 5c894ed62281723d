package publisher

import (
	"errors"
	"fmt"

	"wechat_md_publisher/converter"
)

// Stage failures. All but ErrImageUpload abort a publish.
var (
	ErrAuth        = errors.New("auth token unavailable")
	ErrRender      = converter.ErrRender
	ErrImageUpload = errors.New("image upload failed")
	ErrNetwork     = errors.New("network request failed")
)

// renderError tags err as ErrRender unless the converter already did.
func renderError(err error) error {
	if errors.Is(err, ErrRender) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrRender, err)
}

// RejectionError is a draft submission the platform answered without an
// article id. Message is the user-facing text for Code.
type RejectionError struct {
	Code    int
	Message string
}

func (e *RejectionError) Error() string {
	return e.Message
}

var codeMessages = map[int]string{
	-6:     "请输入验证码",
	-8:     "请输入验证码",
	-1:     "系统错误，请注意备份内容后重试",
	-2:     "参数错误，请注意备份内容后重试",
	-99:    "内容超出字数，请调整",
	-206:   "服务负荷过大，请稍后重试",
	200003: "登录态超时，请重新登录",
	64705:  "内容超出字数，请调整",
	64702:  "标题超出64字长度限制",
}

// MessageForCode maps a platform return code to its message. Unknown codes
// get a generic message carrying the code.
func MessageForCode(code int) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return fmt.Sprintf("发布失败 (错误码: %d)", code)
}

func newRejection(code int) *RejectionError {
	return &RejectionError{Code: code, Message: MessageForCode(code)}
}
