package hostpage

import (
	"context"
	"fmt"
	"net/http"
	"os"
)

// Static serves a saved copy of the host page and a Cookie header string
// copied from the browser.
type Static struct {
	file   string
	cookie string
}

// NewStatic returns a Static page. Either argument may be empty.
func NewStatic(file, cookie string) *Static {
	return &Static{file: file, cookie: cookie}
}

func (s *Static) HTML(ctx context.Context) (string, error) {
	if s.file == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.file)
	if err != nil {
		return "", fmt.Errorf("failed to read page file: %w", err)
	}
	return string(data), nil
}

func (s *Static) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	if s.cookie == "" {
		return nil, nil
	}
	cookies, err := http.ParseCookie(s.cookie)
	if err != nil {
		return nil, fmt.Errorf("failed to parse cookie string: %w", err)
	}
	return cookies, nil
}
