package publisher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"wechat_md_publisher/hostpage"
)

// Session carries the credentials of one publish invocation: the token read
// from the host page, and an HTTP client whose cookie jar holds the page's
// cookies. A Session is never shared between invocations.
type Session struct {
	page    hostpage.Page
	baseURL *url.URL
	client  *http.Client

	mu    sync.Mutex
	token string
}

// NewSession wraps client with a fresh cookie jar bound to baseURL.
func NewSession(page hostpage.Page, client *http.Client, baseURL string) (*Session, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := *client
	c.Jar = jar
	return &Session{page: page, baseURL: u, client: &c}, nil
}

// Token returns the session token, reading the host page on first use.
func (s *Session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token != "" {
		return s.token, nil
	}

	token, err := hostpage.FindToken(ctx, s.page)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	cookies, err := s.page.Cookies(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuth, err)
	}
	s.client.Jar.SetCookies(s.baseURL, cookies)
	s.token = token
	return token, nil
}

// Client is the credentialed HTTP client.
func (s *Session) Client() *http.Client {
	return s.client
}
