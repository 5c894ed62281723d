package hostpage

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Rod attaches to a Chrome the user is already logged in with, started with
// --remote-debugging-port, and reads the first tab whose URL contains host.
// When no such tab is open, pageURL is opened in a new one.
type Rod struct {
	debugURL string
	pageURL  string
	host     string

	mu   sync.Mutex
	page *rod.Page
}

// NewRod returns a Rod page. debugURL is the DevTools endpoint, for example
// http://127.0.0.1:9222.
func NewRod(debugURL, pageURL, host string) *Rod {
	if pageURL == "" {
		pageURL = DefaultPageURL
	}
	if host == "" {
		host = "mp.weixin.qq.com"
	}
	return &Rod{debugURL: debugURL, pageURL: pageURL, host: host}
}

func (r *Rod) HTML(ctx context.Context) (string, error) {
	page, err := r.attach(ctx)
	if err != nil {
		return "", err
	}
	return page.Context(ctx).HTML()
}

func (r *Rod) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	page, err := r.attach(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(raw))
	for _, c := range raw {
		cookies = append(cookies, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HttpOnly: c.HTTPOnly,
		})
	}
	return cookies, nil
}

func (r *Rod) attach(ctx context.Context) (*rod.Page, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.page != nil {
		return r.page, nil
	}

	u, err := launcher.ResolveURL(r.debugURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve devtools url: %w", err)
	}
	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	pages, err := browser.Pages()
	if err != nil {
		return nil, fmt.Errorf("failed to list tabs: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if strings.Contains(info.URL, r.host) {
			r.page = p
			return p, nil
		}
	}

	p, err := browser.Page(proto.TargetCreateTarget{URL: r.pageURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", r.pageURL, err)
	}
	if err := p.Timeout(30 * time.Second).WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", r.pageURL, err)
	}
	r.page = p
	return p, nil
}
