package hostpage

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// Chromedp drives a remote Chrome through chromedp: it opens pageURL in a new
// tab, which shares the logged-in profile's cookies, and snapshots the markup
// and cookies once.
type Chromedp struct {
	debugURL string
	pageURL  string

	once    sync.Once
	markup  string
	cookies []*http.Cookie
	err     error
}

// NewChromedp returns a Chromedp page. debugURL is the DevTools websocket or
// http endpoint.
func NewChromedp(debugURL, pageURL string) *Chromedp {
	if pageURL == "" {
		pageURL = DefaultPageURL
	}
	return &Chromedp{debugURL: debugURL, pageURL: pageURL}
}

func (c *Chromedp) HTML(ctx context.Context) (string, error) {
	c.once.Do(func() { c.err = c.load(ctx) })
	return c.markup, c.err
}

func (c *Chromedp) Cookies(ctx context.Context) ([]*http.Cookie, error) {
	c.once.Do(func() { c.err = c.load(ctx) })
	return c.cookies, c.err
}

func (c *Chromedp) load(ctx context.Context) error {
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, c.debugURL)
	defer allocCancel()
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	var raw []*network.Cookie
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(c.pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &c.markup, chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			raw, err = network.GetCookies().WithURLs([]string{c.pageURL}).Do(ctx)
			return err
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", c.pageURL, err)
	}

	for _, ck := range raw {
		c.cookies = append(c.cookies, &http.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Secure:   ck.Secure,
			HttpOnly: ck.HTTPOnly,
		})
	}
	return nil
}
