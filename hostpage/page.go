// Package hostpage reads the logged-in mp.weixin.qq.com page that an article
// is published from. The page markup carries the session token and the
// browser holds the cookies every platform request needs.
package hostpage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
)

// ErrNoToken is returned when neither the page markup nor its cookies carry
// a session token.
var ErrNoToken = errors.New("unable to get auth token, please ensure you are logged into WeChat MP")

// Driver names accepted by Open.
const (
	DriverStatic   = "static"
	DriverRod      = "rod"
	DriverChromedp = "chromedp"
)

// DefaultPageURL is the platform home page loaded when no tab is open.
const DefaultPageURL = "https://mp.weixin.qq.com/"

var tokenPattern = regexp.MustCompile(`token\s*[:=]\s*["']([^"']+)["']`)

// Page is a view of the host page.
type Page interface {
	HTML(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]*http.Cookie, error)
}

// Options selects and configures a Page backend.
type Options struct {
	Driver   string `json:"driver" yaml:"driver"`
	DebugURL string `json:"debug_url" yaml:"debug_url"`
	PageURL  string `json:"page_url" yaml:"page_url"`
	PageFile string `json:"page_file" yaml:"page_file"`
	Cookie   string `json:"cookie" yaml:"cookie"`
	// Host picks the tab to read when attaching to a running browser.
	Host string `json:"-" yaml:"-"`
}

// Open builds the Page backend named by opts.Driver.
func Open(opts Options) (Page, error) {
	switch opts.Driver {
	case "", DriverStatic:
		return NewStatic(opts.PageFile, opts.Cookie), nil
	case DriverRod:
		return NewRod(opts.DebugURL, opts.PageURL, opts.Host), nil
	case DriverChromedp:
		return NewChromedp(opts.DebugURL, opts.PageURL), nil
	default:
		return nil, fmt.Errorf("unknown browser driver %q", opts.Driver)
	}
}

// FindToken returns the session token embedded in the page markup, falling
// back to a cookie named "token". A page whose markup cannot be read still
// yields its cookie token.
func FindToken(ctx context.Context, page Page) (string, error) {
	markup, htmlErr := page.HTML(ctx)
	if htmlErr == nil {
		if m := tokenPattern.FindStringSubmatch(markup); m != nil {
			return m[1], nil
		}
	}

	cookies, err := page.Cookies(ctx)
	if err == nil {
		for _, c := range cookies {
			if c.Name == "token" && c.Value != "" {
				return c.Value, nil
			}
		}
	}
	if cause := errors.Join(htmlErr, err); cause != nil {
		return "", fmt.Errorf("%w: %v", ErrNoToken, cause)
	}
	return "", ErrNoToken
}
