package hostpage

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

type fakePage struct {
	markup  string
	cookies []*http.Cookie
	err     error
}

func (f fakePage) HTML(context.Context) (string, error)            { return f.markup, f.err }
func (f fakePage) Cookies(context.Context) ([]*http.Cookie, error) { return f.cookies, nil }

func TestFindToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		page    Page
		want    string
		wantErr error
	}{
		{
			name: "script assignment",
			page: fakePage{markup: `<script>window.wx = { token: "123456" };</script>`},
			want: "123456",
		},
		{
			name: "equals with single quotes",
			page: fakePage{markup: `var token='abc'`},
			want: "abc",
		},
		{
			name: "markup wins over cookie",
			page: fakePage{
				markup:  `token = "page"`,
				cookies: []*http.Cookie{{Name: "token", Value: "cookie"}},
			},
			want: "page",
		},
		{
			name: "cookie fallback",
			page: fakePage{
				markup:  "<html></html>",
				cookies: []*http.Cookie{{Name: "slave_sid", Value: "x"}, {Name: "token", Value: "789"}},
			},
			want: "789",
		},
		{
			name:    "no token",
			page:    fakePage{markup: "<html></html>", cookies: []*http.Cookie{{Name: "token", Value: ""}}},
			wantErr: ErrNoToken,
		},
		{
			name:    "page error",
			page:    fakePage{err: errors.New("tab gone")},
			wantErr: ErrNoToken,
		},
		{
			name: "page error falls back to cookie",
			page: fakePage{err: errors.New("tab gone"), cookies: []*http.Cookie{{Name: "token", Value: "555"}}},
			want: "555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := FindToken(context.Background(), tt.page)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindToken: %v", err)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatic_UnreadablePageFileUsesCookie(t *testing.T) {
	t.Parallel()

	page := NewStatic(filepath.Join(t.TempDir(), "missing.html"), "token=77")
	got, err := FindToken(context.Background(), page)
	if err != nil {
		t.Fatalf("FindToken: %v", err)
	}
	if got != "77" {
		t.Errorf("token = %q, want 77", got)
	}
}

func TestStatic(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "home.html")
	if err := os.WriteFile(file, []byte(`<script>data = {token: "42"}</script>`), 0o644); err != nil {
		t.Fatal(err)
	}

	page := NewStatic(file, "slave_user=gh_1; token=99")
	token, err := FindToken(context.Background(), page)
	if err != nil {
		t.Fatalf("FindToken: %v", err)
	}
	if token != "42" {
		t.Errorf("token = %q, want 42", token)
	}

	cookies, err := page.Cookies(context.Background())
	if err != nil {
		t.Fatalf("Cookies: %v", err)
	}
	if len(cookies) != 2 || cookies[0].Name != "slave_user" || cookies[1].Value != "99" {
		t.Errorf("cookies = %v", cookies)
	}
}

func TestStatic_CookieOnly(t *testing.T) {
	t.Parallel()

	token, err := FindToken(context.Background(), NewStatic("", "token=abc"))
	if err != nil {
		t.Fatalf("FindToken: %v", err)
	}
	if token != "abc" {
		t.Errorf("token = %q, want abc", token)
	}
}

func TestOpen(t *testing.T) {
	t.Parallel()

	for driver, want := range map[string]string{
		"":             "*hostpage.Static",
		DriverStatic:   "*hostpage.Static",
		DriverRod:      "*hostpage.Rod",
		DriverChromedp: "*hostpage.Chromedp",
	} {
		page, err := Open(Options{Driver: driver})
		if err != nil {
			t.Fatalf("Open(%q): %v", driver, err)
		}
		if got := typeName(page); got != want {
			t.Errorf("Open(%q) = %s, want %s", driver, got, want)
		}
	}

	if _, err := Open(Options{Driver: "firefox"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func typeName(p Page) string {
	switch p.(type) {
	case *Static:
		return "*hostpage.Static"
	case *Rod:
		return "*hostpage.Rod"
	case *Chromedp:
		return "*hostpage.Chromedp"
	}
	return "?"
}
