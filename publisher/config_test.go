package publisher

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"wechat_md_publisher/hostpage"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_JSONDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.json", `{"browser":{"cookie":"token=1"},"render":{"code_theme":"github"}}`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.BaseURL != DefaultBaseURL || cfg.CDNHost != DefaultCDNHost || cfg.PlatformHost != DefaultPlatformHost {
		t.Errorf("hosts not defaulted: %+v", cfg)
	}
	if cfg.UploadScene != DefaultUploadScene || cfg.TimeoutSeconds != DefaultTimeout {
		t.Errorf("numbers not defaulted: scene=%d timeout=%d", cfg.UploadScene, cfg.TimeoutSeconds)
	}
	if cfg.Browser.Driver != hostpage.DriverStatic || cfg.Browser.PageURL != DefaultBaseURL+"/" {
		t.Errorf("browser = %+v", cfg.Browser)
	}
	if !cfg.Render.SanitizeEnabled() || cfg.Render.CodeTheme != "github" {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.History.Path != DefaultHistoryPath || cfg.ServerAddr != "127.0.0.1:8080" {
		t.Errorf("history=%q server=%q", cfg.History.Path, cfg.ServerAddr)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "config.yaml", `
base_url: https://mp.example.com/
timeout_seconds: 5
browser:
  driver: rod
  debug_url: http://127.0.0.1:9222
render:
  sanitize: false
  footnote_heading: References
llm:
  provider: openai
  model: gpt-4o-mini
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.BaseURL != "https://mp.example.com" {
		t.Errorf("base url = %q", cfg.BaseURL)
	}
	if cfg.Timeout().Seconds() != 5 {
		t.Errorf("timeout = %v", cfg.Timeout())
	}
	if cfg.Browser.Driver != hostpage.DriverRod || cfg.Browser.DebugURL != "http://127.0.0.1:9222" {
		t.Errorf("browser = %+v", cfg.Browser)
	}
	if cfg.Render.SanitizeEnabled() || cfg.Render.FootnoteHeading != "References" {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.LLM == nil || cfg.LLM.Model != "gpt-4o-mini" {
		t.Errorf("llm = %+v", cfg.LLM)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"static without source", `{}`, "page_file or cookie"},
		{"remote without debug url", `{"browser":{"driver":"chromedp"}}`, "debug_url"},
		{"unknown driver", `{"browser":{"driver":"safari"}}`, "driver must be"},
		{"relative base url", `{"base_url":"mp.weixin.qq.com","browser":{"cookie":"token=1"}}`, "absolute URL"},
		{"malformed", `{"browser":`, "failed to parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := LoadConfig(writeConfig(t, "config.json", tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}
