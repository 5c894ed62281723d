package publisher

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goccy/go-yaml"

	"wechat_md_publisher/hostpage"
)

const (
	DefaultBaseURL      = "https://mp.weixin.qq.com"
	DefaultCDNHost      = "mmbiz.qpic.cn"
	DefaultPlatformHost = "mp.weixin.qq.com"
	DefaultUploadScene  = 8
	DefaultTimeout      = 60
	DefaultHistoryPath  = "publish_history.db"
	DefaultServerAddr   = "127.0.0.1:8080"
)

// Config holds everything a publish run needs besides the article itself.
type Config struct {
	BaseURL        string           `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	CDNHost        string           `json:"cdn_host,omitempty" yaml:"cdn_host,omitempty"`
	PlatformHost   string           `json:"platform_host,omitempty" yaml:"platform_host,omitempty"`
	UploadScene    int              `json:"upload_scene,omitempty" yaml:"upload_scene,omitempty"`
	TimeoutSeconds int              `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	Browser        hostpage.Options `json:"browser" yaml:"browser"`
	Render         RenderConfig     `json:"render" yaml:"render"`
	History        HistoryConfig    `json:"history" yaml:"history"`
	LLM            *LLMConfig       `json:"llm,omitempty" yaml:"llm,omitempty"`
	ServerAddr     string           `json:"server_addr,omitempty" yaml:"server_addr,omitempty"`
}

// RenderConfig tunes the Markdown conversion.
type RenderConfig struct {
	CodeTheme       string `json:"code_theme,omitempty" yaml:"code_theme,omitempty"`
	Sanitize        *bool  `json:"sanitize,omitempty" yaml:"sanitize,omitempty"`
	FootnoteHeading string `json:"footnote_heading,omitempty" yaml:"footnote_heading,omitempty"`
}

// SanitizeEnabled reports whether rendered HTML goes through the sanitizer.
// It defaults to true.
func (r RenderConfig) SanitizeEnabled() bool {
	return r.Sanitize == nil || *r.Sanitize
}

// HistoryConfig locates the publish history database.
type HistoryConfig struct {
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// LLMConfig 预留给生成模块的模型配置（可选，不影响发布流程）。
type LLMConfig struct {
	Provider string `json:"provider,omitempty" yaml:"provider,omitempty"`
	Model    string `json:"model,omitempty" yaml:"model,omitempty"`
	APIKey   string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	BaseURL  string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.CDNHost == "" {
		c.CDNHost = DefaultCDNHost
	}
	if c.PlatformHost == "" {
		c.PlatformHost = DefaultPlatformHost
	}
	if c.UploadScene == 0 {
		c.UploadScene = DefaultUploadScene
	}
	if c.TimeoutSeconds == 0 {
		c.TimeoutSeconds = DefaultTimeout
	}
	if c.Browser.Driver == "" {
		c.Browser.Driver = hostpage.DriverStatic
	}
	if c.Browser.PageURL == "" {
		c.Browser.PageURL = c.BaseURL + "/"
	}
	if c.Browser.Host == "" {
		c.Browser.Host = c.PlatformHost
	}
	if c.History.Path == "" {
		c.History.Path = DefaultHistoryPath
	}
	if c.ServerAddr == "" {
		c.ServerAddr = DefaultServerAddr
	}
}

// Timeout is the HTTP client timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Validate checks a Config after defaults were applied.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseURL, validation.Required, validation.By(absoluteURL)),
		validation.Field(&c.CDNHost, validation.Required),
		validation.Field(&c.PlatformHost, validation.Required),
		validation.Field(&c.UploadScene, validation.Min(1)),
		validation.Field(&c.TimeoutSeconds, validation.Min(1)),
		validation.Field(&c.Browser, validation.By(validBrowser)),
	)
}

func absoluteURL(value any) error {
	s, _ := value.(string)
	u, err := url.Parse(s)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return validation.NewError("config.url_invalid", "must be an absolute URL")
	}
	return nil
}

func validBrowser(value any) error {
	opts, _ := value.(hostpage.Options)
	switch opts.Driver {
	case hostpage.DriverStatic:
		if opts.PageFile == "" && opts.Cookie == "" {
			return validation.NewError("config.browser.source_required", "static driver needs page_file or cookie")
		}
	case hostpage.DriverRod, hostpage.DriverChromedp:
		if opts.DebugURL == "" {
			return validation.NewError("config.browser.debug_url_required", "debug_url is required for "+opts.Driver)
		}
	default:
		return validation.NewError("config.browser.driver_unknown", "driver must be static, rod or chromedp")
	}
	return nil
}

// LoadConfig reads a JSON or YAML config from disk, chosen by extension, and
// returns it with defaults applied and validated.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
