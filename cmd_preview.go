package main

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"wechat_md_publisher/publisher"
)

var previewFlags struct {
	mdPath string
	out    string
	watch  bool
}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render a Markdown file to the HTML that would be submitted",
	Long: `Renders the Markdown file with the configured styles and writes a standalone
HTML page. Images are left as they are. With --watch the page is rewritten
whenever the file changes.`,
	RunE: runPreview,
}

func init() {
	f := previewCmd.Flags()
	f.StringVar(&previewFlags.mdPath, "md", "", "path to markdown file (required)")
	f.StringVarP(&previewFlags.out, "out", "o", "", "output HTML path (default stdout)")
	f.BoolVar(&previewFlags.watch, "watch", false, "re-render on change (requires --out)")

	_ = previewCmd.MarkFlagRequired("md")
}

// loadRenderConfig falls back to defaults when no config file exists, since
// previews never talk to the platform.
func loadRenderConfig() (publisher.Config, error) {
	cfg, err := loadConfig()
	if errors.Is(err, fs.ErrNotExist) {
		return publisher.DefaultConfig(), nil
	}
	return cfg, err
}

func runPreview(cmd *cobra.Command, _ []string) error {
	if previewFlags.watch && previewFlags.out == "" {
		return errors.New("--watch requires --out")
	}
	cfg, err := loadRenderConfig()
	if err != nil {
		return err
	}
	pub := publisher.NewWithPage(cfg, nil, nil, rootFlags.verbose, log.Default())

	render := func() error {
		markdown, fileTitle, err := readMarkdown(previewFlags.mdPath)
		if err != nil {
			return err
		}
		preview, err := pub.Preview(markdown)
		if err != nil {
			return err
		}
		title := preview.Title
		if title == "" {
			title = fileTitle
		}
		page := previewPage(title, preview.HTML)
		if previewFlags.out == "" {
			_, err = fmt.Fprint(cmd.OutOrStdout(), page)
			return err
		}
		return os.WriteFile(previewFlags.out, []byte(page), 0o644)
	}

	if err := render(); err != nil {
		return err
	}
	if !previewFlags.watch {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("could not create file watcher: %w", err)
	}
	defer watcher.Close()
	// Editors that save through a swap file replace the inode, so watch the
	// directory and filter by name.
	target := filepath.Clean(previewFlags.mdPath)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s, writing %s\n", target, previewFlags.out)

	watchFile(cmd.Context(), watcher, target, debounceDuration, func() {
		if err := render(); err != nil {
			log.Printf("[WARN] preview failed: %v", err)
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Preview updated (%s)\n", target)
	})
	return nil
}

const debounceDuration = 500 * time.Millisecond

// watchFile calls onChange once target has been quiet for debounce after a
// write, create or rename. A burst of saves yields one call after the last.
func watchFile(ctx context.Context, watcher *fsnotify.Watcher, target string, debounce time.Duration, onChange func()) {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[WARN] watcher error: %v", err)
		}
	}
}

func previewPage(title, body string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body style="max-width: 677px; margin: 24px auto; padding: 0 16px;">
%s
</body>
</html>
`, html.EscapeString(title), body)
}
