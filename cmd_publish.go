package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"wechat_md_publisher/history"
	"wechat_md_publisher/publisher"
)

var publishFlags struct {
	mdPath    string
	title     string
	author    string
	digest    string
	noHistory bool
}

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Convert a Markdown file and save it as a WeChat draft",
	Long: `Converts the Markdown file, uploads its images to the WeChat CDN and saves
the article as a draft. Prints the draft editor URL on success.

The title is the document's first H1, then the front matter title, then
--title, then the file name.`,
	RunE: runPublish,
}

func init() {
	f := publishCmd.Flags()
	f.StringVar(&publishFlags.mdPath, "md", "", "path to markdown file (required)")
	f.StringVar(&publishFlags.title, "title", "", "fallback article title")
	f.StringVar(&publishFlags.author, "author", "", "author name")
	f.StringVar(&publishFlags.digest, "digest", "", "article digest")
	f.BoolVar(&publishFlags.noHistory, "no-history", false, "do not record this publish")

	_ = publishCmd.MarkFlagRequired("md")
}

func runPublish(cmd *cobra.Command, _ []string) error {
	markdown, fileTitle, err := readMarkdown(publishFlags.mdPath)
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pub, err := newPublisher(cfg)
	if err != nil {
		return err
	}

	title := publishFlags.title
	if title == "" {
		title = fileTitle
	}
	ctx := cmd.Context()
	log.Printf("[cli] publishing md=%s", publishFlags.mdPath)
	res := pub.Publish(ctx, publisher.Input{
		Markdown:     markdown,
		DefaultTitle: title,
		Author:       publishFlags.author,
		Digest:       publishFlags.digest,
		BaseDir:      filepath.Dir(publishFlags.mdPath),
		Progress:     func(msg string) { fmt.Fprintln(cmd.ErrOrStderr(), msg) },
	})

	if !publishFlags.noHistory {
		if err := recordResult(cmd.Context(), cfg, res, publishFlags.mdPath, markdown); err != nil {
			log.Printf("[WARN] failed to record history: %v", err)
		}
	}

	if !res.Success {
		return fmt.Errorf("publish failed: %s", res.Error)
	}
	log.Printf("[cli] publish done title=%q", res.Title)
	fmt.Fprintln(cmd.OutOrStdout(), res.DraftURL)
	return nil
}

func recordResult(ctx context.Context, cfg publisher.Config, res publisher.Result, source, markdown string) error {
	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	_, err = store.Record(ctx, history.FromResult(res, source, markdown))
	return err
}
