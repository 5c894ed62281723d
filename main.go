// wechat-md-publisher converts Markdown into WeChat Official Account articles
// and saves them as drafts through the logged-in MP editor session.
//
// Usage:
//
//	wechat-md-publisher publish --md post.md [--title T] [--author A] [--digest D]
//	wechat-md-publisher preview --md post.md [--out preview.html] [--watch]
//	wechat-md-publisher status
//	wechat-md-publisher history [--limit N]
//	wechat-md-publisher generate --topic T [--out draft.md]
//	wechat-md-publisher serve [--addr 127.0.0.1:8080]
//	wechat-md-publisher mcp
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	config  string
	verbose bool
}

var rootCmd = &cobra.Command{
	Use:   "wechat-md-publisher",
	Short: "Publish Markdown to WeChat Official Account drafts",
	Long: `Converts Markdown into inline-styled HTML the WeChat editor accepts, moves
its images to the WeChat CDN and saves the result as a draft using the token
and cookies of a logged-in mp.weixin.qq.com session.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		logf := func(string, ...interface{}) {}
		if rootFlags.verbose {
			logf = log.Printf
		}
		_, _ = maxprocs.Set(maxprocs.Logger(logf))
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&rootFlags.config, "config", "config/config.json", "path to config file (.json, .yaml or .yml)")
	pf.BoolVarP(&rootFlags.verbose, "verbose", "v", false, "enable info logs")

	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
