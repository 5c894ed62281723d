package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"wechat_md_publisher/mcpserver"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server over stdio",
	Long: `Starts an MCP server over stdin/stdout exposing publish_markdown,
preview_markdown and check_status. Logs go to stderr so stdout stays
reserved for the protocol.`,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, _ []string) error {
	log.SetOutput(os.Stderr)
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pub, err := newPublisher(cfg)
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	store, err := openHistory(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	srv, err := mcpserver.NewServer(pub, store, version, log.Default())
	if err != nil {
		return err
	}
	log.Printf("[INFO] starting MCP server over stdio")
	return srv.Run(ctx)
}
