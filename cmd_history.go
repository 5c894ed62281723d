package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"wechat_md_publisher/history"
)

var historyFlags struct {
	limit int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent publish attempts",
	RunE:  runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print the Markdown of a recorded publish (default: the last one)",
	Long: `Prints the Markdown that was published so a draft can be restored and
edited again. Details go to stderr, the Markdown to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&historyFlags.limit, "limit", 20, "number of entries to show (0 for all)")
	historyCmd.AddCommand(historyShowCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(cmd.Context(), historyFlags.limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No publishes recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIME\tSTATUS\tTITLE\tDRAFT / ERROR")
	for _, e := range entries {
		status, detail := "ok", e.DraftURL
		if !e.Success {
			status, detail = "failed", e.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), status, e.Title, detail)
	}
	return tw.Flush()
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openHistory(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var entry history.Entry
	if len(args) == 0 {
		entry, err = store.Last(cmd.Context())
	} else {
		id, parseErr := uuid.Parse(args[0])
		if parseErr != nil {
			return fmt.Errorf("invalid history id %q: %w", args[0], parseErr)
		}
		entry, err = store.Get(cmd.Context(), id)
	}
	if err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "Title:  %s\n", entry.Title)
	fmt.Fprintf(errOut, "Source: %s\n", entry.Source)
	if entry.Success {
		fmt.Fprintf(errOut, "Draft:  %s\n", entry.DraftURL)
	} else {
		fmt.Fprintf(errOut, "Error:  %s\n", entry.Error)
	}
	fmt.Fprint(cmd.OutOrStdout(), entry.Markdown)
	return nil
}
