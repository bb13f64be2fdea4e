package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"

	"github.com/JakeFAU/catalog-crawler/internal/store"
)

const (
	titleWidth = 48
	urlWidth   = 64
)

func newItemsCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "items",
		Short: "List the stored items for an owner, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			items, err := appInstance.Store().ListItems(cmd.Context(), owner)
			if err != nil {
				return fmt.Errorf("list items: %w", err)
			}
			writeItemsTable(cmd.OutOrStdout(), items)
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id to list (required)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

// writeItemsTable prints items as aligned columns. Widths are measured in
// terminal cells so titles with wide runes stay aligned.
func writeItemsTable(w io.Writer, items []store.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, "no items")
		return
	}
	fmt.Fprintf(w, "%s  %s  %s  %s\n",
		pad("ID", 36), pad("CREATED", 20), pad("TITLE", titleWidth), "URL")
	for _, item := range items {
		fmt.Fprintf(w, "%s  %s  %s  %s\n",
			pad(item.ID, 36),
			pad(item.CreatedAt.UTC().Format("2006-01-02 15:04:05"), 20),
			pad(item.Title, titleWidth),
			runewidth.Truncate(item.URL, urlWidth, "…"),
		)
	}
	fmt.Fprintf(w, "%d item(s)\n", len(items))
}

func pad(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
