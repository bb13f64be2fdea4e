package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/catalog-crawler/internal/crawler"
)

func newCrawlCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the catalog once and ingest the records for an owner",
		Long: `Walks the configured catalog, extracts one record per product page, and
inserts the new ones for --owner. Prints the scrape report as JSON. When the
catalog fails partway, the records found so far are still stored and the
command exits non-zero.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			report, scrapeErr := appInstance.Pipeline().Scrape(cmd.Context(), owner)
			out, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("encode report: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			if scrapeErr != nil {
				if errors.Is(scrapeErr, crawler.ErrUpstreamUnavailable) {
					appInstance.Logger().Warn("catalog became unavailable; partial batch stored",
						zap.Int("inserted", report.Inserted))
				}
				return fmt.Errorf("scrape: %w", scrapeErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "owner id the records are stored under (required)")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}
