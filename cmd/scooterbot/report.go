package main

import (
	"fmt"
	"html"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/tbourn/scooter-intake/internal/utils"
)

var (
	reportFrom string
	reportTo   string
)

func init() {
	reportCmd.Flags().StringVar(&reportFrom, "from", "", "first day, YYYY-MM-DD (required)")
	reportCmd.Flags().StringVar(&reportTo, "to", "", "last day, YYYY-MM-DD (default: --from)")
	_ = reportCmd.MarkFlagRequired("from")
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print per-shift totals for a date range",
	Long: `Print the same period report /service_report sends, as plain text.

Example:
  scooterbot report --from 2025-07-01 --to 2025-07-10`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

// tagRE strips the chat markup from report lines.
var tagRE = regexp.MustCompile(`</?[a-z]+[^>]*>`)

func runReport(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()

	from, err := utils.ParseDay(reportFrom, a.cfg.Location)
	if err != nil {
		return err
	}
	to := from
	if reportTo != "" {
		if to, err = utils.ParseDay(reportTo, a.cfg.Location); err != nil {
			return err
		}
	}

	chunks, err := a.reports.PeriodText(cmd.Context(), from, to)
	if err != nil {
		return err
	}
	for _, c := range chunks {
		fmt.Fprintln(cmd.OutOrStdout(), html.UnescapeString(tagRE.ReplaceAllString(c, "")))
	}
	return nil
}
