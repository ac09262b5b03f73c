package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tbourn/scooter-intake/internal/services"
	"github.com/tbourn/scooter-intake/internal/utils"
)

var (
	exportScope string
	exportYear  int
	exportMonth int
	exportOut   string
)

func init() {
	exportCmd.Flags().StringVar(&exportScope, "scope", "all", "what to export: all, shift or month")
	exportCmd.Flags().IntVar(&exportYear, "year", 0, "year for --scope month (default: current)")
	exportCmd.Flags().IntVar(&exportMonth, "month", 0, "month 1-12 for --scope month (default: current)")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default: the report's own file name)")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a spreadsheet export to a file",
	Long: `Write the same workbooks the bot sends to a local file.

Examples:
  # Everything ever accepted
  scooterbot export --scope all

  # The shift in progress
  scooterbot export --scope shift -o shift.xlsx

  # Monthly leaderboard for June 2025
  scooterbot export --scope month --year 2025 --month 6`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.close()
	ctx := cmd.Context()

	var doc services.Document
	switch exportScope {
	case "all":
		doc, err = a.reports.ExportAll(ctx)
	case "shift":
		doc, err = a.reports.ExportShift(ctx)
	case "month":
		now := a.now()
		year, month, perr := utils.ParseMonthYear(
			strconv.Itoa(orDefault(exportMonth, int(now.Month()))),
			strconv.Itoa(orDefault(exportYear, now.Year())),
		)
		if perr != nil {
			return perr
		}
		doc, err = a.reports.ExportMonthly(ctx, year, month)
	default:
		return fmt.Errorf("unknown --scope %q (want all, shift or month)", exportScope)
	}
	if err != nil {
		return err
	}

	path := exportOut
	if path == "" {
		path = doc.Filename
	}
	if err := os.WriteFile(path, doc.Data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", path, doc.Records)
	return nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
