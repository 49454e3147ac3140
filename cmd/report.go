package cmd

import (
	"fmt"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/gitlab-time-sync/internal/report"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

var reportFormat string

var reportCmd = &cobra.Command{
	Use:   "report <date> | report from <start> [to <stop>]",
	Short: "Show per-issue totals without contacting GitLab",
	Example: `  gts report 0
  gts report from 7 --format csv`,
	Args: validDateArgs,
	RunE: runReport,
}

func init() {
	reportCmd.Flags().StringVar(&reportFormat, "format", "md", "Output format: md, csv, json")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if !slices.Contains(report.Formats, reportFormat) {
		return usageError{fmt.Errorf("unknown format %q (want md, csv or json)", reportFormat)}
	}
	da, err := parseDateArgs(args)
	if err != nil {
		return usageError{err}
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	rng, err := da.resolve(a.resolver)
	if err != nil {
		return err
	}
	display := a.resolver.Display()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var days []report.DayTotals
	for _, day := range rng.Days() {
		rows, err := store.FetchDay(ctx, day)
		if err != nil {
			return err
		}
		res, err := a.extractor.Extract(rows)
		if err != nil {
			return err
		}
		days = append(days, report.DayTotals{
			Date:    day.Format(timecalc.DayLayout),
			Totals:  res.Totals,
			Entries: res.Entries,
			Skipped: len(res.Skipped),
			Hours:   res.GrandTotal,
		})
	}

	if err := report.WriteTotals(os.Stdout, reportFormat, rng.Describe(display), days); err != nil {
		return err
	}
	return nil
}
