package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/gitlab-time-sync/internal/state"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the running activity, today's issue totals and the last sync",
	Args:  noArgs,
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := time.Now()

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	current, err := store.Current(ctx)
	if err != nil {
		return err
	}
	if current != nil {
		elapsed := int64(now.Sub(current.Start).Seconds())
		fmt.Println("Running:")
		fmt.Printf("  Activity: %s\n", current.Label)
		if current.Category != "" {
			fmt.Printf("  Category: %s\n", current.Category)
		}
		if id, ok := a.extractor.IssueID(current.Label); ok {
			fmt.Printf("  Issue: #%s\n", id)
		}
		fmt.Printf("  Since: %s\n", current.Start.Format("15:04"))
		fmt.Printf("  Elapsed: %s\n", timecalc.FormatDurationHHMMSS(elapsed))
	} else {
		fmt.Println("No running activity.")
	}

	rows, err := store.FetchDay(ctx, now)
	if err != nil {
		return err
	}
	res, err := a.extractor.Extract(rows)
	if err != nil {
		return err
	}
	fmt.Println()
	if res.Empty() {
		fmt.Println("Today: nothing to sync yet.")
	} else {
		fmt.Printf("Today: %sh on %d issue(s)\n", timecalc.FormatHours(res.GrandTotal), len(res.Totals))
		for _, t := range res.Totals {
			fmt.Printf("  %-18s%sh\n", "#"+t.IssueID, timecalc.FormatHours(t.Hours))
		}
	}
	if n := len(res.Skipped); n > 0 {
		fmt.Printf("  (%d activities skipped, run gts 0 --dry-run for details)\n", n)
	}

	path, err := state.Path()
	if err != nil {
		a.log.Debug("no state path", "err", err)
		return nil
	}
	last, ok, err := state.LoadLastRun(path)
	if err != nil {
		a.log.Warn("could not read last run", "err", err)
		return nil
	}
	fmt.Println()
	if !ok {
		fmt.Println("Last sync: never")
		return nil
	}
	fmt.Printf("Last sync: %s (%s, %sh found, %sh sent)\n",
		last.Range, last.Finished.Local().Format("2006-01-02 15:04"),
		timecalc.FormatHours(last.Found), timecalc.FormatHours(last.Sent))
	return nil
}
