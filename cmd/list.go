package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/gitlab-time-sync/internal/model"
	"github.com/Tiliavir/gitlab-time-sync/internal/timecalc"
)

var listCmd = &cobra.Command{
	Use:   "list [<date> | from <start> [to <stop>]]",
	Short: "List raw Hamster activities and the issue each one maps to",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return nil
		}
		return validDateArgs(cmd, args)
	},
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if len(args) == 0 {
		args = []string{"0"}
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

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	now := time.Now()
	var total int
	for _, day := range rng.Days() {
		rows, err := store.FetchDay(ctx, day)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		fmt.Println(a.resolver.Display().Format(day))
		for _, row := range rows {
			id, ok := a.extractor.IssueID(row.Label)
			fmt.Println(formatActivity(row, id, ok, now))
		}
		total += len(rows)
	}
	if total == 0 {
		fmt.Println("No activities found.")
	}
	return nil
}

// formatActivity renders one line such as
// "09:00–10:30  #42 review  [#42] (1h 30m)".
func formatActivity(a model.Activity, issueID string, matched bool, now time.Time) string {
	endStr := "ongoing"
	end := now
	if a.End != nil {
		endStr = a.End.Format("15:04")
		end = *a.End
	}
	dur := fmt.Sprintf(" (%s)", timecalc.FormatDuration(int64(end.Sub(a.Start).Seconds())))

	issue := "[no issue]"
	if matched {
		issue = "[#" + issueID + "]"
	}
	category := ""
	if a.Category != "" {
		category = " @" + a.Category
	}
	return fmt.Sprintf("%s–%s  %s%s  %s%s", a.Start.Format("15:04"), endStr, a.Label, category, issue, dur)
}
