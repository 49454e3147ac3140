package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/gitlab-time-sync/internal/gitlab"
	"github.com/Tiliavir/gitlab-time-sync/internal/state"
	gtssync "github.com/Tiliavir/gitlab-time-sync/internal/sync"
)

var (
	configPath string
	dbPath     string
	verbose    bool

	syncAuto          bool
	syncNoDateConfirm bool
	syncDryRun        bool
)

var rootCmd = &cobra.Command{
	Use:   "gts <date> | gts from <start> [to <stop>]",
	Short: "GitLab Time Sync – push Hamster time entries to GitLab issues",
	Long: `gts reads the Hamster time tracker database and adds the time spent on
each GitLab issue, summed per day, to that issue's time tracking.

An activity is linked to an issue through its name: the first capture group
of default.issue_id_regexp (e.g. "#42 fix login") is the issue number.

<date>, <start> and <stop> may be
  - a date in one of the configured formats ("12/10", "12/10/15", ...)
  - a number of days ago ("0" is today, "1" yesterday, "3" three days ago)
  - a phrase such as "yesterday" or "last friday" when natural_dates is on`,
	Example: `  gts 1
  gts 12/10/15 --dry-run
  gts from 3 --auto
  gts from 12/10 to 15/10 -n`,
	Args:          validDateArgs,
	RunE:          runSync,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called from main. Commands return their
// errors; the exit status is decided here once deferred cleanup has run.
func Execute() {
	if code := execute(context.Background()); code != 0 {
		os.Exit(code)
	}
}

func execute(ctx context.Context) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitCode(err)
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/gts/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Hamster database, overrides default.db")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug diagnostics")

	rootCmd.Flags().BoolVarP(&syncAuto, "auto", "a", false, "Do not ask before syncing each day")
	rootCmd.Flags().BoolVarP(&syncNoDateConfirm, "no-date-confirm", "n", false, "Do not ask to confirm the dates first")
	rootCmd.Flags().BoolVar(&syncDryRun, "dry-run", false, "Show what would be sent without contacting GitLab")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(configCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	da, err := parseDateArgs(args)
	if err != nil {
		return usageError{err}
	}

	a, err := newApp(!syncDryRun)
	if err != nil {
		return err
	}
	defer a.Close()

	rng, err := da.resolve(a.resolver)
	if err != nil {
		return err
	}
	display := a.resolver.Display()

	confirm := newPrompt()
	if !syncNoDateConfirm {
		ok, err := confirm.Confirm(rng.Question("Sync", display))
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	var pusher gtssync.Pusher
	if !syncDryRun {
		client, err := gitlab.NewClient(ctx, gitlab.Options{
			BaseURL:   a.cfg.GitLab.URL,
			ProjectID: a.cfg.GitLab.ProjectID,
			Token:     a.cfg.GitLab.Token,
			ProxyURL:  a.cfg.GitLab.ProxyURL,
			Timeout:   a.cfg.GitLab.Timeout,
			Logger:    a.log,
		})
		if err != nil {
			return usageError{err}
		}
		pusher = client
	}

	syncer := gtssync.New(store, a.extractor, pusher, a.printer, gtssync.Options{
		Auto:    syncAuto,
		DryRun:  syncDryRun,
		Confirm: confirm,
		Display: display,
		Logger:  a.log,
	})
	sum, err := syncer.Run(ctx, rng)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "Interrupted, entries already sent stay in GitLab.")
		}
		return err
	}

	if syncDryRun || sum.Aborted {
		return nil
	}
	path, err := state.Path()
	if err == nil {
		err = state.SaveLastRun(path, state.LastRun{
			Range:    rng.Describe(display),
			Finished: time.Now(),
			Found:    sum.FoundHours,
			Sent:     sum.SentHours,
		})
	}
	if err != nil {
		a.log.Warn("could not record last run", "err", err)
	}
	return nil
}
