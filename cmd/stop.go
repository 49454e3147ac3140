package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/gitlab-time-sync/internal/hamster"
)

var stopAt string

var errNothingToStop = errors.New("no running activity to stop")

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running Hamster activity",
	Args:  noArgs,
	RunE:  runStop,
}

func init() {
	stopCmd.Flags().StringVar(&stopAt, "at", "", "Stop time today as HH:MM instead of now")
}

func runStop(cmd *cobra.Command, args []string) error {
	now := time.Now()

	end, err := parseStopAt(stopAt, now)
	if err != nil {
		return usageError{err}
	}

	a, err := newApp(false)
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.openStore(hamster.Writable())
	if err != nil {
		return err
	}
	defer store.Close()

	current, err := store.Current(cmd.Context())
	if err != nil {
		return err
	}
	if current == nil {
		return usageError{errNothingToStop}
	}
	if !end.After(current.Start) {
		return usageError{fmt.Errorf("stop time %s is not after the start of %q (%s)",
			end.Format("15:04"), current.Label, current.Start.Format("15:04"))}
	}

	stopped, err := store.StopCurrent(cmd.Context(), end)
	if errors.Is(err, hamster.ErrNoRunningActivity) {
		return usageError{errNothingToStop}
	}
	if err != nil {
		return err
	}

	elapsed := int64(stopped.End.Sub(stopped.Start).Seconds())
	fmt.Printf("Stopped %q. Elapsed: %s\n", stopped.Label, formatElapsed(elapsed))
	return nil
}

// parseStopAt returns now, or today at the given HH:MM.
func parseStopAt(at string, now time.Time) (time.Time, error) {
	if at == "" {
		return now, nil
	}
	t, err := time.ParseInLocation("15:04", at, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at %q, expected HH:MM", at)
	}
	return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), nil
}

func formatElapsed(seconds int64) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
